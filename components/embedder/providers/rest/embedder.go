package rest

import (
	"context"
	"errors"

	"github.com/bububa/scrape-embeddings/components"
	"github.com/bububa/scrape-embeddings/components/embedder"
)

const (
	DefaultModel          = "embed-multilingual-v2.0"
	DefaultMaxInputLength = 512
	MaxTextLength         = 65536
	TruncatedTextLength   = MaxTextLength - truncationMargin
)

const truncationMargin = 2

var ErrEmptyEmbeddings = errors.New("no embeddings in response")

type Embedder struct {
	*Client

	embedder.Options

	usage components.LLMUsage
}

var _ embedder.Service = (*Embedder)(nil)

func (p *Embedder) SetClient(clt *Client) {
	p.Client = clt
}

func New(client *Client, opts ...embedder.Option) *Embedder {
	defaults := embedder.NewOptions(embedder.Options{},
		embedder.WithProvider(embedder.ProviderREST),
		embedder.WithModel(DefaultModel),
		embedder.WithMaxInputLength(DefaultMaxInputLength),
		embedder.WithMaxTextLength(MaxTextLength),
	)
	return &Embedder{
		Client:  client,
		Options: embedder.NewOptions(defaults, opts...),
	}
}

// Usage counts the requests sent to the embed endpoint.
func (p *Embedder) Usage() components.UsageSnapshot {
	return p.usage.Snapshot()
}

func (p *Embedder) Tokenize(ctx context.Context, text string, opts ...embedder.CallOption) ([]int, error) {
	call := p.Resolve(opts...)
	req := TokenizeRequest{
		Text:  embedder.CapText(ctx, text, p.MaxTextLength(), p.MaxTextLength()-truncationMargin),
		Model: call.Model,
	}
	var resp *TokenizeResponse
	err := p.Call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.Client.Tokenize(ctx, &req)
		return err
	}, nil)
	if err != nil {
		return nil, embedder.NewError(embedder.OpTokenize, p.Provider(), call.Model, err)
	}
	return resp.Tokens, nil
}

func (p *Embedder) Detokenize(ctx context.Context, tokens []int, opts ...embedder.CallOption) (string, error) {
	call := p.Resolve(opts...)
	req := DetokenizeRequest{
		Tokens: tokens,
		Model:  call.Model,
	}
	var resp *DetokenizeResponse
	err := p.Call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.Client.Detokenize(ctx, &req)
		return err
	}, nil)
	if err != nil {
		return "", embedder.NewError(embedder.OpDetokenize, p.Provider(), call.Model, err)
	}
	return resp.Text, nil
}

func (p *Embedder) Embedding(ctx context.Context, text string, opts ...embedder.CallOption) ([]float64, error) {
	call := p.Resolve(opts...)
	req := EmbedRequest{
		Texts:     []string{text},
		Model:     call.Model,
		InputType: call.InputType,
	}
	var resp *EmbedResponse
	err := p.Call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.Client.Embed(ctx, &req)
		return err
	}, nil)
	if err != nil {
		return nil, embedder.NewError(embedder.OpEmbed, p.Provider(), call.Model, err)
	}
	p.usage.Add(0)
	if len(resp.Embeddings) == 0 {
		return nil, embedder.NewError(embedder.OpEmbed, p.Provider(), call.Model, ErrEmptyEmbeddings)
	}
	return resp.Embeddings[0], nil
}
