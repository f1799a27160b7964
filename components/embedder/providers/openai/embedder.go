package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/bububa/scrape-embeddings/components"
	"github.com/bububa/scrape-embeddings/components/embedder"
	"github.com/bububa/scrape-embeddings/pkg/logger"
)

const (
	DefaultModel          = string(openai.SmallEmbedding3)
	DefaultMaxInputLength = 8191
	// MaxTextLength bounds the text handed to the local tokenizer.
	MaxTextLength = 1 << 20
)

var ErrEmptyEmbeddings = errors.New("openai returned no embeddings")

// Embedder tokenizes locally with tiktoken and embeds through the OpenAI API.
type Embedder struct {
	*openai.Client

	embedder.Options

	codec Codec
	usage components.LLMUsage
}

var _ embedder.Service = (*Embedder)(nil)

// NewClient builds an OpenAI client. An empty baseURL keeps the public endpoint.
func NewClient(apiKey string, baseURL string, httpClient *http.Client) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(cfg)
}

func (p *Embedder) SetClient(clt *openai.Client) {
	p.Client = clt
}

// SetCodec replaces the tokenizer. A nil codec restores the tiktoken encoding
// of the call model.
func (p *Embedder) SetCodec(codec Codec) {
	p.codec = codec
}

func New(client *openai.Client, opts ...embedder.Option) *Embedder {
	defaults := embedder.NewOptions(embedder.Options{},
		embedder.WithProvider(embedder.ProviderOpenAI),
		embedder.WithModel(DefaultModel),
		embedder.WithMaxInputLength(DefaultMaxInputLength),
		embedder.WithMaxTextLength(MaxTextLength),
	)
	return &Embedder{
		Client:  client,
		Options: embedder.NewOptions(defaults, opts...),
	}
}

func (p *Embedder) Usage() components.UsageSnapshot {
	return p.usage.Snapshot()
}

func (p *Embedder) codecFor(model string) (Codec, error) {
	if p.codec != nil {
		return p.codec, nil
	}
	return CodecForModel(model)
}

func (p *Embedder) Tokenize(ctx context.Context, text string, opts ...embedder.CallOption) ([]int, error) {
	call := p.Resolve(opts...)
	codec, err := p.codecFor(call.Model)
	if err != nil {
		return nil, embedder.NewError(embedder.OpTokenize, p.Provider(), call.Model, err)
	}
	return codec.Encode(embedder.TruncateText(ctx, text, p.MaxTextLength())), nil
}

func (p *Embedder) Detokenize(ctx context.Context, tokens []int, opts ...embedder.CallOption) (string, error) {
	call := p.Resolve(opts...)
	codec, err := p.codecFor(call.Model)
	if err != nil {
		return "", embedder.NewError(embedder.OpDetokenize, p.Provider(), call.Model, err)
	}
	return codec.Decode(tokens), nil
}

func (p *Embedder) Embedding(ctx context.Context, text string, opts ...embedder.CallOption) ([]float64, error) {
	call := p.Resolve(opts...)
	if call.InputType != embedder.InputTypeSearchDocument {
		logger.FromContext(ctx).Debug("openai embeddings ignore the input type", "input_type", call.InputType)
	}
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(call.Model),
	}
	var resp openai.EmbeddingResponse
	err := p.Call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.CreateEmbeddings(ctx, req)
		return err
	}, isTransient)
	if err != nil {
		return nil, embedder.NewError(embedder.OpEmbed, p.Provider(), call.Model, err)
	}
	p.usage.Add(resp.Usage.PromptTokens)
	if len(resp.Data) == 0 {
		return nil, embedder.NewError(embedder.OpEmbed, p.Provider(), call.Model, ErrEmptyEmbeddings)
	}
	ret := make([]float64, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		ret[i] = float64(v)
	}
	return ret, nil
}

func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return embedder.IsTransientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return embedder.IsTransientStatus(reqErr.HTTPStatusCode)
	}
	return embedder.IsTransient(err)
}
