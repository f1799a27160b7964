package cohere

import (
	"context"
	"errors"
	"io"
	"net/http"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereClient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/core"
	cohereOption "github.com/cohere-ai/cohere-go/v2/option"

	"github.com/bububa/scrape-embeddings/components"
	"github.com/bububa/scrape-embeddings/components/embedder"
)

const (
	DefaultModel          = "embed-multilingual-v2.0"
	DefaultMaxInputLength = 512
	// MaxTextLength is the longest text, in characters, sent to tokenize as is.
	// Longer texts are cut to TruncatedTextLength.
	MaxTextLength       = 65536
	TruncatedTextLength = MaxTextLength - truncationMargin
)

const truncationMargin = 2

var ErrEmptyEmbeddings = errors.New("cohere returned no embeddings")

type Embedder struct {
	*cohereClient.Client

	embedder.Options

	usage components.LLMUsage
}

var _ embedder.Service = (*Embedder)(nil)

// NewClient builds a cohere client sharing one http.Client (and its connection pool)
// across every call of the run. Retries are left to embedder.Options.Call: the
// SDK makes a single attempt and retryable answers come back as
// *embedder.StatusError.
func NewClient(apiKey string, baseURL string, httpClient *http.Client) *cohereClient.Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opts := []cohereOption.RequestOption{
		cohereOption.WithToken(apiKey),
		cohereOption.WithMaxAttempts(1),
		cohereOption.WithHTTPClient(&statusClient{client: httpClient}),
	}
	if baseURL != "" {
		opts = append(opts, cohereOption.WithBaseURL(baseURL))
	}
	return cohereClient.NewClient(opts...)
}

// statusClient answers 408, 429 and 5xx with an *embedder.StatusError so the
// SDK retrier does not sleep before handing the failure back.
type statusClient struct {
	client core.HTTPClient
}

func (c *statusClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil || !embedder.IsTransientStatus(resp.StatusCode) {
		return resp, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	return nil, &embedder.StatusError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

func (p *Embedder) SetClient(clt *cohereClient.Client) {
	p.Client = clt
}

func New(client *cohereClient.Client, opts ...embedder.Option) *Embedder {
	defaults := embedder.NewOptions(embedder.Options{},
		embedder.WithProvider(embedder.ProviderCohere),
		embedder.WithModel(DefaultModel),
		embedder.WithMaxInputLength(DefaultMaxInputLength),
		embedder.WithMaxTextLength(MaxTextLength),
	)
	return &Embedder{
		Client:  client,
		Options: embedder.NewOptions(defaults, opts...),
	}
}

// Usage returns the tokens reported by the embed endpoint so far.
func (p *Embedder) Usage() components.UsageSnapshot {
	return p.usage.Snapshot()
}

func (p *Embedder) Tokenize(ctx context.Context, text string, opts ...embedder.CallOption) ([]int, error) {
	call := p.Resolve(opts...)
	req := cohere.TokenizeRequest{
		Text:  embedder.CapText(ctx, text, p.MaxTextLength(), p.MaxTextLength()-truncationMargin),
		Model: call.Model,
	}
	var resp *cohere.TokenizeResponse
	err := p.Call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.Client.Tokenize(ctx, &req)
		return err
	}, isTransient)
	if err != nil {
		return nil, embedder.NewError(embedder.OpTokenize, p.Provider(), call.Model, err)
	}
	return resp.Tokens, nil
}

func (p *Embedder) Detokenize(ctx context.Context, tokens []int, opts ...embedder.CallOption) (string, error) {
	call := p.Resolve(opts...)
	req := cohere.DetokenizeRequest{
		Tokens: tokens,
		Model:  call.Model,
	}
	var resp *cohere.DetokenizeResponse
	err := p.Call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.Client.Detokenize(ctx, &req)
		return err
	}, isTransient)
	if err != nil {
		return "", embedder.NewError(embedder.OpDetokenize, p.Provider(), call.Model, err)
	}
	return resp.Text, nil
}

func (p *Embedder) Embedding(ctx context.Context, text string, opts ...embedder.CallOption) ([]float64, error) {
	call := p.Resolve(opts...)
	model := call.Model
	inputType := cohere.EmbedInputType(call.InputType)
	req := cohere.EmbedRequest{
		Texts:     []string{text},
		Model:     &model,
		InputType: &inputType,
	}
	var resp *cohere.EmbedResponse
	err := p.Call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.Client.Embed(ctx, &req)
		return err
	}, isTransient)
	if err != nil {
		return nil, embedder.NewError(embedder.OpEmbed, p.Provider(), model, err)
	}
	respV := resp.GetEmbeddingsFloats()
	if respV == nil || len(respV.Embeddings) == 0 {
		return nil, embedder.NewError(embedder.OpEmbed, p.Provider(), model, ErrEmptyEmbeddings)
	}
	p.usage.FromCohere(respV.Meta)
	return respV.Embeddings[0], nil
}

// isTransient retries rate limiting and server errors reported by the API, and
// network failures.
func isTransient(err error) bool {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		return embedder.IsTransientStatus(apiErr.StatusCode)
	}
	return embedder.IsTransient(err)
}
