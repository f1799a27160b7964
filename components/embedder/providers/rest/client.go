package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/bububa/scrape-embeddings/components/embedder"
)

const (
	// BaseURL is the cohere HTTP API base URL.
	BaseURL = "https://api.cohere.ai"
	// APIVersion is the API version prefix of every endpoint.
	APIVersion = "v1"
)

// Client is an HTTP client for the cohere v1 tokenize, detokenize and embed endpoints.
type Client struct {
	opts Options
}

// Options are client options
type Options struct {
	APIKey     string
	BaseURL    string
	Version    string
	HTTPClient *http.Client
}

// Option is functional option.
type Option func(*Options)

// NewClient creates a new HTTP API client and returns it.
// By default it reads the API key from the COHERE_API_KEY env var and uses the
// default Go http.Client for making API requests.
func NewClient(opts ...Option) *Client {
	options := Options{
		APIKey:     os.Getenv("COHERE_API_KEY"),
		BaseURL:    BaseURL,
		Version:    APIVersion,
		HTTPClient: http.DefaultClient,
	}

	for _, apply := range opts {
		apply(&options)
	}

	return &Client{
		opts: options,
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(o *Options) {
		o.APIKey = apiKey
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *Options) {
		o.BaseURL = baseURL
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(o *Options) {
		o.Version = version
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = httpClient
	}
}

type TokenizeRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

type TokenizeResponse struct {
	Tokens []int `json:"tokens"`
}

type DetokenizeRequest struct {
	Tokens []int  `json:"tokens"`
	Model  string `json:"model,omitempty"`
}

type DetokenizeResponse struct {
	Text string `json:"text"`
}

type EmbedRequest struct {
	Texts     []string           `json:"texts"`
	Model     string             `json:"model,omitempty"`
	InputType embedder.InputType `json:"input_type,omitempty"`
}

type EmbedResponse struct {
	ID         string      `json:"id,omitempty"`
	Embeddings [][]float64 `json:"embeddings"`
	Texts      []string    `json:"texts,omitempty"`
}

// Tokenize calls POST /v1/tokenize.
func (c *Client) Tokenize(ctx context.Context, req *TokenizeRequest) (*TokenizeResponse, error) {
	resp := new(TokenizeResponse)
	if err := c.post(ctx, "tokenize", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Detokenize calls POST /v1/detokenize.
func (c *Client) Detokenize(ctx context.Context, req *DetokenizeRequest) (*DetokenizeResponse, error) {
	resp := new(DetokenizeResponse)
	if err := c.post(ctx, "detokenize", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Embed calls POST /v1/embed.
func (c *Client) Embed(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error) {
	resp := new(EmbedResponse)
	if err := c.post(ctx, "embed", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// post sends payload as JSON and decodes a 200 answer into out. Any other status
// becomes an *embedder.StatusError carrying the raw body.
func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	u, err := url.JoinPath(c.opts.BaseURL, c.opts.Version, endpoint)
	if err != nil {
		return err
	}

	body := new(bytes.Buffer)
	enc := json.NewEncoder(body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.opts.APIKey))
	}
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &embedder.StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
