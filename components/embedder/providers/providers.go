package providers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bububa/scrape-embeddings/components"
	"github.com/bububa/scrape-embeddings/components/embedder"
	"github.com/bububa/scrape-embeddings/components/embedder/providers/cohere"
	"github.com/bububa/scrape-embeddings/components/embedder/providers/openai"
	"github.com/bububa/scrape-embeddings/components/embedder/providers/rest"
)

var (
	FromCohere = cohere.New
	FromOpenAI = openai.New
	FromREST   = rest.New
)

var (
	ErrUnknownProvider = errors.New("unknown embedding provider")
	ErrMissingAPIKey   = errors.New("missing provider api key")
)

// Embedder is what the pipeline needs from an adapter on top of embedder.Service.
type Embedder interface {
	embedder.Service
	Provider() embedder.Provider
	Model() string
	MaxInputLength() int
	Usage() components.UsageSnapshot
}

var (
	_ Embedder = (*cohere.Embedder)(nil)
	_ Embedder = (*openai.Embedder)(nil)
	_ Embedder = (*rest.Embedder)(nil)
)

// Config selects and configures one adapter.
type Config struct {
	Provider  embedder.Provider
	Model     string
	InputType embedder.InputType
	BaseURL   string
	// APIKey falls back to the provider environment variable when empty
	APIKey         string
	MaxInputLength int
	Timeout        time.Duration
	Retry          embedder.RetryOptions
	HTTPClient     *http.Client
}

// APIKeyEnv names the environment variable read for each provider.
func APIKeyEnv(provider embedder.Provider) string {
	switch normalize(provider) {
	case embedder.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case embedder.ProviderREST:
		return "EMBEDDER_API_KEY"
	default:
		return "COHERE_API_KEY"
	}
}

func normalize(provider embedder.Provider) embedder.Provider {
	for _, v := range []embedder.Provider{embedder.ProviderCohere, embedder.ProviderOpenAI, embedder.ProviderREST} {
		if strings.EqualFold(v, provider) {
			return v
		}
	}
	if provider == "" {
		return embedder.ProviderCohere
	}
	return provider
}

func (c Config) options() []embedder.Option {
	opts := make([]embedder.Option, 0, 5)
	if c.Model != "" {
		opts = append(opts, embedder.WithModel(c.Model))
	}
	if c.InputType != "" {
		opts = append(opts, embedder.WithInputType(c.InputType))
	}
	if c.MaxInputLength > 0 {
		opts = append(opts, embedder.WithMaxInputLength(c.MaxInputLength))
	}
	if c.Timeout > 0 {
		opts = append(opts, embedder.WithTimeout(c.Timeout))
	}
	if c.Retry.Attempts > 0 {
		opts = append(opts, embedder.WithRetry(c.Retry))
	}
	return opts
}

// New builds the adapter named by cfg.Provider. Cohere is the default.
func New(cfg Config) (Embedder, error) {
	provider := normalize(cfg.Provider)
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(APIKeyEnv(provider))
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	switch provider {
	case embedder.ProviderCohere:
		if apiKey == "" {
			return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, APIKeyEnv(provider))
		}
		return FromCohere(cohere.NewClient(apiKey, cfg.BaseURL, httpClient), cfg.options()...), nil
	case embedder.ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, APIKeyEnv(provider))
		}
		return FromOpenAI(openai.NewClient(apiKey, cfg.BaseURL, httpClient), cfg.options()...), nil
	case embedder.ProviderREST:
		clientOpts := []rest.Option{
			rest.WithAPIKey(apiKey),
			rest.WithHTTPClient(httpClient),
		}
		if cfg.BaseURL != "" {
			clientOpts = append(clientOpts, rest.WithBaseURL(cfg.BaseURL))
		}
		return FromREST(rest.NewClient(clientOpts...), cfg.options()...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
