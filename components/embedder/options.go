package embedder

import "time"

// Options holds the configuration shared by every provider adapter.
type Options struct {
	// provider specifies the embedding service to use (e.g., "Cohere", "OpenAI")
	provider Provider
	// model is the default model used for tokenization and embeddings
	model string
	// inputType is the default embedding input type
	inputType InputType
	// maxInputLength is the largest embedding input, measured in tokens
	maxInputLength int
	// maxTextLength is the largest text accepted by the tokenizer, measured in characters
	maxTextLength int
	// timeout bounds every single provider call, zero means no extra deadline
	timeout time.Duration
	retry   RetryOptions
}

// Option is a function type for configuring the adapter Options.
// It follows the functional options pattern for clean and flexible configuration.
type Option func(*Options)

func WithProvider(provider Provider) Option {
	return func(o *Options) {
		o.provider = provider
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.model = model
	}
}

func WithInputType(inputType InputType) Option {
	return func(o *Options) {
		o.inputType = inputType
	}
}

func WithMaxInputLength(tokens int) Option {
	return func(o *Options) {
		o.maxInputLength = tokens
	}
}

func WithMaxTextLength(chars int) Option {
	return func(o *Options) {
		o.maxTextLength = chars
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.timeout = timeout
	}
}

func WithRetry(retry RetryOptions) Option {
	return func(o *Options) {
		o.retry = retry
	}
}

// NewOptions builds Options from defaults overridden by opts.
func NewOptions(defaults Options, opts ...Option) Options {
	ret := defaults
	for _, opt := range opts {
		opt(&ret)
	}
	if ret.inputType == "" {
		ret.inputType = InputTypeSearchDocument
	}
	if ret.retry.Attempts == 0 {
		ret.retry = DefaultRetryOptions()
	}
	return ret
}

func (i Options) Provider() Provider {
	return i.provider
}

func (i Options) Model() string {
	return i.model
}

func (i Options) InputType() InputType {
	return i.inputType
}

// MaxInputLength is used upstream as the chunk size.
func (i Options) MaxInputLength() int {
	return i.maxInputLength
}

func (i Options) MaxTextLength() int {
	return i.maxTextLength
}

func (i Options) Timeout() time.Duration {
	return i.timeout
}

func (i Options) Retry() RetryOptions {
	return i.retry
}
