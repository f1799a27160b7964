package embedder

import (
	"context"
	"unicode/utf8"

	"github.com/bububa/scrape-embeddings/pkg/logger"
)

// Service is the capability set every embedding provider must implement.
// Implementations return *Error values so callers can tell the failing
// operation apart with errors.Is.
type Service interface {
	// Tokenize turns text into provider token ids. Text longer than the provider
	// character limit is truncated, never rejected.
	Tokenize(ctx context.Context, text string, opts ...CallOption) ([]int, error)
	// Detokenize rebuilds the text represented by tokens.
	Detokenize(ctx context.Context, tokens []int, opts ...CallOption) (string, error)
	// Embedding returns the vector for a single text.
	Embedding(ctx context.Context, text string, opts ...CallOption) ([]float64, error)
}

// CallOptions override the adapter defaults for a single call.
type CallOptions struct {
	Model     string
	InputType InputType
}

type CallOption func(*CallOptions)

func WithCallModel(model string) CallOption {
	return func(o *CallOptions) {
		o.Model = model
	}
}

func WithCallInputType(inputType InputType) CallOption {
	return func(o *CallOptions) {
		o.InputType = inputType
	}
}

// Resolve applies the call options on top of the adapter defaults.
func (i Options) Resolve(opts ...CallOption) CallOptions {
	ret := CallOptions{
		Model:     i.model,
		InputType: i.inputType,
	}
	for _, opt := range opts {
		opt(&ret)
	}
	if ret.InputType == "" {
		ret.InputType = InputTypeSearchDocument
	}
	return ret
}

// TruncateText cuts text to at most limit characters (runes), logging a warning
// when it has to. A limit <= 0 disables truncation.
func TruncateText(ctx context.Context, text string, limit int) string {
	return CapText(ctx, text, limit, limit)
}

// CapText cuts text longer than limit characters (runes) down to keep
// characters. A limit <= 0 disables truncation.
func CapText(ctx context.Context, text string, limit int, keep int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	count := utf8.RuneCountInString(text)
	if count <= limit {
		return text
	}
	keep = min(max(keep, 0), limit)
	var (
		idx = len(text)
		n   int
	)
	for i := range text {
		if n == keep {
			idx = i
			break
		}
		n++
	}
	logger.FromContext(ctx).Warn(
		"text exceeds the provider character limit and was truncated",
		"chars", count,
		"limit", limit,
		"kept", keep,
	)
	return text[:idx]
}
