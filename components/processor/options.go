package processor

import (
	"time"

	"github.com/bububa/scrape-embeddings/components/document"
)

const (
	DefaultMinChunkSize  = 10
	DefaultConcurrency   = 1
	DefaultProgressEvery = 100
)

type Options struct {
	// maxChunkSize is the chunk size in tokens, usually the model input limit
	maxChunkSize int
	// minChunkSize drops a trailing chunk shorter than this many tokens
	minChunkSize  int
	concurrency   int
	progressEvery int
	clock         func() time.Time
	preprocessor  document.Parser
	opener        document.Opener
}

// Option is a function type for configuring the Processor.
type Option func(*Options)

func WithMaxChunkSize(tokens int) Option {
	return func(o *Options) {
		o.maxChunkSize = tokens
	}
}

func WithMinChunkSize(tokens int) Option {
	return func(o *Options) {
		o.minChunkSize = tokens
	}
}

// WithConcurrency sets how many records are processed at once. 1 keeps the
// processing strictly sequential.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.concurrency = n
	}
}

// WithProgressEvery logs progress every n records, 0 disables it.
func WithProgressEvery(n int) Option {
	return func(o *Options) {
		o.progressEvery = n
	}
}

func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		o.clock = clock
	}
}

// WithPreprocessor rewrites every record text before tokenization.
func WithPreprocessor(p document.Parser) Option {
	return func(o *Options) {
		o.preprocessor = p
	}
}

// WithOpener sets how ProcessFile resolves input locations.
func WithOpener(opener document.Opener) Option {
	return func(o *Options) {
		o.opener = opener
	}
}

func (o Options) MaxChunkSize() int {
	return o.maxChunkSize
}

func (o Options) MinChunkSize() int {
	return o.minChunkSize
}

func (o Options) Concurrency() int {
	return o.concurrency
}
