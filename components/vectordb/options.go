package vectordb

type Options struct {
	EngineType EngineType // Database type (e.g., "milvus", "memory")
	Dimension  int        // Vector dimension
	BatchSize  int        // Records sent per insert call
}

const DefaultBatchSize = 100

// Option is a function type for configuring engines.
// It follows the functional options pattern for clean and flexible configuration.
type Option func(*Options)

// WithEngine sets the database type.
// Supported types:
// - "file": two JSON artifacts, on disk or in S3
// - "milvus": Production-grade vector database
// - "memory": In-memory database for testing
// - "chromem": embedded persistent storage
func WithEngine(engine EngineType) Option {
	return func(c *Options) {
		c.EngineType = engine
	}
}

// WithDimension sets the dimension of vectors to be stored.
// This must match the dimension of your embedding model:
// - Cohere embed-multilingual-v2.0: 768
// - Cohere embed-multilingual-v3.0: 1024
// - text-embedding-3-small: 1536
// When unset the dimension of the first inserted record is used.
func WithDimension(dimension int) Option {
	return func(c *Options) {
		c.Dimension = dimension
	}
}

// WithBatchSize bounds how many records are written per call.
func WithBatchSize(size int) Option {
	return func(c *Options) {
		c.BatchSize = size
	}
}

// NewOptions applies opts over the defaults of engine.
func NewOptions(engine EngineType, opts ...Option) Options {
	ret := Options{
		EngineType: engine,
		BatchSize:  DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(&ret)
	}
	if ret.BatchSize <= 0 {
		ret.BatchSize = DefaultBatchSize
	}
	return ret
}

// Batches splits records into consecutive slices of at most size records.
func Batches(records []Record, size int) [][]Record {
	if size <= 0 {
		size = DefaultBatchSize
	}
	ret := make([][]Record, 0, (len(records)+size-1)/size)
	for i := 0; i < len(records); i += size {
		ret = append(ret, records[i:min(i+size, len(records))])
	}
	return ret
}
