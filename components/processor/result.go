package processor

import (
	"fmt"
	"time"

	"go.uber.org/atomic"

	"github.com/bububa/scrape-embeddings/components/embedder"
)

// Stats summarizes a run.
type Stats struct {
	// Records is the number of input records
	Records int `json:"records"`
	// Skipped records had no text
	Skipped int `json:"skipped"`
	// Failed records hit a provider or chunking error
	Failed int `json:"failed"`
	// TooShort records produced no chunk of at least the minimum size
	TooShort  int           `json:"too_short"`
	Succeeded int           `json:"succeeded"`
	Chunks    int           `json:"chunks"`
	Duration  time.Duration `json:"duration"`
}

type counters struct {
	done      atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	tooShort  atomic.Int64
	succeeded atomic.Int64
	chunks    atomic.Int64
	// dimension is pinned by the first embedding of the run
	dimension atomic.Int64
}

func (c *counters) checkDimension(n int) error {
	if n == 0 {
		return fmt.Errorf("%w: %w: empty vector", embedder.ErrEmbedding, ErrDimensionMismatch)
	}
	if c.dimension.CompareAndSwap(0, int64(n)) {
		return nil
	}
	if want := c.dimension.Load(); want != int64(n) {
		return fmt.Errorf("%w: %w: got %d, want %d", embedder.ErrEmbedding, ErrDimensionMismatch, n, want)
	}
	return nil
}

func (c *counters) stats(records int, elapsed time.Duration) Stats {
	return Stats{
		Records:   records,
		Skipped:   int(c.skipped.Load()),
		Failed:    int(c.failed.Load()),
		TooShort:  int(c.tooShort.Load()),
		Succeeded: int(c.succeeded.Load()),
		Chunks:    int(c.chunks.Load()),
		Duration:  elapsed,
	}
}

// Result is the output of a run. Records are in input order, chunks of a
// record in chunk order.
type Result struct {
	Records  []ProcessedRecord
	Stats    Stats
	Failures []RecordFailure
}

// Empty reports whether no record produced any chunk.
func (r *Result) Empty() bool {
	return r == nil || len(r.Records) == 0
}

// Metadata returns the metadata of every record, index aligned with Embeddings.
func (r *Result) Metadata() []map[string]any {
	ret := make([]map[string]any, len(r.Records))
	for i, rec := range r.Records {
		ret[i] = rec.Metadata()
	}
	return ret
}

func (r *Result) Embeddings() [][]float64 {
	ret := make([][]float64, len(r.Records))
	for i, rec := range r.Records {
		ret[i] = rec.Embedding
	}
	return ret
}
