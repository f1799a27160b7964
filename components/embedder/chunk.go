package embedder

import (
	"context"
	"fmt"

	"github.com/bububa/scrape-embeddings/pkg/logger"
)

// ChunkTokens splits tokens into consecutive, non-overlapping windows of maxSize
// tokens. The last window holds the remainder and is dropped, not merged into the
// previous one, when it is shorter than minSize.
//
// Every returned chunk shares memory with tokens but has its capacity capped, so
// appending to a chunk never overwrites the next one.
func ChunkTokens(ctx context.Context, tokens []int, maxSize, minSize int) ([][]int, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: max chunk size must be greater than zero, got %d", ErrInvalidArgument, maxSize)
	}
	minSize = max(minSize, 0)
	chunks := make([][]int, 0, (len(tokens)+maxSize-1)/maxSize)
	for start := 0; start < len(tokens); start += maxSize {
		end := min(start+maxSize, len(tokens))
		chunks = append(chunks, tokens[start:end:end])
	}
	if l := len(chunks); l > 0 && len(chunks[l-1]) < minSize {
		logger.FromContext(ctx).Info(
			"last chunk of tokens was too short and was removed",
			"length", len(chunks[l-1]),
			"min_size", minSize,
		)
		chunks = chunks[:l-1]
	}
	return chunks, nil
}
