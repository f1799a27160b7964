package chromem

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/scrape-embeddings/components/vectordb"
)

func records(n int) []vectordb.Record {
	ret := make([]vectordb.Record, n)
	for i := range ret {
		ret[i] = vectordb.Record{
			Content:   fmt.Sprintf("chunk %d", i),
			Embedding: []float64{float64(i + 1), 1, 0},
			Meta: map[string]any{
				"url":             "https://example.com",
				"tokenized_chunk": []int{i, i + 1},
			},
		}
	}
	return ret
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	db, err := NewDB("", false)
	require.NoError(t, err)
	e := New(db, vectordb.WithBatchSize(2))

	recs := records(5)
	require.NoError(t, e.Insert(ctx, "scrapes", recs...))
	require.NoError(t, e.Insert(ctx, "scrapes"))

	col, err := e.Collection(ctx, "scrapes")
	require.NoError(t, err)
	assert.Equal(t, 5, col.Count())

	doc, err := col.GetByID(ctx, recs[3].UUID())
	require.NoError(t, err)
	assert.Equal(t, "chunk 3", doc.Content)
	assert.Equal(t, "https://example.com", doc.Metadata["url"])
	assert.Equal(t, "[3,4]", doc.Metadata["tokenized_chunk"])
}

func TestInsertPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, err := NewDB(dir, false)
	require.NoError(t, err)
	require.NoError(t, New(db).Insert(ctx, "scrapes", records(3)...))

	reopened, err := NewDB(dir, false)
	require.NoError(t, err)
	col := reopened.GetCollection("scrapes", nil)
	require.NotNil(t, col)
	assert.Equal(t, 3, col.Count())
}
