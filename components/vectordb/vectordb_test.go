package vectordb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordUUID(t *testing.T) {
	a := Record{Content: "hello", Meta: map[string]any{"url": "u", "lang": "en", "tokenized_chunk": []int{1, 2}}}
	b := Record{Content: "hello", Meta: map[string]any{"tokenized_chunk": []int{1, 2}, "lang": "en", "url": "u"}}
	c := Record{Content: "hello", Meta: map[string]any{"url": "other"}}

	assert.Equal(t, a.UUID(), b.UUID(), "independent of map order")
	assert.NotEqual(t, a.UUID(), c.UUID())
	assert.Len(t, a.UUID(), 36)
}

func TestMetaStrings(t *testing.T) {
	r := Record{Meta: map[string]any{
		"url":    "https://example.com",
		"tokens": []int{1, 2},
		"score":  1.5,
		"none":   nil,
	}}
	assert.Equal(t, map[string]string{
		"url":    "https://example.com",
		"tokens": "[1,2]",
		"score":  "1.5",
		"none":   "",
	}, r.MetaStrings())
}

func TestBatches(t *testing.T) {
	records := make([]Record, 5)
	tests := []struct {
		size int
		want []int
	}{
		{size: 2, want: []int{2, 2, 1}},
		{size: 5, want: []int{5}},
		{size: 10, want: []int{5}},
		{size: 0, want: []int{5}},
	}
	for _, tt := range tests {
		got := Batches(records, tt.size)
		lens := make([]int, len(got))
		for i, b := range got {
			lens[i] = len(b)
		}
		assert.Equal(t, tt.want, lens, "size %d", tt.size)
	}
	assert.Empty(t, Batches(nil, 3))
}

func TestFloat32s(t *testing.T) {
	assert.Equal(t, []float32{0.5, -1}, Float32s([]float64{0.5, -1}))
}

func TestNewOptions(t *testing.T) {
	opts := NewOptions(Milvus, WithDimension(768), WithBatchSize(-1))
	assert.Equal(t, Milvus, opts.EngineType)
	assert.Equal(t, 768, opts.Dimension)
	assert.Equal(t, DefaultBatchSize, opts.BatchSize)
}
