package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/bububa/scrape-embeddings/components/vectordb"
)

// Engine keeps records in memory. It backs dry runs and tests.
type Engine struct {
	// collections stores all vector collections in memory
	collections *sync.Map
	vectordb.Options
}

var _ vectordb.Engine = (*Engine)(nil)

// Collection represents a named set of records.
type Collection struct {
	// records holds the actual records in the collection
	records []vectordb.Record
	// mu provides thread-safety for concurrent operations
	mu sync.RWMutex
}

func (c *Collection) AddRecords(records ...vectordb.Record) {
	c.mu.Lock()
	c.records = append(c.records, records...)
	c.mu.Unlock()
}

// Records returns a copy of the stored records in insertion order.
func (c *Collection) Records() []vectordb.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.records)
}

func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func New(opts ...vectordb.Option) *Engine {
	return &Engine{
		collections: new(sync.Map),
		Options:     vectordb.NewOptions(vectordb.Memory, opts...),
	}
}

func (e *Engine) HasCollection(name string) bool {
	_, exists := e.collections.Load(name)
	return exists
}

func (e *Engine) DropCollection(name string) {
	e.collections.Delete(name)
}

func (e *Engine) Collection(_ context.Context, name string) *Collection {
	col, _ := e.collections.LoadOrStore(name, new(Collection))
	return col.(*Collection)
}

func (e *Engine) Insert(ctx context.Context, collectionName string, records ...vectordb.Record) error {
	docs := make([]vectordb.Record, 0, len(records))
	for _, record := range records {
		if record.ID == "" {
			record.ID = record.UUID()
		}
		docs = append(docs, record)
	}
	e.Collection(ctx, collectionName).AddRecords(docs...)
	return nil
}
