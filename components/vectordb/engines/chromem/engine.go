package chromem

import (
	"context"
	"runtime"

	"github.com/philippgille/chromem-go"

	"github.com/bububa/scrape-embeddings/components/vectordb"
)

type Engine struct {
	db *chromem.DB
	vectordb.Options
}

var _ vectordb.Engine = (*Engine)(nil)

// NewDB opens a persistent database at path, or an in-memory one when path is empty.
func NewDB(path string, compress bool) (*chromem.DB, error) {
	if path == "" {
		return chromem.NewDB(), nil
	}
	return chromem.NewPersistentDB(path, compress)
}

func New(db *chromem.DB, opts ...vectordb.Option) *Engine {
	return &Engine{
		db:      db,
		Options: vectordb.NewOptions(vectordb.Chromem, opts...),
	}
}

// Collection returns the named collection. Records always carry their
// embeddings so the collection gets no embedding func.
func (e *Engine) Collection(_ context.Context, name string) (*chromem.Collection, error) {
	return e.db.GetOrCreateCollection(name, nil, nil)
}

func (e *Engine) Insert(ctx context.Context, collectionName string, records ...vectordb.Record) error {
	if len(records) == 0 {
		return nil
	}
	col, err := e.Collection(ctx, collectionName)
	if err != nil {
		return err
	}
	// Insert documents in batches to avoid memory issues
	for _, batch := range vectordb.Batches(records, e.BatchSize) {
		docs := make([]chromem.Document, len(batch))
		for i := range batch {
			recordToDocument(&batch[i], &docs[i])
		}
		if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return err
		}
	}
	return nil
}

func recordToDocument(record *vectordb.Record, doc *chromem.Document) {
	doc.ID = record.ID
	if doc.ID == "" {
		doc.ID = record.UUID()
	}
	doc.Content = record.Content
	doc.Metadata = record.MetaStrings()
	doc.Embedding = vectordb.Float32s(record.Embedding)
}
