package milvus

import (
	"context"
	"encoding/json"
	"fmt"

	milvusClient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/bububa/scrape-embeddings/components/vectordb"
	"github.com/bububa/scrape-embeddings/pkg/logger"
)

const (
	FieldID        = "id"
	FieldEmbedding = "embedding"
	FieldContent   = "content"
	FieldMeta      = "meta"

	maxContentLength = 65535
)

// Client is the part of the milvus client the engine needs.
type Client interface {
	HasCollection(ctx context.Context, collName string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema, shardsNum int32, opts ...milvusClient.CreateCollectionOption) error
	CreateIndex(ctx context.Context, collName string, fieldName string, idx entity.Index, async bool, opts ...milvusClient.IndexOption) error
	Insert(ctx context.Context, collName string, partitionName string, columns ...entity.Column) (entity.Column, error)
}

var _ Client = (milvusClient.Client)(nil)

type Engine struct {
	db Client
	vectordb.Options
}

var _ vectordb.Engine = (*Engine)(nil)

// Config is the milvus connection configuration.
type Config struct {
	Address  string `yaml:"address" validate:"required"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"db_name"`
}

func NewClient(ctx context.Context, cfg Config) (milvusClient.Client, error) {
	return milvusClient.NewClient(ctx, milvusClient.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.DBName,
	})
}

func New(db Client, opts ...vectordb.Option) *Engine {
	return &Engine{
		db:      db,
		Options: vectordb.NewOptions(vectordb.Milvus, opts...),
	}
}

func (e *Engine) CreateCollection(ctx context.Context, name string, dim int64) error {
	idField := entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(36).WithIsPrimaryKey(true).WithIsAutoID(false)
	vectorField := entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(dim)
	contentField := entity.NewField().WithName(FieldContent).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxContentLength)
	metaField := entity.NewField().WithName(FieldMeta).WithDataType(entity.FieldTypeJSON)
	schema := entity.NewSchema().WithName(name).WithAutoID(false).WithField(idField).WithField(vectorField).WithField(contentField).WithField(metaField)
	if err := e.db.CreateCollection(ctx, schema, 0); err != nil {
		return err
	}
	idxHnsw, err := entity.NewIndexHNSW(entity.COSINE, 8, 200)
	if err != nil {
		return err
	}
	return e.db.CreateIndex(ctx, name, FieldEmbedding, idxHnsw, false, milvusClient.WithIndexName(FieldEmbedding+"_idx"))
}

// Insert creates the collection on first use, sized from the configured
// dimension or the first record.
func (e *Engine) Insert(ctx context.Context, collectionName string, records ...vectordb.Record) error {
	if len(records) == 0 {
		return nil
	}
	dim := int64(e.Dimension)
	if dim == 0 {
		dim = int64(len(records[0].Embedding))
	}
	if exists, err := e.db.HasCollection(ctx, collectionName); err != nil {
		return err
	} else if !exists {
		logger.FromContext(ctx).Info("creating milvus collection", "collection", collectionName, "dimension", dim)
		if err := e.CreateCollection(ctx, collectionName, dim); err != nil {
			return err
		}
	}
	for _, batch := range vectordb.Batches(records, e.BatchSize) {
		columns, err := recordsToColumns(batch, int(dim))
		if err != nil {
			return err
		}
		if _, err := e.db.Insert(ctx, collectionName, "", columns...); err != nil {
			return err
		}
	}
	return nil
}

func recordsToColumns(records []vectordb.Record, dim int) ([]entity.Column, error) {
	var (
		ids      = make([]string, len(records))
		vectors  = make([][]float32, len(records))
		contents = make([]string, len(records))
		metas    = make([][]byte, len(records))
	)
	for i, record := range records {
		if len(record.Embedding) != dim {
			return nil, fmt.Errorf("record %d: %w: got %d, want %d", i, vectordb.ErrDimension, len(record.Embedding), dim)
		}
		ids[i] = record.ID
		if ids[i] == "" {
			ids[i] = record.UUID()
		}
		vectors[i] = vectordb.Float32s(record.Embedding)
		contents[i] = record.Content
		meta := record.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		bs, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("record %d meta: %w", i, err)
		}
		metas[i] = bs
	}
	return []entity.Column{
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnFloatVector(FieldEmbedding, dim, vectors),
		entity.NewColumnVarChar(FieldContent, contents),
		entity.NewColumnJSONBytes(FieldMeta, metas),
	}, nil
}
