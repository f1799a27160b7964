package milvus

import (
	"context"
	"encoding/json"
	"testing"

	milvusClient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/scrape-embeddings/components/vectordb"
)

type fakeClient struct {
	collections map[string]*entity.Schema
	indexes     map[string]string
	inserts     [][]entity.Column
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		collections: make(map[string]*entity.Schema),
		indexes:     make(map[string]string),
	}
}

func (f *fakeClient) HasCollection(_ context.Context, collName string) (bool, error) {
	_, ok := f.collections[collName]
	return ok, nil
}

func (f *fakeClient) CreateCollection(_ context.Context, schema *entity.Schema, _ int32, _ ...milvusClient.CreateCollectionOption) error {
	f.collections[schema.CollectionName] = schema
	return nil
}

func (f *fakeClient) CreateIndex(_ context.Context, collName string, fieldName string, _ entity.Index, _ bool, _ ...milvusClient.IndexOption) error {
	f.indexes[collName] = fieldName
	return nil
}

func (f *fakeClient) Insert(_ context.Context, _ string, _ string, columns ...entity.Column) (entity.Column, error) {
	f.inserts = append(f.inserts, columns)
	return nil, nil
}

func column(t *testing.T, columns []entity.Column, name string) entity.Column {
	t.Helper()
	for _, col := range columns {
		if col.Name() == name {
			return col
		}
	}
	t.Fatalf("column %s not found", name)
	return nil
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	e := New(client, vectordb.WithBatchSize(2))

	records := []vectordb.Record{
		{Content: "a", Embedding: []float64{1, 0, 0}, Meta: map[string]any{"url": "u"}},
		{Content: "b", Embedding: []float64{0, 1, 0}},
		{ID: "fixed", Content: "c", Embedding: []float64{0, 0, 1}},
	}
	require.NoError(t, e.Insert(ctx, "scrapes", records...))

	schema, ok := client.collections["scrapes"]
	require.True(t, ok)
	var vectorField *entity.Field
	for _, f := range schema.Fields {
		if f.Name == FieldEmbedding {
			vectorField = f
		}
	}
	require.NotNil(t, vectorField)
	assert.Equal(t, "3", vectorField.TypeParams[entity.TypeParamDim])
	assert.Equal(t, FieldEmbedding, client.indexes["scrapes"])

	require.Len(t, client.inserts, 2)
	first := client.inserts[0]
	require.Len(t, first, 4)
	for _, col := range first {
		assert.Equal(t, 2, col.Len(), col.Name())
	}
	assert.Equal(t, 1, client.inserts[1][0].Len())

	ids := column(t, client.inserts[1], FieldID).(*entity.ColumnVarChar)
	assert.Equal(t, []string{"fixed"}, ids.Data())

	metas := column(t, first, FieldMeta).(*entity.ColumnJSONBytes)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(metas.Data()[0], &meta))
	assert.Equal(t, "u", meta["url"])
	assert.JSONEq(t, "{}", string(metas.Data()[1]))

	require.NoError(t, e.Insert(ctx, "scrapes", records[0]))
	assert.Len(t, client.collections, 1)
}

func TestInsertDimensionMismatch(t *testing.T) {
	e := New(newFakeClient(), vectordb.WithDimension(4))
	err := e.Insert(context.Background(), "scrapes", vectordb.Record{Content: "a", Embedding: []float64{1, 2}})
	assert.ErrorIs(t, err, vectordb.ErrDimension)
}

func TestInsertEmpty(t *testing.T) {
	client := newFakeClient()
	require.NoError(t, New(client).Insert(context.Background(), "scrapes"))
	assert.Empty(t, client.collections)
}
