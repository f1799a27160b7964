package file

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/scrape-embeddings/components/vectordb"
)

func testRecords() []vectordb.Record {
	return []vectordb.Record{
		{
			Content:   "hello",
			Embedding: []float64{0.1, 0.2},
			Meta:      map[string]any{"text": "hello world", "url": "https://example.com/a", "detokenized_chunk": "hello"},
		},
		{
			Content:   "world",
			Embedding: []float64{0.3, 0.4},
			Meta:      map[string]any{"text": "hello world", "url": "https://example.com/a", "detokenized_chunk": "world"},
		},
	}
}

func TestInsertWritesAlignedArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	e, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, e.Insert(context.Background(), "", testRecords()...))

	metadataPath, embeddingsPath := e.Paths()
	assert.Equal(t, filepath.Join(dir, "processed_metadata.json"), metadataPath)
	assert.Equal(t, filepath.Join(dir, "processed_embeddings_values.json"), embeddingsPath)

	var metadata []map[string]any
	bs, err := os.ReadFile(metadataPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(bs, &metadata))

	var embeddings [][]float64
	bs, err = os.ReadFile(embeddingsPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(bs, &embeddings))

	require.Len(t, metadata, 2)
	require.Len(t, embeddings, 2)
	assert.Equal(t, "hello", metadata[0]["detokenized_chunk"])
	assert.Equal(t, "world", metadata[1]["detokenized_chunk"])
	assert.Equal(t, []float64{0.3, 0.4}, embeddings[1])
	assert.NotContains(t, metadata[0], "embedding")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files left behind")
}

func TestInsertCustomNamesAndEmptyRun(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir, WithMetadataFileName("meta"), WithEmbeddingsFileName("vectors"))
	require.NoError(t, err)

	require.NoError(t, e.Insert(context.Background(), ""))

	bs, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(bs))
	bs, err = os.ReadFile(filepath.Join(dir, "vectors.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(bs))
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	bs, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = bs
	return &s3.PutObjectOutput{}, nil
}

func TestInsertUploadsToS3(t *testing.T) {
	client := &fakeS3{objects: make(map[string][]byte)}
	e, err := New("s3://embeddings/runs/2024", WithS3Client(client))
	require.NoError(t, err)

	require.NoError(t, e.Insert(context.Background(), "", testRecords()...))

	require.Contains(t, client.objects, "embeddings/runs/2024/processed_metadata.json")
	require.Contains(t, client.objects, "embeddings/runs/2024/processed_embeddings_values.json")
	assert.JSONEq(t, "[[0.1,0.2],[0.3,0.4]]", string(client.objects["embeddings/runs/2024/processed_embeddings_values.json"]))

	metadataPath, _ := e.Paths()
	assert.Equal(t, "s3://embeddings/runs/2024/processed_metadata.json", metadataPath)
}

func TestNewValidates(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	_, err = New("s3://bucket/prefix")
	assert.Error(t, err, "s3 output needs a client")
}

func TestInsertKeepsLargeIntegers(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir)
	require.NoError(t, err)

	records := []vectordb.Record{{
		Content:   "hello",
		Embedding: []float64{0.1},
		Meta:      map[string]any{"id": json.Number("12345678901234567890"), "n": json.Number("9007199254740993")},
	}}
	require.NoError(t, e.Insert(context.Background(), "", records...))

	metadataPath, _ := e.Paths()
	bs, err := os.ReadFile(metadataPath)
	require.NoError(t, err)
	assert.Contains(t, string(bs), "12345678901234567890")
	assert.Contains(t, string(bs), "9007199254740993")
}
