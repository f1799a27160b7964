// Package file stores embedded records as two index aligned JSON artifacts:
// one array of metadata objects and one array of embedding vectors.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bububa/scrape-embeddings/components/document"
	"github.com/bububa/scrape-embeddings/components/vectordb"
	"github.com/bububa/scrape-embeddings/pkg/logger"
)

const (
	DefaultMetadataFileName   = "processed_metadata"
	DefaultEmbeddingsFileName = "processed_embeddings_values"
)

// S3PutObjectAPI is the part of *s3.Client used to upload the artifacts.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Engine struct {
	dir            string
	metadataName   string
	embeddingsName string
	s3             S3PutObjectAPI
	vectordb.Options
}

var _ vectordb.Engine = (*Engine)(nil)

type Option func(*Engine)

func WithMetadataFileName(name string) Option {
	return func(e *Engine) {
		e.metadataName = name
	}
}

func WithEmbeddingsFileName(name string) Option {
	return func(e *Engine) {
		e.embeddingsName = name
	}
}

// WithS3Client is required when dir is an s3://bucket/prefix location.
func WithS3Client(clt S3PutObjectAPI) Option {
	return func(e *Engine) {
		e.s3 = clt
	}
}

// New writes into dir, a local directory or an s3://bucket/prefix location.
func New(dir string, opts ...Option) (*Engine, error) {
	ret := &Engine{
		dir:            dir,
		metadataName:   DefaultMetadataFileName,
		embeddingsName: DefaultEmbeddingsFileName,
		Options:        vectordb.NewOptions(vectordb.File),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if dir == "" {
		return nil, errors.New("output directory is required")
	}
	if document.IsS3URI(dir) {
		if _, _, err := document.ParseS3URI(dir); err != nil {
			return nil, err
		}
		if ret.s3 == nil {
			return nil, fmt.Errorf("s3 client is required to write to %s", dir)
		}
	}
	return ret, nil
}

// Paths returns the metadata and embeddings artifact locations.
func (e *Engine) Paths() (metadata string, embeddings string) {
	return e.location(e.metadataName), e.location(e.embeddingsName)
}

func (e *Engine) location(name string) string {
	if document.IsS3URI(e.dir) {
		return strings.TrimSuffix(e.dir, "/") + "/" + name + ".json"
	}
	return filepath.Join(e.dir, name+".json")
}

// Insert replaces both artifacts with records. The collection name is not used.
func (e *Engine) Insert(ctx context.Context, _ string, records ...vectordb.Record) error {
	metadata := make([]map[string]any, len(records))
	embeddings := make([][]float64, len(records))
	for i, r := range records {
		metadata[i] = r.Meta
		if metadata[i] == nil {
			metadata[i] = map[string]any{}
		}
		embeddings[i] = r.Embedding
		if embeddings[i] == nil {
			embeddings[i] = []float64{}
		}
	}
	metadataPath, embeddingsPath := e.Paths()
	if err := e.write(ctx, e.metadataName, metadata); err != nil {
		return fmt.Errorf("writing %s: %w", metadataPath, err)
	}
	if err := e.write(ctx, e.embeddingsName, embeddings); err != nil {
		return fmt.Errorf("writing %s: %w", embeddingsPath, err)
	}
	logger.FromContext(ctx).Info(
		"Embeddings and metadata saved",
		"records", len(records),
		"metadata", metadataPath,
		"embeddings", embeddingsPath,
	)
	return nil
}

func (e *Engine) write(ctx context.Context, name string, v any) error {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	if document.IsS3URI(e.dir) {
		return e.upload(ctx, name, buf.Bytes())
	}
	return writeFile(e.location(name), buf.Bytes())
}

func (e *Engine) upload(ctx context.Context, name string, data []byte) error {
	bucket, prefix, err := document.ParseS3URI(e.dir)
	if err != nil {
		return err
	}
	_, err = e.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(path.Join(prefix, name+".json")),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}

// writeFile replaces fname through a temporary file in the same directory so
// readers never see a partial artifact.
func writeFile(fname string, data []byte) error {
	dir := filepath.Dir(fname)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(fname)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fname)
}
