package pipeline

import (
	"net/http"

	"github.com/bububa/scrape-embeddings/components/document"
	"github.com/bububa/scrape-embeddings/components/embedder"
	"github.com/bububa/scrape-embeddings/components/vectordb"
	"github.com/bububa/scrape-embeddings/components/vectordb/engines/file"
)

// S3API is the part of *s3.Client used to read the input and upload the artifacts.
type S3API interface {
	document.S3GetObjectAPI
	file.S3PutObjectAPI
}

// Sink is an extra vector store the records are inserted into after the
// JSON artifacts are written.
type Sink struct {
	Name       string
	Engine     vectordb.Engine
	Collection string
}

type Options struct {
	embedder   embedder.Service
	s3         S3API
	httpClient *http.Client
	sinks      []Sink
}

type Option func(*Options)

// WithEmbedder replaces the provider built from the configuration.
func WithEmbedder(svc embedder.Service) Option {
	return func(o *Options) {
		o.embedder = svc
	}
}

func WithS3Client(clt S3API) Option {
	return func(o *Options) {
		o.s3 = clt
	}
}

// WithHTTPClient is shared by the provider and http(s) inputs.
func WithHTTPClient(clt *http.Client) Option {
	return func(o *Options) {
		o.httpClient = clt
	}
}

func WithSink(sink Sink) Option {
	return func(o *Options) {
		o.sinks = append(o.sinks, sink)
	}
}
