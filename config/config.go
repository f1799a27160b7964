// Package config loads the embedding pipeline parameters from YAML.
package config

import (
	"time"

	"github.com/bububa/scrape-embeddings/components/document"
	"github.com/bububa/scrape-embeddings/components/embedder"
	"github.com/bububa/scrape-embeddings/pkg/logger"
)

const (
	PreprocessMarkdown = "markdown"
	PreprocessText     = "text"
)

const (
	// PathEnv names the environment variable holding the config file path.
	PathEnv     = "EMBEDDER_CONFIG"
	DefaultPath = "config/parameters.yml"

	DefaultMaxEmbeddingModelInputLength = 512
	DefaultMinChunkSize                 = 10
	DefaultMetadataFileName             = "processed_metadata"
	DefaultEmbeddingsFileName           = "processed_embeddings_values"
	DefaultCollection                   = "scraped_embeddings"
)

type Config struct {
	CreatingEmbeddings CreatingEmbeddings `yaml:"creating_embeddings" validate:"required"`
	Log                logger.Config      `yaml:"log"`
}

// CreatingEmbeddings is the creating_embeddings section of parameters.yml.
type CreatingEmbeddings struct {
	// InputScrapedDataFilePath is a local path, s3://bucket/key or http(s) URL
	InputScrapedDataFilePath string `yaml:"input_scraped_data_file_path" validate:"required"`
	// MaxEmbeddingModelInputLength is the chunk size in tokens
	MaxEmbeddingModelInputLength int `yaml:"max_embedding_model_input_length" validate:"gt=0"`
	// OutputEmbeddingProcessedDataDir is a local directory or s3://bucket/prefix
	OutputEmbeddingProcessedDataDir string `yaml:"output_embedding_processed_data_dir" validate:"required"`
	// EmbeddingModelName defaults to the provider default model
	EmbeddingModelName string `yaml:"embedding_model_name"`
	EmbeddingsType     string `yaml:"embeddings_type" validate:"input_type"`

	Provider string `yaml:"provider" validate:"provider"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
	// MinChunkSize drops trailing chunks shorter than this many tokens
	MinChunkSize *int          `yaml:"min_chunk_size" validate:"omitempty,gte=0"`
	Concurrency  int           `yaml:"concurrency" validate:"gte=1,lte=64"`
	Timeout      time.Duration `yaml:"timeout" validate:"gte=0"`
	Retry        Retry         `yaml:"retry"`
	// Preprocess rewrites HTML record text before tokenizing: markdown or text
	Preprocess string `yaml:"preprocess" validate:"omitempty,oneof=markdown text"`

	MetadataFileName   string            `yaml:"metadata_file_name" validate:"required"`
	EmbeddingsFileName string            `yaml:"embeddings_file_name" validate:"required"`
	S3                 document.S3Config `yaml:"s3"`
	Sinks              Sinks             `yaml:"sinks"`
}

type Retry struct {
	Attempts int           `yaml:"attempts" validate:"gte=1,lte=10"`
	Base     time.Duration `yaml:"base" validate:"gte=0"`
	Max      time.Duration `yaml:"max" validate:"gte=0"`
	Jitter   time.Duration `yaml:"jitter" validate:"gte=0"`
}

func (r Retry) Options() embedder.RetryOptions {
	return embedder.RetryOptions{
		Attempts: r.Attempts,
		Base:     r.Base,
		Max:      r.Max,
		Jitter:   r.Jitter,
	}
}

// Sinks are optional vector stores written in addition to the JSON artifacts.
type Sinks struct {
	Chromem *ChromemSink `yaml:"chromem"`
	Milvus  *MilvusSink  `yaml:"milvus"`
	// Memory keeps the records in process, for dry runs
	Memory *MemorySink `yaml:"memory"`
}

type ChromemSink struct {
	// Path of the persistent database, in memory when empty
	Path       string `yaml:"path"`
	Compress   bool   `yaml:"compress"`
	Collection string `yaml:"collection" validate:"required"`
}

type MilvusSink struct {
	Address    string `yaml:"address" validate:"required,hostname_port"`
	Username   string `yaml:"username"`
	DBName     string `yaml:"db_name"`
	Collection string `yaml:"collection" validate:"required"`
	Dimension  int    `yaml:"dimension" validate:"gte=0"`
	BatchSize  int    `yaml:"batch_size" validate:"gte=0"`
}

type MemorySink struct {
	Collection string `yaml:"collection" validate:"required"`
}

// InputType returns the parsed embeddings_type.
func (c CreatingEmbeddings) InputType() embedder.InputType {
	it, _ := embedder.ParseInputType(c.EmbeddingsType)
	return it
}

func (c CreatingEmbeddings) MinChunk() int {
	if c.MinChunkSize == nil {
		return DefaultMinChunkSize
	}
	return *c.MinChunkSize
}

func (c *Config) applyDefaults() {
	e := &c.CreatingEmbeddings
	if e.MaxEmbeddingModelInputLength == 0 {
		e.MaxEmbeddingModelInputLength = DefaultMaxEmbeddingModelInputLength
	}
	if e.EmbeddingsType == "" {
		e.EmbeddingsType = string(embedder.InputTypeSearchDocument)
	}
	if e.Provider == "" {
		e.Provider = embedder.ProviderCohere
	}
	if e.MinChunkSize == nil {
		v := DefaultMinChunkSize
		e.MinChunkSize = &v
	}
	if e.Concurrency == 0 {
		e.Concurrency = 1
	}
	if e.Retry.Attempts == 0 {
		d := embedder.DefaultRetryOptions()
		e.Retry = Retry{Attempts: d.Attempts, Base: d.Base, Max: d.Max, Jitter: d.Jitter}
	}
	if e.MetadataFileName == "" {
		e.MetadataFileName = DefaultMetadataFileName
	}
	if e.EmbeddingsFileName == "" {
		e.EmbeddingsFileName = DefaultEmbeddingsFileName
	}
	if s := e.Sinks.Chromem; s != nil && s.Collection == "" {
		s.Collection = DefaultCollection
	}
	if s := e.Sinks.Milvus; s != nil && s.Collection == "" {
		s.Collection = DefaultCollection
	}
	if s := e.Sinks.Memory; s != nil && s.Collection == "" {
		s.Collection = DefaultCollection
	}
	if c.Log.Level == "" {
		c.Log.Level = logger.InfoLevel
	}
}
