// Package pipeline wires the configured provider, the record processor and the
// output stores into a single batch run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/xid"

	"github.com/bububa/scrape-embeddings/components"
	"github.com/bububa/scrape-embeddings/components/document"
	"github.com/bububa/scrape-embeddings/components/embedder/providers"
	"github.com/bububa/scrape-embeddings/components/processor"
	"github.com/bububa/scrape-embeddings/components/vectordb"
	"github.com/bububa/scrape-embeddings/components/vectordb/engines"
	"github.com/bububa/scrape-embeddings/components/vectordb/engines/chromem"
	"github.com/bububa/scrape-embeddings/components/vectordb/engines/file"
	"github.com/bububa/scrape-embeddings/components/vectordb/engines/milvus"
	"github.com/bububa/scrape-embeddings/config"
	"github.com/bububa/scrape-embeddings/pkg/logger"
)

// MilvusPasswordEnv holds the milvus password, never read from the config file.
const MilvusPasswordEnv = "MILVUS_PASSWORD"

// ErrNoOutput is returned when no record produced an embedded chunk. Nothing is
// written in that case.
var ErrNoOutput = errors.New("no data to save")

// Report describes a finished run.
type Report struct {
	RunID          string                    `json:"run_id"`
	Input          string                    `json:"input"`
	Stats          processor.Stats           `json:"stats"`
	Failures       []processor.RecordFailure `json:"-"`
	Usage          components.UsageSnapshot  `json:"usage"`
	MetadataPath   string                    `json:"metadata_path,omitempty"`
	EmbeddingsPath string                    `json:"embeddings_path,omitempty"`
	// Sinks lists the extra stores written, by name
	Sinks []string `json:"sinks,omitempty"`
}

type usageReporter interface {
	Usage() components.UsageSnapshot
}

// Run processes the configured input file and persists the embedded chunks.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Report, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration cannot be nil", config.ErrInvalidConfig)
	}
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	if options.httpClient == nil {
		options.httpClient = &http.Client{}
	}

	e := cfg.CreatingEmbeddings
	report := &Report{
		RunID: xid.New().String(),
		Input: e.InputScrapedDataFilePath,
	}
	log := logger.FromContext(ctx).With("run_id", report.RunID)
	ctx = logger.ContextWithLogger(ctx, log)

	if options.s3 == nil && (document.IsS3URI(e.InputScrapedDataFilePath) || document.IsS3URI(e.OutputEmbeddingProcessedDataDir)) {
		options.s3 = document.NewS3Client(e.S3)
	}

	svc := options.embedder
	if svc == nil {
		provider, err := providers.New(providers.Config{
			Provider:       e.Provider,
			Model:          e.EmbeddingModelName,
			InputType:      e.InputType(),
			BaseURL:        e.BaseURL,
			MaxInputLength: e.MaxEmbeddingModelInputLength,
			Timeout:        e.Timeout,
			Retry:          e.Retry.Options(),
			HTTPClient:     options.httpClient,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Using embedding provider", "provider", provider.Provider(), "model", provider.Model())
		svc = provider
	}

	procOpts := []processor.Option{
		processor.WithMaxChunkSize(e.MaxEmbeddingModelInputLength),
		processor.WithMinChunkSize(e.MinChunk()),
		processor.WithConcurrency(e.Concurrency),
		processor.WithOpener(document.Opener{S3Client: options.s3, HTTPClient: options.httpClient}),
	}
	switch e.Preprocess {
	case config.PreprocessMarkdown:
		procOpts = append(procOpts, processor.WithPreprocessor(document.NewHTML2MDParser()))
	case config.PreprocessText:
		procOpts = append(procOpts, processor.WithPreprocessor(document.NewHTMLTextParser()))
	}
	proc, err := processor.New(svc, procOpts...)
	if err != nil {
		return nil, err
	}

	result, err := proc.ProcessFile(ctx, e.InputScrapedDataFilePath)
	if reporter, ok := svc.(usageReporter); ok {
		report.Usage = reporter.Usage()
	}
	if err != nil {
		return report, err
	}
	report.Stats = result.Stats
	report.Failures = result.Failures
	if result.Empty() {
		return report, ErrNoOutput
	}

	if err := persist(ctx, cfg, &options, result, report); err != nil {
		return report, err
	}
	log.Info("Run finished",
		"records", report.Stats.Records,
		"chunks", report.Stats.Chunks,
		"failed", report.Stats.Failed,
		"requests", report.Usage.Requests,
		"input_tokens", report.Usage.InputTokens,
	)
	return report, nil
}

func persist(ctx context.Context, cfg *config.Config, options *Options, result *processor.Result, report *Report) error {
	e := cfg.CreatingEmbeddings
	fileOpts := []file.Option{
		file.WithMetadataFileName(e.MetadataFileName),
		file.WithEmbeddingsFileName(e.EmbeddingsFileName),
	}
	if options.s3 != nil {
		fileOpts = append(fileOpts, file.WithS3Client(options.s3))
	}
	artifacts, err := engines.FromFile(e.OutputEmbeddingProcessedDataDir, fileOpts...)
	if err != nil {
		return err
	}
	records := processor.VectorRecords(result.Records)
	if err := artifacts.Insert(ctx, "", records...); err != nil {
		return fmt.Errorf("writing artifacts: %w", err)
	}
	report.MetadataPath, report.EmbeddingsPath = artifacts.Paths()

	sinks, closeSinks, err := configuredSinks(ctx, e.Sinks)
	if err != nil {
		return err
	}
	defer closeSinks()
	sinks = append(sinks, options.sinks...)
	for _, sink := range sinks {
		start := time.Now()
		if err := sink.Engine.Insert(ctx, sink.Collection, records...); err != nil {
			return fmt.Errorf("writing %s sink: %w", sink.Name, err)
		}
		logger.FromContext(ctx).Info("Records stored",
			"sink", sink.Name,
			"collection", sink.Collection,
			"records", len(records),
			"elapsed", time.Since(start),
		)
		report.Sinks = append(report.Sinks, sink.Name)
	}
	return nil
}

// configuredSinks opens the vector stores named in the configuration. The
// returned func releases their connections.
func configuredSinks(ctx context.Context, cfg config.Sinks) ([]Sink, func(), error) {
	var (
		sinks   []Sink
		closers []func()
	)
	closeAll := func() {
		for _, fn := range closers {
			fn()
		}
	}
	if s := cfg.Chromem; s != nil {
		db, err := chromem.NewDB(s.Path, s.Compress)
		if err != nil {
			return nil, nil, fmt.Errorf("opening chromem db: %w", err)
		}
		sinks = append(sinks, Sink{
			Name:       string(vectordb.Chromem),
			Engine:     engines.FromChromem(db),
			Collection: s.Collection,
		})
	}
	if s := cfg.Milvus; s != nil {
		clt, err := milvus.NewClient(ctx, milvus.Config{
			Address:  s.Address,
			Username: s.Username,
			Password: os.Getenv(MilvusPasswordEnv),
			DBName:   s.DBName,
		})
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connecting to milvus: %w", err)
		}
		closers = append(closers, func() { _ = clt.Close() })
		sinks = append(sinks, Sink{
			Name:       string(vectordb.Milvus),
			Engine:     engines.FromMilvus(clt, vectordb.WithDimension(s.Dimension), vectordb.WithBatchSize(s.BatchSize)),
			Collection: s.Collection,
		})
	}
	if s := cfg.Memory; s != nil {
		sinks = append(sinks, Sink{
			Name:       string(vectordb.Memory),
			Engine:     engines.FromMemory(),
			Collection: s.Collection,
		})
	}
	return sinks, closeAll, nil
}
