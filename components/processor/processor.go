// Package processor turns scraped records into embedded token chunks.
package processor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bububa/scrape-embeddings/components/document"
	"github.com/bububa/scrape-embeddings/components/embedder"
	"github.com/bububa/scrape-embeddings/pkg/logger"
)

// Processor runs every record through tokenize, chunk, detokenize and embed.
// A failing record is logged and left out, the others are still processed.
type Processor struct {
	svc  embedder.Service
	opts Options
}

func New(svc embedder.Service, opts ...Option) (*Processor, error) {
	options := Options{
		minChunkSize:  DefaultMinChunkSize,
		concurrency:   DefaultConcurrency,
		progressEvery: DefaultProgressEvery,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: nil embedding service", embedder.ErrInvalidArgument)
	}
	if options.maxChunkSize <= 0 {
		return nil, fmt.Errorf("%w: max chunk size must be positive, got %d", embedder.ErrInvalidArgument, options.maxChunkSize)
	}
	if options.minChunkSize < 0 {
		options.minChunkSize = 0
	}
	if options.concurrency < 1 {
		options.concurrency = 1
	}
	if options.clock == nil {
		options.clock = time.Now
	}
	return &Processor{
		svc:  svc,
		opts: options,
	}, nil
}

func (p *Processor) Options() Options {
	return p.opts
}

// ProcessFile loads the records at path, a local file or an s3:// or http(s)
// location, and processes them. Failing to read the input returns an
// *InputReadError.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Result, error) {
	log := logger.FromContext(ctx)
	log.Info("Processing file", "path", path)
	p.checkFreshness(ctx, path)

	src, err := p.opts.opener.Source(path)
	if err != nil {
		return nil, p.inputError(ctx, path, err)
	}
	records, err := document.Load(ctx, src)
	if err != nil {
		return nil, p.inputError(ctx, path, err)
	}
	return p.ProcessRecords(ctx, records)
}

func (p *Processor) inputError(ctx context.Context, path string, err error) error {
	logger.FromContext(ctx).Error("Error reading file", "path", path, "error", err)
	return &InputReadError{Path: path, Err: err}
}

type recordResult struct {
	records []ProcessedRecord
	failure *RecordFailure
}

// ProcessRecords processes records and returns the chunks in input order.
// Only context cancellation makes it fail.
func (p *Processor) ProcessRecords(ctx context.Context, records []document.Record) (*Result, error) {
	var (
		start   = time.Now()
		results = make([]recordResult, len(records))
		stats   counters
		log     = logger.FromContext(ctx)
	)
	log.Info("Processing records", "records", len(records), "concurrency", p.opts.concurrency)

	run := func(ctx context.Context, idx int) error {
		ret, err := p.processRecord(ctx, idx, records[idx], &stats)
		if err != nil {
			return err
		}
		results[idx] = ret
		if n := stats.done.Inc(); p.opts.progressEvery > 0 && n%int64(p.opts.progressEvery) == 0 {
			log.Info("Processing records", "done", n, "total", len(records))
		}
		return nil
	}

	if p.opts.concurrency == 1 {
		for idx := range records {
			if err := run(ctx, idx); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.opts.concurrency)
		for idx := range records {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				return run(gctx, idx)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	ret := &Result{
		Records: make([]ProcessedRecord, 0, stats.chunks.Load()),
	}
	for _, r := range results {
		ret.Records = append(ret.Records, r.records...)
		if r.failure != nil {
			ret.Failures = append(ret.Failures, *r.failure)
		}
	}
	ret.Stats = stats.stats(len(records), time.Since(start))
	log.Info(
		"Records processed",
		"records", ret.Stats.Records,
		"succeeded", ret.Stats.Succeeded,
		"skipped", ret.Stats.Skipped,
		"too_short", ret.Stats.TooShort,
		"failed", ret.Stats.Failed,
		"chunks", ret.Stats.Chunks,
		"duration", ret.Stats.Duration,
	)
	return ret, nil
}

// processRecord returns an error only when ctx is done. Every other failure is
// reported through recordResult.failure.
func (p *Processor) processRecord(ctx context.Context, idx int, record document.Record, stats *counters) (recordResult, error) {
	if err := ctx.Err(); err != nil {
		return recordResult{}, err
	}
	log := logger.FromContext(ctx).With("record", idx)
	fail := func(stage Stage, err error) (recordResult, error) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return recordResult{}, ctxErr
		}
		stats.failed.Inc()
		log.Error("Error processing text", "stage", stage, "error", err)
		return recordResult{failure: &RecordFailure{Index: idx, Stage: stage, Err: err}}, nil
	}

	text := record.Text()
	if text != "" && p.opts.preprocessor != nil {
		var err error
		if text, err = document.ParseString(ctx, p.opts.preprocessor, text); err != nil {
			return fail(StagePreprocess, err)
		}
	}
	if text == "" {
		stats.skipped.Inc()
		log.Debug("record has no text, skipping")
		return recordResult{}, nil
	}

	tokens, err := p.svc.Tokenize(ctx, text)
	if err != nil {
		return fail(StageTokenize, err)
	}
	chunks, err := embedder.ChunkTokens(ctx, tokens, p.opts.maxChunkSize, p.opts.minChunkSize)
	if err != nil {
		return fail(StageChunk, err)
	}
	if len(chunks) == 0 {
		stats.tooShort.Inc()
		log.Debug("record too short to produce a chunk", "tokens", len(tokens))
		return recordResult{}, nil
	}

	// chunks share one copy of the fields, detached from the caller's record
	fields := record.Clone()
	processed := make([]ProcessedRecord, 0, len(chunks))
	for chunkIdx, chunk := range chunks {
		detokenized, err := p.svc.Detokenize(ctx, chunk)
		if err != nil {
			return fail(StageDetokenize, err)
		}
		embedding, err := p.svc.Embedding(ctx, detokenized)
		if err != nil {
			return fail(StageEmbed, err)
		}
		if err := stats.checkDimension(len(embedding)); err != nil {
			return fail(StageEmbed, err)
		}
		processed = append(processed, ProcessedRecord{
			Fields:           fields,
			TokenizedChunk:   chunk,
			DetokenizedChunk: detokenized,
			Embedding:        embedding,
			RecordIndex:      idx,
			ChunkIndex:       chunkIdx,
		})
		log.Debug("chunk embedded", "chunk", chunkIdx, "tokens", len(chunk), "dimension", len(embedding))
	}
	stats.succeeded.Inc()
	stats.chunks.Add(int64(len(processed)))
	return recordResult{records: processed}, nil
}
