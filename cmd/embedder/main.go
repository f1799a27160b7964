// Command embedder chunks and embeds a scraped data file using
// config/parameters.yml, or the file named by EMBEDDER_CONFIG.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bububa/scrape-embeddings/agents/pipeline"
	"github.com/bububa/scrape-embeddings/config"
	"github.com/bububa/scrape-embeddings/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	logCfg := cfg.Log
	logCfg.Output = os.Stderr
	log := logger.Init(&logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.ContextWithLogger(ctx, log)

	report, err := pipeline.Run(ctx, cfg)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoOutput) {
			log.Error("No data to save.", "critical", true)
		} else {
			log.Error("Run failed", "error", err)
		}
		return err
	}
	log.Info("Embeddings saved",
		"run_id", report.RunID,
		"metadata", report.MetadataPath,
		"embeddings", report.EmbeddingsPath,
		"sinks", report.Sinks,
		"duration", report.Stats.Duration,
	)
	return nil
}
