// Package app wires configuration into a ready handler. Both the Lambda
// binary and the local invoke CLI start through it.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/pdf2webp/internal/config"
	"github.com/local/pdf2webp/internal/handler"
	"github.com/local/pdf2webp/internal/logger"
	"github.com/local/pdf2webp/internal/pipeline"
	"github.com/local/pdf2webp/internal/scratch"
	"github.com/local/pdf2webp/internal/storage"
)

// InitLogging configures the global logger from cfg.
func InitLogging(cfg config.Config) error {
	return logger.Init(logger.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
}

// NewHandler validates cfg, builds the storage client and returns a handler
// that reuses it across invocations.
func NewHandler(ctx context.Context, cfg config.Config) (*handler.Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s3c, err := storage.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	scratch.CleanupStale(cfg.Conversion.ScratchDir, cfg.Conversion.ScratchMaxAge)

	conv := pipeline.New(s3c, cfg.Conversion)

	log.Info().
		Str("bucket", s3c.Bucket()).
		Str("endpoint", cfg.Storage.Endpoint).
		Bool("skip_existing_pages", cfg.Conversion.SkipExistingPages).
		Bool("metrics_push", cfg.Metrics.PushgatewayURL != "").
		Msg("pdf2webp ready")

	return handler.New(conv, cfg.Metrics), nil
}
