// Package handler is the Lambda invocation entry point.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/local/pdf2webp/internal/apperr"
	"github.com/local/pdf2webp/internal/config"
	"github.com/local/pdf2webp/internal/event"
	"github.com/local/pdf2webp/internal/logger"
	"github.com/local/pdf2webp/internal/metrics"
	"github.com/local/pdf2webp/internal/pipeline"
	"github.com/local/pdf2webp/internal/response"
)

// Converter runs one conversion. *pipeline.Converter satisfies it.
type Converter interface {
	Convert(ctx context.Context, req event.Request) (pipeline.Manifest, error)
}

type Handler struct {
	conv    Converter
	metrics config.MetricsConfig
}

func New(conv Converter, mc config.MetricsConfig) *Handler {
	return &Handler{conv: conv, metrics: mc}
}

// Handle never returns a Go error: every failure becomes a structured
// response so the caller always sees a status code and message.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (resp events.APIGatewayProxyResponse, _ error) {
	start := time.Now()
	lg := log.With().Str("request_id", requestID(ctx)).Logger()
	lg.Info().Msg("pdf2webp invoked")

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = &apperr.ProcessingError{Message: "internal error", Err: fmt.Errorf("panic: %v", r)}
			resp = response.Failure(err)
		}
		h.finish(ctx, lg, resp.StatusCode, err, time.Since(start))
	}()

	var m pipeline.Manifest
	m, err = h.run(ctx, raw, lg)
	if err != nil {
		return response.Failure(err), nil
	}
	return response.Success(m), nil
}

func (h *Handler) run(ctx context.Context, raw json.RawMessage, lg zerolog.Logger) (pipeline.Manifest, error) {
	req, err := event.Parse(raw)
	if err != nil {
		return pipeline.Manifest{}, err
	}
	lg.Info().Str("pdf_key", req.PDFKey).Str("output_prefix", req.OutputPrefix).Msg("request validated")
	return h.conv.Convert(ctx, req)
}

func (h *Handler) finish(ctx context.Context, lg zerolog.Logger, status int, err error, took time.Duration) {
	kind := apperr.Kind(err)
	switch {
	case status >= 500:
		lg.Error().Err(err).Int("status", status).Str("kind", kind).Dur("took", took).Msg("conversion failed")
	case status >= 400:
		lg.Warn().Err(err).Int("status", status).Str("kind", kind).Dur("took", took).Msg("request rejected")
	default:
		lg.Info().Int("status", status).Dur("took", took).Msg("conversion completed successfully")
	}

	metrics.ObserveInvocation(status, kind, took)
	if err := metrics.Push(ctx, h.metrics.PushgatewayURL, h.metrics.JobName); err != nil {
		lg.Warn().Err(err).Msg("metrics push failed")
	}
	logger.Flush(ctx)
}

func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}
