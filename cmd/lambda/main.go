package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/local/pdf2webp/internal/app"
	"github.com/local/pdf2webp/internal/config"
	"github.com/local/pdf2webp/internal/logger"
)

func main() {
	cfg := config.FromEnv()

	_ = app.InitLogging(cfg)
	defer logger.Close()

	h, err := app.NewHandler(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}

	lambda.Start(h.Handle)
}
