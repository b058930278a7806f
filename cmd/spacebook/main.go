package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	_ "github.com/kirinyoku/spacebook/docs"
	"github.com/kirinyoku/spacebook/internal/app"
	"github.com/kirinyoku/spacebook/internal/config"
	"github.com/kirinyoku/spacebook/internal/logger"
)

// @title Spacebook API
// @version 1.0
// @description Space booking: availability, booking requests and owner decisions.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Production: cfg.Env == config.EnvProduction,
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to create application", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		log.Error("application finished with error", zap.Error(err))
		os.Exit(1)
	}
}
