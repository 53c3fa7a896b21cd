package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"medrecon/internal/config"
	"medrecon/internal/extractor"
	_ "medrecon/internal/extractor/claude"
	_ "medrecon/internal/extractor/gemini"
	_ "medrecon/internal/extractor/openai"
	"medrecon/internal/handler"
	"medrecon/internal/logger"
	"medrecon/internal/pipeline"
	"medrecon/internal/port"
	"medrecon/internal/repository/postgres"
	"medrecon/internal/router"
	"medrecon/internal/service"
	s3storage "medrecon/internal/storage/s3"
	"medrecon/internal/telemetry"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, "medrecon", version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	db, err := postgres.NewDB(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	runRepo := postgres.NewRunRepo(db)

	s3Client, err := s3storage.NewS3Client(ctx, &cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Without a primary API key only spreadsheet invoices are accepted.
	var tables port.TableExtractor
	if cfg.Extractor.Primary.APIKey != "" {
		tables, err = extractor.NewFromConfig(&cfg.Extractor)
		if err != nil {
			return fmt.Errorf("failed to initialize extractor: %w", err)
		}
	} else {
		log.Warn().Msg("no extractor api key configured, pdf invoices disabled")
	}

	runner := pipeline.New(tables, cfg.Extractor.Concurrency)
	tokenSvc := service.NewTokenService(&cfg.JWT)
	reconSvc := service.NewReconciliationService(runner, runRepo, s3Client, &cfg.S3, cfg.Upload, cfg.Match)

	reconH := handler.NewReconciliationHandler(reconSvc)
	healthH := handler.NewHealthHandler(reconSvc)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.Setup(tokenSvc, cfg.CORS.AllowedOrigins, reconH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
