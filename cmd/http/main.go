package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fashnary/api/internal/config"
	"fashnary/api/internal/handler"
	"fashnary/api/internal/repository"
	"fashnary/api/internal/service"
	"fashnary/api/internal/service/display"
	"fashnary/api/internal/service/gemini"
	"fashnary/api/internal/service/tryon"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := config.NewLogger("fashnary-api", cfg.LogLevel)

	// 2. Setup Logic
	// Logic - Catalog
	repo := repository.NewCatalogRepository(cfg.ProductsDBPath, cfg.UsersDBPath)
	formatter := display.NewFormatter(cfg.ImageRoot)
	catalogService := service.NewCatalogService(repo, formatter, cfg.DisplayConcurrency)

	// Logic - Try-on
	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, try-on requests will fail until it is configured")
	}
	geminiClient := gemini.NewClient(gemini.Config{
		APIURL: cfg.Gemini.APIURL,
		APIKey: cfg.Gemini.APIKey,
		// Backstop only; each call carries its own deadline.
		Timeout: cfg.Gemini.CallTimeout + 10*time.Second,
	})
	pipeline := tryon.NewPipeline(tryon.Config{
		APIKey:      cfg.Gemini.APIKey,
		TextModel:   cfg.Gemini.TextModel,
		CallTimeout: cfg.Gemini.CallTimeout,
	}, geminiClient, logger)

	h := handler.NewHandler(catalogService, pipeline, logger, handler.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})

	// 3. Setup Server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: h,
	}

	// 4. Run Server with Graceful Shutdown
	go func() {
		logger.Info("starting server", slog.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server exiting")
}
