package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tradejournal/internal/config"
	apphttp "tradejournal/internal/http"
	"tradejournal/internal/insights"
	applog "tradejournal/internal/log"
	"tradejournal/internal/services"
	"tradejournal/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The Gemini collaborator is optional; without it insights degrade to
	// placeholder text.
	var generator services.NarrativeGenerator
	if cfg.InsightsEnabled() {
		gemini, err := insights.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Failed to initialize Gemini client, insights disabled", applog.FieldError, err.Error())
		} else {
			generator = gemini
			logger.Info("Gemini insights enabled", "model", cfg.GeminiModel)
		}
	} else {
		logger.Info("Gemini insights not configured")
	}

	accountService := services.NewAccountService(repo, logger, cfg.SessionTTL)
	ledgerService := services.NewLedgerService(repo, logger)
	insightService := services.NewInsightService(generator, logger, cfg.InsightTimeout)

	srv := apphttp.NewServer(":"+cfg.Port, accountService, ledgerService, insightService, cfg.SecureCookie)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Expired sessions are swept in the background; login and logout do
	// not depend on this.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := repo.CleanExpiredSessions(ctx); err != nil {
					logger.Warn("Session cleanup failed", applog.FieldError, err.Error())
				}
			}
		}
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("Starting tradejournal server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
