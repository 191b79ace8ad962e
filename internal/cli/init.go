// Package cli provides common initialization utilities shared by
// cmd/invoicer, cmd/invoicer-worker and cmd/invoicectl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"invoicer/internal/ai"
	"invoicer/internal/config"
	applog "invoicer/internal/log"
	"invoicer/internal/sheets"
	"invoicer/internal/sheets/google"
	"invoicer/internal/sheets/memory"
	"invoicer/internal/storage"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	lc := applog.DefaultConfig()
	lc.Level = applog.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Component = component
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads .env and the environment, sets up logging and
// validates. It exits the process on validation failure.
func LoadAndValidateConfig(component string) (*config.Config, *applog.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// NewAssistant builds the AI assistant. Without an API key it runs with the
// model disabled and every call answers with its fallback.
func NewAssistant(cfg *config.Config, logger *applog.Logger) (*ai.Assistant, error) {
	taxonomy, err := ai.LoadTaxonomy(cfg.CategoriesFile)
	if err != nil {
		return nil, err
	}

	var completer ai.Completer
	if cfg.AIEnabled() {
		completer, err = ai.NewOpenAIClient(ai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.AITimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
	} else {
		logger.Warn("OPENAI_API_KEY not set, AI features use static fallbacks")
	}

	return ai.NewAssistant(completer, taxonomy, ai.Options{
		CacheSize: cfg.AICacheSize,
		CacheTTL:  cfg.AICacheTTL,
		Timeout:   cfg.AITimeout,
	}, logger), nil
}

// NewExporter returns the Google Sheets exporter when a spreadsheet is
// configured and the in-memory store otherwise.
func NewExporter(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.Exporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, exporting to in-memory store")
		return memory.New(), nil
	}
	return google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		InvoicesSheet:   cfg.GoogleInvoicesSheet,
		ExpensesSheet:   cfg.GoogleExpensesSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs once after the signal, bounded by timeout; done closes when it returns.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
