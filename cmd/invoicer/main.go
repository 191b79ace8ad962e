package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"invoicer/internal/amqp"
	"invoicer/internal/cache"
	"invoicer/internal/cli"
	apphttp "invoicer/internal/http"
	applog "invoicer/internal/log"
	"invoicer/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	assistant, err := cli.NewAssistant(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize AI assistant", applog.FieldError, err)
		os.Exit(1)
	}

	// Leave publisher as a nil interface when AMQP is off.
	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sync messages disabled; the worker sweep will catch up",
				applog.FieldError, err)
		} else {
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP_URL not set, sync messages disabled")
	}

	dashboard := services.NewDashboardService(repo, repo, 100, 5*time.Minute, logger)

	caches := cache.NewManager()
	caches.Register("ai", assistant.Cache())
	caches.Register("dashboard", dashboard.Cache())
	caches.StartCleanup(10 * time.Minute)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Config{
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RateLimitRPM:   cfg.RateLimitRPM,
	}, apphttp.Deps{
		Invoices:  services.NewInvoiceService(repo, assistant, publisher, dashboard, logger),
		Expenses:  services.NewExpenseService(repo, assistant, publisher, dashboard, logger),
		Settings:  services.NewSettingsService(repo, logger),
		Dashboard: dashboard,
		Taxonomy:  assistant.Taxonomy(),
		DB:        repo,
		Caches:    caches,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("Failed to initialize HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		caches.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
		if err := repo.Close(); err != nil {
			logger.Warn("Database close error", applog.FieldError, err)
		}
	})

	go func() {
		logger.Info("Starting invoicer server",
			"port", cfg.Port,
			"ai_enabled", cfg.AIEnabled(),
			"amqp_enabled", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
