package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"preventivi/internal/amqp"
	"preventivi/internal/auth"
	"preventivi/internal/cache"
	"preventivi/internal/config"
	"preventivi/internal/directory"
	gdir "preventivi/internal/directory/google"
	mem "preventivi/internal/directory/memory"
	apphttp "preventivi/internal/http"
	"preventivi/internal/log"
	"preventivi/internal/services"
	"preventivi/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logCfg := log.DefaultConfig()
	logCfg.Component = log.ComponentApp
	logger := log.New(logCfg)
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without it budgets are still saved, only the
	// ledger sync events are skipped.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	janitor := cache.NewJanitor()
	defer janitor.Stop()

	var clients directory.Lookup
	switch cfg.DirectoryBackend {
	case "sheets":
		gc, err := gdir.New(context.Background(), gdir.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			ClientSheet:     cfg.GoogleClientSheet,
			LedgerSheet:     cfg.GoogleLedgerSheet,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CacheTTL:        cfg.DirectoryCacheTTL,
			CacheSize:       cfg.DirectoryCacheMax,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets directory", "error", err)
			os.Exit(1)
		}
		janitor.Register(gc)
		clients = gc
		logger.Info("Initialized Google Sheets directory", "backend", cfg.DirectoryBackend)
	default:
		clients = mem.NewFromFile("data/clienti.txt")
		logger.Info("Initialized memory directory", "backend", cfg.DirectoryBackend)
	}
	janitor.Start(cfg.DirectoryCacheTTL)

	budgetSvc := services.NewBudgetService(repo, amqpClient)
	reportSvc := services.NewReportService(repo)
	authMgr := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiry)

	srv := apphttp.NewServer(":"+cfg.Port, budgetSvc, reportSvc, clients, repo, authMgr)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting preventivi server", "port", cfg.Port, "directory", cfg.DirectoryBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
