package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"kopdes/internal/config"
	"kopdes/internal/events"
	apphttp "kopdes/internal/http"
	"kopdes/internal/recognize"
	"kopdes/internal/sheets"
	"kopdes/internal/storage"
	"kopdes/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Load and validate configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := newLogger(cfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("Starting kopdes server", "port", cfg.Port)

	// Initialize the snapshot repository and restore the last state
	repo, err := storage.NewSnapshotRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize snapshot repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	st := store.New()
	snapshot, found, err := repo.Load(context.Background())
	if err != nil {
		logger.Error("Failed to load snapshot", "error", err)
		os.Exit(1)
	}
	if found {
		st.Install(snapshot)
		logger.Info("Snapshot restored", "locations", len(snapshot))
	} else {
		logger.Info("No saved snapshot, starting empty")
	}

	// Debounced persistence
	saver := store.NewAutoSaver(st, repo.Save, cfg.SaveDebounce, logger)

	// Change events (optional)
	var eventsClient *events.Client
	if cfg.AMQPURL != "" {
		eventsClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer eventsClient.Close()
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	st.OnChange(func(locationID int, version uint64) {
		saver.Notify(locationID, version)
		if eventsClient != nil {
			// Publish failures must not block or roll back the mutation.
			if err := eventsClient.PublishProjectChanged(context.Background(), locationID, version); err != nil {
				logger.Error("Failed to publish change event",
					"error", err, "location_id", locationID, "version", version)
			}
		}
	})

	opts := apphttp.Options{
		ImportSheetName: cfg.GoogleImportSheetName,
		ScanConcurrency: cfg.ScanConcurrency,
	}

	// Google Sheets import source (optional)
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := sheets.New(context.Background(), cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		opts.SheetReader = sheetsClient
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Sheet import disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// Receipt recognition (optional)
	if cfg.GeminiAPIKey != "" {
		opts.Recognizer = recognize.NewGeminiRecognizer(cfg.GeminiAPIKey, cfg.GeminiModel)
		logger.Info("Receipt recognition initialized", "model", cfg.GeminiModel)
	} else {
		logger.Info("Receipt recognition disabled - no GEMINI_API_KEY provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, st, opts)

	// Configure server timeouts and limits
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 90 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
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

		// Persist whatever the debounce window was still holding.
		if err := saver.Flush(shutdownCtx); err != nil {
			logger.Error("Final snapshot save failed", "error", err)
		}
		cancel()
	}()

	logger.Info("Server listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

func newLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	switch format {
	case "pretty":
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
}
