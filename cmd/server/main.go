/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, optional YAML file)
  2. Initialize structured logging
  3. Initialize SQLite store
  4. Build the holiday calendar (national + custom) and the calculator
  5. Start the background holiday refresher
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -addr    Listen address (overrides APP_ADDR)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database

HOLIDAY SOURCES:
  computed  National holidays computed locally (default)
  remote    Nager.Date public holiday API (paced by HOLIDAY_API_RPS),
            falling back to the computed calendar when the API is
            unreachable
  Custom holidays stored in the database are always added on top.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the holiday refresher
  4. Close database connection

EXAMPLES:
  ./server -db="./data/payroll.db"
  HOLIDAY_SOURCE=remote LOG_LEVEL=debug ./server -addr=:3000
  CONFIG_FILE=rates-2025.yaml ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags
	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()
	cfg.Addr, cfg.DBPath = *addr, *dbPath

	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	provider := calendar.NewProvider(
		calendar.Union(nationalHolidays(cfg), store),
		calendar.WithLogger(logger),
		calendar.WithFetchTimeout(cfg.HolidayFetchTimeout),
	)

	calc := payroll.NewCalculator(cfg.Rates, cfg.Legal, provider)
	calc.Logger = logger
	calc.BatchConcurrency = cfg.BatchConcurrency

	handler := api.NewHandler(store, calc, provider, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		Logger:             logger,
		AllowedOrigins:     cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MaxBodyBytes:       cfg.MaxBodyBytes,
	})

	refresher := api.NewHolidayRefresher(provider, logger)
	refresher.Timeout = cfg.HolidayFetchTimeout
	refresher.Start()
	defer refresher.Stop()

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", cfg.Addr,
			"db", cfg.DBPath,
			"holiday_source", cfg.HolidaySource)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// nationalHolidays builds the national holiday source for cfg.
func nationalHolidays(cfg config.Config) calendar.Source {
	if cfg.HolidaySource != config.HolidaySourceRemote {
		return calendar.Colombia()
	}
	remote := calendar.NewNager(cfg.HolidayAPIURL, cfg.HolidayCountry,
		calendar.WithHTTPClient(&http.Client{Timeout: cfg.HolidayFetchTimeout}),
		// Burst of two covers the refresher's current and next year.
		calendar.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.HolidayAPIRate), 2)))
	return calendar.Fallback(remote, calendar.Colombia())
}
