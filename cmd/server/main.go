// Command server runs the translation distribution core as a standalone
// HTTP service backed by SQLite. It exists as a reference deployment; most
// installations embed the module into a host application instead.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	translations "github.com/goliatone/go-translations"
	"github.com/goliatone/go-translations/internal/logging/console"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr          = flag.String("addr", ":8080", "listen address")
		driver        = flag.String("driver", "sqlite3", "database driver (sqlite3|postgres)")
		dsn           = flag.String("db", "file:translations.db?_fk=1", "database DSN")
		defaultLocale = flag.String("default-locale", "en", "default locale code")
		locales       = flag.String("locales", "en", "comma separated enabled locale codes")
		logLevel      = flag.String("log-level", "info", "log level (trace|debug|info|warn|error)")
		logFormat     = flag.String("log-format", "json", "log format (json|console|pretty)")
		realtime      = flag.Bool("realtime", true, "serve the websocket change feed")
		refreshEvery  = flag.Duration("refresh-interval", 5*time.Second, "snapshot refresh worker poll interval")
	)
	flag.Parse()

	cfg := translations.DefaultConfig()
	cfg.Locales.Default = strings.TrimSpace(*defaultLocale)
	cfg.Locales.Enabled = splitCodes(*locales)
	cfg.Features.Realtime = *realtime
	cfg.Logging.Level = *logLevel
	cfg.Logging.Format = *logFormat

	db, err := openDatabase(*driver, *dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := translations.CreateSchema(ctx, db); err != nil {
		return err
	}

	opts := []translations.Option{translations.WithDatabase(db)}
	if *logFormat == "console" || *logFormat == "pretty" {
		min := consoleLevel(*logLevel)
		opts = append(opts, translations.WithLoggerProvider(console.NewProvider(console.Options{
			MinLevel: &min,
		})))
	}

	module, err := translations.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("assemble module: %w", err)
	}
	defer module.Close()

	if err := module.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("seed locales: %w", err)
	}

	mux := http.NewServeMux()
	if err := module.RegisterRoutes(mux); err != nil {
		return err
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// Snapshot refresh jobs queued by publishes run in-process here; embedded
	// deployments own the worker lifecycle themselves.
	go func() {
		if err := module.Worker().Run(ctx, *refreshEvery); err != nil && !errors.Is(err, context.Canceled) {
			errc <- fmt.Errorf("refresh worker: %w", err)
		}
	}()

	logger := module.Container().Logger("translations.server")
	logger.Info("server.listening", "addr", *addr, "locales", cfg.Locales.Enabled, "realtime", cfg.Features.Realtime)

	select {
	case <-ctx.Done():
	case err := <-errc:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server.stopped")
	return nil
}

func openDatabase(driver, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	switch driver {
	case "sqlite3":
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres":
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		sqldb.Close()
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

func consoleLevel(level string) console.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return console.LevelTrace
	case "debug":
		return console.LevelDebug
	case "warn", "warning":
		return console.LevelWarn
	case "error":
		return console.LevelError
	default:
		return console.LevelInfo
	}
}

func splitCodes(raw string) []string {
	parts := strings.Split(raw, ",")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
