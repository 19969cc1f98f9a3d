package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ptscope/ptscope/pkg/config"
	"github.com/ptscope/ptscope/pkg/mockapi"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	addr := flag.String("addr", "", "Listen address (overrides PTS_MOCK_ADDR)")
	dbPath := flag.String("db", "", "SQLite database path (overrides PTS_MOCK_DB)")
	dataPath := flag.String("data", "", "JSONL dataset to seed from (overrides PTS_DATA_PATH)")
	seed := flag.Int("seed", 0, "Number of synthetic trials to generate when no dataset is given (overrides PTS_MOCK_SEED)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *addr != "" {
		cfg.MockAddr = *addr
	}
	if *dbPath != "" {
		cfg.MockDB = *dbPath
	}
	if *dataPath != "" {
		cfg.DataPath = *dataPath
	}
	if *seed > 0 {
		cfg.MockSeed = *seed
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := mockapi.New(mockapi.Config{
		DBPath:    cfg.MockDB,
		DataPath:  cfg.DataPath,
		SeedCount: cfg.MockSeed,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start mock analytics service")
	}

	count, err := server.Count()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to count trials")
	}

	srv := &http.Server{
		Addr:              cfg.MockAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.MockAddr).Int64("trials", count).Msg("mock analytics service starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("http server error")
	}

	logger.Info().Msg("mock analytics service stopped")
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
