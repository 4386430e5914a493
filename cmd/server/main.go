package main

import (
	"chat-exchange/infrastructure/names"
	"chat-exchange/infrastructure/privatbank"
	"chat-exchange/infrastructure/server"
	"chat-exchange/infrastructure/storage"
	"chat-exchange/internal"
	"chat-exchange/runtime"
	"chat-exchange/runtime/workers"
	"chat-exchange/services"
	"chat-exchange/sink"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 5 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server failure.
// Deferred cleanups (badger, supervisor) run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Rate cache (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(ctx, config, logger))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	rateCache := storage.NewRateCache(db, logger, config.RateCacheTTL)

	// 3. Core components
	registry := runtime.NewRegistry(logger, names.NewGenerator(0))
	hub := runtime.NewHub(logger, config.DeliveryTimeout)
	client := privatbank.NewClient(logger, &http.Client{}, privatbank.Config{
		BaseURL:      config.RatesAPIURL,
		Timeout:      config.FetchTimeout,
		MaxRetries:   config.FetchRetries,
		RetryBackoff: config.RetryBackoff,
	}, rateCache)
	fetcher := runtime.NewRateFetcher(client, logger)
	audit := sink.NewAuditSink(config.AuditLogPath, logger)
	processor := services.NewCommandProcessor(logger, registry, hub, fetcher, audit, config.DeliveryTimeout)

	// 4. Background workers
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(
		workers.NewPingWorker(logger, registry, config.PingInterval, config.DeliveryTimeout),
		workers.NewCacheGCWorker(logger, rateCache, config.CacheGCInterval),
	)
	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()
	defer func() {
		sup.Stop()
		<-supDone
	}()

	// 5. HTTP server
	peers := server.NewPeerHandler(logger, registry, processor, server.PeerHandlerConfig{
		WriteTimeout:   config.DeliveryTimeout,
		PongWait:       config.PongWait,
		MaxMessageSize: int64(config.MaxMessageSize),
	})
	srv := &http.Server{
		Addr:              config.Address(),
		Handler:           server.NewRouter(peers, server.NewHealthHandler(logger, registry)),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting websocket server", "address", srv.Addr, "at", time.Now().UTC())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 7. Graceful shutdown
	// Shutdown ignores hijacked websocket connections, they are closed explicitly below.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Forced shutdown", "error", err)
	}
	for _, peer := range registry.Snapshot() {
		_ = peer.Conn.Close()
	}
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(ctx context.Context, config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if config.InMemoryCache() {
		options = badger.DefaultOptions("").WithInMemory(true)
	}

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}
	return options
}
