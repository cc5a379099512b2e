package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/syncode/syncode/internal/assist"
	"github.com/syncode/syncode/internal/config"
	"github.com/syncode/syncode/internal/execution"
	"github.com/syncode/syncode/internal/logger"
	"github.com/syncode/syncode/internal/room"
	"github.com/syncode/syncode/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addrFlag   = flag.String("addr", "", "listen address (overrides config)")
		configFlag = flag.String("config", "", "path to JSON config file")
		levelFlag  = flag.String("log-level", "", "log level: debug, info, warn, error, none")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	if *levelFlag != "" {
		cfg.LogLevel = *levelFlag
	}

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Global().Close()
	}()

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	queue := execution.NewQueue(engine)

	store := room.NewStore()
	gate := room.NewGate(store, time.Duration(cfg.AccessRequestTTLSeconds)*time.Second)

	var assistant ws.AIAssistant
	if cfg.AnthropicAPIKey != "" {
		a, err := assist.New(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		if err != nil {
			return fmt.Errorf("failed to create AI assistant: %w", err)
		}
		assistant = a
	} else {
		logger.Info("No Anthropic API key configured, AI assistant disabled")
	}

	server := ws.NewServer(cfg, store, gate, queue, assistant)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s (execution mode: %s)", cfg.Addr, cfg.ExecutionMode)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		logger.Info("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	return nil
}

func buildEngine(cfg *config.Config) (execution.Engine, error) {
	switch cfg.ExecutionMode {
	case config.ExecutionModeJudge0:
		return execution.NewJudge0Client(cfg.Judge0Host, cfg.Judge0APIKey), nil
	case config.ExecutionModeLocal:
		return execution.NewLocalRunner(time.Duration(cfg.LocalRunTimeoutSeconds) * time.Second), nil
	default:
		return nil, fmt.Errorf("unknown execution mode %q", cfg.ExecutionMode)
	}
}
