package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/synapse-live/relay-service/config"
	"github.com/synapse-live/relay-service/internal/logger"
	"github.com/synapse-live/relay-service/internal/room"
	httpx "github.com/synapse-live/relay-service/internal/transport/http"
	"github.com/synapse-live/relay-service/internal/transport/ws"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	lg := logger.L()
	lg.Info("starting relay-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- room registry & WS server ---
	registry := room.NewRegistry(cfg.Room.Backlog)
	wsServer := ws.NewServer(registry, ws.Config{
		PingInterval:   cfg.WS.PingIntervalDuration(),
		MaxMessageSize: cfg.WS.MaxMessageSize,
		RatePerSecond:  cfg.WS.Rate.PerSecond,
		RateBurst:      cfg.WS.Rate.Burst,
	})

	// --- HTTP ---
	router := httpx.NewRouter(wsServer, registry, cfg.Logging.Service, cfg.Logging.Version)
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		lg.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		lg.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		lg.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	lg.Info("stopped")
}
