package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fourinarow/internal/config"
	"fourinarow/internal/logger"
	"fourinarow/internal/server"
	"fourinarow/internal/session"
	"fourinarow/internal/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Get()

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Error("open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	mgr := session.NewManager(store)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	// Reap games nobody is playing in
	go mgr.CleanupLoop(ctx, cfg.ReapInterval, cfg.ReapGrace)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.New(mgr, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exited")
}
