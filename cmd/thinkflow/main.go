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

	"thinkflow/internal/config"
	"thinkflow/internal/genai"
	"thinkflow/internal/repository"
	"thinkflow/internal/retrospect"
	"thinkflow/internal/scheduler"
	"thinkflow/internal/server"
)

func main() {
	cfg := config.Load()

	addrFlag := flag.String("addr", cfg.Addr, "HTTP listen address")
	dbFlag := flag.String("db", cfg.DBPath, "Path to sqlite database file")
	staticFlag := flag.String("static", cfg.StaticDir, "Directory with built frontend")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	db, err := repository.NewDB(*dbFlag)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var generator genai.TextGenerator
	if cfg.GenAIAPIKey != "" {
		opts := []genai.Option{genai.WithLogger(logger)}
		if cfg.GenAIBaseURL != "" {
			opts = append(opts, genai.WithBaseURL(cfg.GenAIBaseURL))
		}
		generator = genai.New(cfg.GenAIAPIKey, cfg.GenAIModel, opts...)
		logger.Info("draft generation backend enabled", slog.String("model", cfg.GenAIModel))
	} else {
		logger.Info("no generation backend configured; using template drafts")
	}

	retro := retrospect.NewService(db, generator, logger)

	srv := server.New(server.Options{
		DB:             db,
		Retrospect:     retro,
		Logger:         logger,
		StaticDir:      *staticFlag,
		DefaultActorID: cfg.DefaultActorID,
	})

	recurrence := scheduler.NewRecurrence(db, logger)
	if cfg.RecurrenceInterval > 0 {
		if err := recurrence.Start(cfg.RecurrenceInterval); err != nil {
			logger.Error("unable to start recurrence scheduler", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer recurrence.Stop()
	}

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
