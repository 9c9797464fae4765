package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/api"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/config"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/server"
)

func main() {
	// The HTTP server logs to stderr unless LOG_OUTPUT says otherwise
	output := os.Getenv("LOG_OUTPUT")
	if output == "" {
		output = "stderr"
	}
	log, err := logger.NewLogger(logger.LogConfig{Output: output})
	if err != nil {
		panic(err)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("Invalid configuration: %v", err)
	}

	// Flags override the environment
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite session database path, or :memory:")
	flag.StringVar(&cfg.ScratchDir, "scratch", cfg.ScratchDir, "directory for uploaded and generated files (default: a new temp dir)")
	flag.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "how long an idle session is kept")
	flag.Int64Var(&cfg.MaxUploadBytes, "max-upload", cfg.MaxUploadBytes, "maximum request body size in bytes")
	flag.IntVar(&cfg.MaxWorkers, "workers", cfg.MaxWorkers, "maximum concurrent PDF operations")
	flag.DurationVar(&cfg.JanitorInterval, "janitor-interval", cfg.JanitorInterval, "how often expired sessions are purged")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: %v", err)
	}

	log.Info("Starting pdf-toolkit HTTP server")

	sessions, cleanup, err := server.NewSessionService(log, cfg)
	if err != nil {
		log.Fatal("Failed to initialize sessions: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(sessions, cfg.MaxUploadBytes, log)
	if err := srv.ListenAndServe(ctx, cfg.Addr, cfg.JanitorInterval); err != nil {
		log.Error("Server failed: %v", err)
		cleanup()
		os.Exit(1)
	}
}
