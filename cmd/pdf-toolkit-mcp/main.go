package main

import (
	"context"
	"os"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/config"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/storage"
	"github.com/Epistemic-Technology/pdf-toolkit/server"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	// Initialize logger with default configuration
	log, err := logger.NewLogger(logger.LogConfig{})
	if err != nil {
		// Fall back to stderr if logger initialization fails
		panic(err)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("Invalid configuration: %v", err)
	}
	// Sessions only persist across restarts when a database is named explicitly
	if os.Getenv("PDF_TOOLKIT_DB_PATH") == "" {
		cfg.DBPath = storage.InMemoryDB
	}

	log.Info("Starting pdf-toolkit MCP server")

	srv, cleanup := server.CreateServer(log, cfg)
	defer cleanup()

	err = srv.Run(context.Background(), &mcp.StdioTransport{})
	if err != nil {
		log.Error("Server failed: %v", err)
		cleanup()
		os.Exit(1)
	}
}
