package server

import (
	"context"
	"fmt"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/config"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/operations"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/storage"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/throttle"
	"github.com/Epistemic-Technology/pdf-toolkit/resources"
	"github.com/Epistemic-Technology/pdf-toolkit/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CreateServer builds the MCP server. The returned cleanup closes the session
// store and removes scratch files once the server has stopped.
func CreateServer(log logger.Logger, cfg config.Config) (*mcp.Server, func()) {
	server := mcp.NewServer(&mcp.Implementation{Name: "pdf-toolkit", Version: "v1.0.0"}, nil)

	sessions, cleanup, err := NewSessionService(log, cfg)
	if err != nil {
		log.Fatal("Failed to initialize sessions: %v", err)
	}

	RegisterTools(server, sessions, log)
	RegisterResources(server, resources.NewToolkitResourceHandler(sessions))

	return server, cleanup
}

// RegisterTools adds every toolkit tool to server
func RegisterTools(server *mcp.Server, sessions *session.Service, log logger.Logger) {
	// Merge
	mcp.AddTool(server, tools.MergeAddTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.MergeAddQuery) (*mcp.CallToolResult, *tools.MergeAddResponse, error) {
		return tools.MergeAddToolHandler(ctx, req, query, sessions, log)
	})

	mcp.AddTool(server, tools.MergeReorderTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.MergeReorderQuery) (*mcp.CallToolResult, *tools.MergeReorderResponse, error) {
		return tools.MergeReorderToolHandler(ctx, req, query, sessions, log)
	})

	mcp.AddTool(server, tools.MergeProcessTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.MergeProcessQuery) (*mcp.CallToolResult, *tools.MergeProcessResponse, error) {
		return tools.MergeProcessToolHandler(ctx, req, query, sessions, log)
	})

	mcp.AddTool(server, tools.MergeSaveTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.MergeSaveQuery) (*mcp.CallToolResult, *tools.SaveResponse, error) {
		return tools.MergeSaveToolHandler(ctx, req, query, sessions, log)
	})

	// Split
	mcp.AddTool(server, tools.SplitSetSourceTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.SplitSetSourceQuery) (*mcp.CallToolResult, *tools.UploadResponse, error) {
		return tools.SplitSetSourceToolHandler(ctx, req, query, sessions, log)
	})

	mcp.AddTool(server, tools.SplitProcessTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.SplitProcessQuery) (*mcp.CallToolResult, *tools.SplitProcessResponse, error) {
		return tools.SplitProcessToolHandler(ctx, req, query, sessions, log)
	})

	mcp.AddTool(server, tools.SplitSaveTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.SplitSaveQuery) (*mcp.CallToolResult, *tools.SaveResponse, error) {
		return tools.SplitSaveToolHandler(ctx, req, query, sessions, log)
	})

	// Convert
	mcp.AddTool(server, tools.ConvertSetSourceTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.ConvertSetSourceQuery) (*mcp.CallToolResult, *tools.UploadResponse, error) {
		return tools.ConvertSetSourceToolHandler(ctx, req, query, sessions, log)
	})

	mcp.AddTool(server, tools.ConvertExtractTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.ConvertExtractQuery) (*mcp.CallToolResult, *tools.ConvertExtractResponse, error) {
		return tools.ConvertExtractToolHandler(ctx, req, query, sessions, log)
	})

	mcp.AddTool(server, tools.ConvertUpdateTextTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.ConvertUpdateTextQuery) (*mcp.CallToolResult, *tools.ConvertUpdateTextResponse, error) {
		return tools.ConvertUpdateTextToolHandler(ctx, req, query, sessions, log)
	})

	mcp.AddTool(server, tools.ConvertSaveTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.ConvertSaveQuery) (*mcp.CallToolResult, *tools.SaveResponse, error) {
		return tools.ConvertSaveToolHandler(ctx, req, query, sessions, log)
	})

	// Session
	mcp.AddTool(server, tools.SessionClearTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.SessionClearQuery) (*mcp.CallToolResult, *tools.SessionClearResponse, error) {
		return tools.SessionClearToolHandler(ctx, req, query, sessions, log)
	})

	mcp.AddTool(server, tools.SessionStatusTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.SessionStatusQuery) (*mcp.CallToolResult, *tools.SessionStatusResponse, error) {
		return tools.SessionStatusToolHandler(ctx, req, query, sessions, log)
	})
}

// RegisterResources exposes session results through handler
func RegisterResources(server *mcp.Server, handler *resources.ToolkitResourceHandler) {
	read := func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return handler.ReadResource(ctx, req.Params.URI)
	}

	server.AddResource(&mcp.Resource{
		URI:         storage.MergeResultURI,
		Name:        "merge-result",
		Description: "The most recent merged PDF",
		MIMEType:    session.PDFMIMEType,
	}, read)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: storage.SplitPartURITpl,
		Name:        "split-part",
		Description: "One part of the most recent split (0-indexed)",
		MIMEType:    session.PDFMIMEType,
	}, read)

	server.AddResource(&mcp.Resource{
		URI:         storage.ConvertTextURI,
		Name:        "convert-text",
		Description: "Extracted text, or its edited version when one was saved",
		MIMEType:    operations.TxtMIMEType,
	}, read)
}

// NewSessionService creates the session store, scratch storage and page gate
func NewSessionService(log logger.Logger, cfg config.Config) (*session.Service, func(), error) {
	log.Info("Initializing SQLite session store at: %s", cfg.DBPath)

	store, err := storage.NewSQLiteStore(cfg.DBPath, cfg.SessionTTL, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create SQLite store: %w", err)
	}

	scratch, err := storage.NewFileScratch(cfg.ScratchDir, log)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to create scratch storage: %w", err)
	}
	log.Info("Storing session files in: %s", scratch.Dir())

	gate := throttle.NewGate(cfg.PagesPerSecond, cfg.BurstPages, cfg.MaxWorkers)
	sessions := session.NewService(store, scratch, gate, log)

	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn("Failed to close session store: %v", err)
		}
		// A configured scratch directory outlives the process so a file-backed
		// session store stays consistent with it.
		if cfg.ScratchDir == "" {
			if err := scratch.RemoveAll(); err != nil {
				log.Warn("Failed to remove scratch directory: %v", err)
			}
		}
	}
	return sessions, cleanup, nil
}
