package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/storage"
	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

type SplitProcessQuery struct {
	Mode         string             `json:"mode,omitempty" jsonschema:"individual (default), ranges or custom"`
	PagesPerFile *int               `json:"pages_per_file,omitempty" jsonschema:"pages per part in ranges mode, default 2"`
	Ranges       []models.PageRange `json:"ranges,omitempty" jsonschema:"1-based inclusive page ranges for custom mode"`
}

type SplitProcessResponse struct {
	Files         []string `json:"files"`
	ResourcePaths []string `json:"resource_paths"`
}

func SplitProcessTool() *mcp.Tool {
	inputschema, err := jsonschema.For[SplitProcessQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "split-process",
		Description: "Split the split source into parts: one file per page (individual), fixed-size chunks (ranges) or caller-chosen page ranges (custom). Out-of-range pages are clamped silently. Replaces any previous parts.",
		InputSchema: inputschema,
	}
}

func SplitProcessToolHandler(ctx context.Context, req *mcp.CallToolRequest, query SplitProcessQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *SplitProcessResponse, error) {
	log.Info("split-process tool called with mode %q", query.Mode)

	names, err := sessions.ProcessSplit(ctx, session.LocalSessionID, models.SplitRequest{
		Mode:         query.Mode,
		PagesPerFile: query.PagesPerFile,
		Ranges:       query.Ranges,
	})
	if err != nil {
		log.Error("split-process tool failed: %v", err)
		return nil, nil, err
	}

	resourcePaths := make([]string, 0, len(names))
	for i := range names {
		resourcePaths = append(resourcePaths, fmt.Sprintf(storage.SplitPartURIFmt, i))
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Split into %d files. Use split-save to write them to disk.", len(names))},
		},
	}
	return result, &SplitProcessResponse{Files: names, ResourcePaths: resourcePaths}, nil
}
