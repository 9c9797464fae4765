package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
)

type MergeSaveQuery struct {
	OutputPath string `json:"output_path,omitempty" jsonschema:"file to write, takes precedence over output_dir"`
	OutputDir  string `json:"output_dir,omitempty" jsonschema:"directory to write merged-document.pdf into, default the working directory"`
}

type SaveResponse struct {
	Paths []string `json:"paths"`
}

func MergeSaveTool() *mcp.Tool {
	inputschema, err := jsonschema.For[MergeSaveQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "merge-save",
		Description: "Write the merged PDF to disk, as output_path or as merged-document.pdf inside output_dir",
		InputSchema: inputschema,
	}
}

func MergeSaveToolHandler(ctx context.Context, req *mcp.CallToolRequest, query MergeSaveQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *SaveResponse, error) {
	log.Info("merge-save tool called")

	export, err := sessions.MergedOutput(ctx, session.LocalSessionID)
	if err != nil {
		log.Error("merge-save tool failed: %v", err)
		return nil, nil, err
	}

	path, err := writeArtifact(export, query.OutputPath, query.OutputDir)
	if err != nil {
		log.Error("merge-save tool failed: %v", err)
		return nil, nil, err
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Wrote %s.", path)},
		},
	}
	return result, &SaveResponse{Paths: []string{path}}, nil
}
