package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/operations"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
)

type SplitSaveQuery struct {
	Index      *int   `json:"index,omitempty" jsonschema:"0-based part to save; all parts are saved when omitted"`
	OutputPath string `json:"output_path,omitempty" jsonschema:"file to write, only valid together with index"`
	OutputDir  string `json:"output_dir,omitempty" jsonschema:"directory to write parts into under their own names, default the working directory"`
}

func SplitSaveTool() *mcp.Tool {
	inputschema, err := jsonschema.For[SplitSaveQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "split-save",
		Description: "Write split parts to disk: one part by index, or every part into output_dir",
		InputSchema: inputschema,
	}
}

func SplitSaveToolHandler(ctx context.Context, req *mcp.CallToolRequest, query SplitSaveQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *SaveResponse, error) {
	log.Info("split-save tool called")

	var indices []int
	if query.Index != nil {
		indices = []int{*query.Index}
	} else {
		if query.OutputPath != "" {
			return nil, nil, fmt.Errorf("%w: output_path needs an index", operations.ErrInvalidArgument)
		}
		state, err := sessions.State(ctx, session.LocalSessionID)
		if err != nil {
			return nil, nil, err
		}
		if len(state.SplitFiles) == 0 {
			return nil, nil, fmt.Errorf("%w: no split files available", operations.ErrNotFound)
		}
		for i := range state.SplitFiles {
			indices = append(indices, i)
		}
	}

	var paths []string
	for _, i := range indices {
		export, err := sessions.SplitOutput(ctx, session.LocalSessionID, i)
		if err != nil {
			log.Error("split-save tool failed: %v", err)
			return nil, nil, err
		}
		path, err := writeArtifact(export, query.OutputPath, query.OutputDir)
		if err != nil {
			log.Error("split-save tool failed: %v", err)
			return nil, nil, err
		}
		paths = append(paths, path)
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Wrote %d files.", len(paths))},
		},
	}
	return result, &SaveResponse{Paths: paths}, nil
}
