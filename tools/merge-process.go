package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/storage"
)

type MergeProcessQuery struct{}

type MergeProcessResponse struct {
	Name         string `json:"name"`
	ResourcePath string `json:"resource_path"`
}

func MergeProcessTool() *mcp.Tool {
	inputschema, err := jsonschema.For[MergeProcessQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "merge-process",
		Description: "Merge every file in the merge list, in list order, into one PDF. Needs at least 2 files. Replaces any previous merge result.",
		InputSchema: inputschema,
	}
}

func MergeProcessToolHandler(ctx context.Context, req *mcp.CallToolRequest, query MergeProcessQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *MergeProcessResponse, error) {
	log.Info("merge-process tool called")

	output, err := sessions.ProcessMerge(ctx, session.LocalSessionID)
	if err != nil {
		log.Error("merge-process tool failed: %v", err)
		return nil, nil, err
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Merged PDF %s is available at %s. Use merge-save to write it to disk.", output.Name, storage.MergeResultURI),
			},
		},
	}
	return result, &MergeProcessResponse{Name: output.Name, ResourcePath: storage.MergeResultURI}, nil
}
