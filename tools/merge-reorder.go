package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
)

type MergeReorderQuery struct {
	From int `json:"from" jsonschema:"current 0-based position of the file"`
	To   int `json:"to" jsonschema:"0-based position to move the file to"`
}

type MergeReorderResponse struct {
	Order []string `json:"order"`
}

func MergeReorderTool() *mcp.Tool {
	inputschema, err := jsonschema.For[MergeReorderQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "merge-reorder",
		Description: "Move one file in the merge list from one position to another",
		InputSchema: inputschema,
	}
}

func MergeReorderToolHandler(ctx context.Context, req *mcp.CallToolRequest, query MergeReorderQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *MergeReorderResponse, error) {
	log.Info("merge-reorder tool called: %d -> %d", query.From, query.To)

	if err := sessions.ReorderMerge(ctx, session.LocalSessionID, query.From, query.To); err != nil {
		log.Error("merge-reorder tool failed: %v", err)
		return nil, nil, err
	}

	state, err := sessions.State(ctx, session.LocalSessionID)
	if err != nil {
		return nil, nil, err
	}
	order := make([]string, 0, len(state.MergeFiles))
	for _, f := range state.MergeFiles {
		order = append(order, f.Name)
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Moved file %d to position %d.", query.From, query.To)},
		},
	}
	return result, &MergeReorderResponse{Order: order}, nil
}
