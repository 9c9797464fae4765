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

type SessionStatusQuery struct{}

type SessionStatusResponse struct {
	Session       *models.SessionInfo `json:"session"`
	ResourcePaths []string `json:"resource_paths"`
}

func SessionStatusTool() *mcp.Tool {
	inputschema, err := jsonschema.For[SessionStatusQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "session-status",
		Description: "Show the merge list, split source and parts, conversion source, and which results can be read as resources",
		InputSchema: inputschema,
	}
}

func SessionStatusToolHandler(ctx context.Context, req *mcp.CallToolRequest, query SessionStatusQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *SessionStatusResponse, error) {
	log.Info("session-status tool called")

	state, err := sessions.State(ctx, session.LocalSessionID)
	if err != nil {
		log.Error("session-status tool failed: %v", err)
		return nil, nil, err
	}
	info, err := sessions.Info(ctx, session.LocalSessionID)
	if err != nil {
		log.Error("session-status tool failed: %v", err)
		return nil, nil, err
	}

	resourcePaths := storage.CalculateResourcePaths(state)
	if resourcePaths == nil {
		resourcePaths = []string{}
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("%d files queued for merging, %d split parts, text extracted: %t.",
					len(info.MergeFiles), len(info.SplitFiles), info.HasText),
			},
		},
	}
	return result, &SessionStatusResponse{Session: info, ResourcePaths: resourcePaths}, nil
}
