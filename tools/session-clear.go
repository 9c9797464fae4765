package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
)

type SessionClearQuery struct {
	Section string `json:"section" jsonschema:"merge, split or convert"`
}

type SessionClearResponse struct {
	Cleared string `json:"cleared"`
}

func SessionClearTool() *mcp.Tool {
	inputschema, err := jsonschema.For[SessionClearQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "session-clear",
		Description: "Discard one section of the session (merge, split or convert) and delete its files. Other sections are kept.",
		InputSchema: inputschema,
	}
}

func SessionClearToolHandler(ctx context.Context, req *mcp.CallToolRequest, query SessionClearQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *SessionClearResponse, error) {
	log.Info("session-clear tool called for %q", query.Section)

	if err := sessions.Clear(ctx, session.LocalSessionID, query.Section); err != nil {
		log.Error("session-clear tool failed: %v", err)
		return nil, nil, err
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Cleared the %s section.", query.Section)},
		},
	}
	return result, &SessionClearResponse{Cleared: query.Section}, nil
}
