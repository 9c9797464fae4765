package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
)

type ConvertUpdateTextQuery struct {
	Text string `json:"text" jsonschema:"replacement for the extracted text, used by convert-save"`
}

type ConvertUpdateTextResponse struct {
	Length int `json:"length"`
}

func ConvertUpdateTextTool() *mcp.Tool {
	inputschema, err := jsonschema.For[ConvertUpdateTextQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "convert-update-text",
		Description: "Replace the extracted text with an edited version",
		InputSchema: inputschema,
	}
}

func ConvertUpdateTextToolHandler(ctx context.Context, req *mcp.CallToolRequest, query ConvertUpdateTextQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *ConvertUpdateTextResponse, error) {
	log.Info("convert-update-text tool called")

	if err := sessions.UpdateText(ctx, session.LocalSessionID, query.Text); err != nil {
		log.Error("convert-update-text tool failed: %v", err)
		return nil, nil, err
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Saved %d characters of edited text.", len([]rune(query.Text)))},
		},
	}
	return result, &ConvertUpdateTextResponse{Length: len([]rune(query.Text))}, nil
}
