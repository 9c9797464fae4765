package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/storage"
)

type ConvertExtractQuery struct{}

type ConvertExtractResponse struct {
	Text         string `json:"text"`
	ResourcePath string `json:"resource_path"`
}

func ConvertExtractTool() *mcp.Tool {
	inputschema, err := jsonschema.For[ConvertExtractQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "convert-extract",
		Description: "Extract the text of every page of the conversion source. Each page starts with a '--- Page N ---' header. Discards earlier edits.",
		InputSchema: inputschema,
	}
}

func ConvertExtractToolHandler(ctx context.Context, req *mcp.CallToolRequest, query ConvertExtractQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *ConvertExtractResponse, error) {
	log.Info("convert-extract tool called")

	text, err := sessions.ExtractText(ctx, session.LocalSessionID)
	if err != nil {
		log.Error("convert-extract tool failed: %v", err)
		return nil, nil, err
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
	return result, &ConvertExtractResponse{Text: text, ResourcePath: storage.ConvertTextURI}, nil
}
