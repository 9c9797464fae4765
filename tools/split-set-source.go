package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

type SplitSetSourceQuery struct {
	Path    string `json:"path,omitempty" jsonschema:"local path of the PDF to split"`
	Name    string `json:"name,omitempty" jsonschema:"file name to record when raw_data is given"`
	RawData []byte `json:"raw_data,omitempty" jsonschema:"PDF contents, base64 encoded"`
}

type UploadResponse struct {
	File *models.UploadRecord `json:"file"`
}

func SplitSetSourceTool() *mcp.Tool {
	inputschema, err := jsonschema.For[SplitSetSourceQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "split-set-source",
		Description: "Choose the PDF to split, from a local path or inline raw_data. Replaces the previous split source.",
		InputSchema: inputschema,
	}
}

func SplitSetSourceToolHandler(ctx context.Context, req *mcp.CallToolRequest, query SplitSetSourceQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *UploadResponse, error) {
	log.Info("split-set-source tool called")

	upload, err := readSource(SourceFile{Path: query.Path, Name: query.Name, RawData: query.RawData})
	if err != nil {
		log.Error("split-set-source tool failed: %v", err)
		return nil, nil, err
	}

	record, err := sessions.SetSplitSource(ctx, session.LocalSessionID, upload)
	if err != nil {
		log.Error("split-set-source tool failed: %v", err)
		return nil, nil, err
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Split source set to %s (%s, %d pages).", record.Name, record.SizeFormatted, *record.Pages),
			},
		},
	}
	return result, &UploadResponse{File: record}, nil
}
