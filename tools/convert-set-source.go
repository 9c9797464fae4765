package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
)

type ConvertSetSourceQuery struct {
	Path    string `json:"path,omitempty" jsonschema:"local path of the PDF to convert"`
	Name    string `json:"name,omitempty" jsonschema:"file name to record when raw_data is given"`
	RawData []byte `json:"raw_data,omitempty" jsonschema:"PDF contents, base64 encoded"`
}

func ConvertSetSourceTool() *mcp.Tool {
	inputschema, err := jsonschema.For[ConvertSetSourceQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "convert-set-source",
		Description: "Choose the PDF whose text will be extracted. The file is not read until convert-extract runs.",
		InputSchema: inputschema,
	}
}

func ConvertSetSourceToolHandler(ctx context.Context, req *mcp.CallToolRequest, query ConvertSetSourceQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *UploadResponse, error) {
	log.Info("convert-set-source tool called")

	upload, err := readSource(SourceFile{Path: query.Path, Name: query.Name, RawData: query.RawData})
	if err != nil {
		log.Error("convert-set-source tool failed: %v", err)
		return nil, nil, err
	}

	record, err := sessions.SetConvertSource(ctx, session.LocalSessionID, upload)
	if err != nil {
		log.Error("convert-set-source tool failed: %v", err)
		return nil, nil, err
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Conversion source set to %s (%s).", record.Name, record.SizeFormatted)},
		},
	}
	return result, &UploadResponse{File: record}, nil
}
