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

type ConvertSaveQuery struct {
	Format     string `json:"format,omitempty" jsonschema:"txt (default) or docx"`
	OutputPath string `json:"output_path,omitempty" jsonschema:"file to write, takes precedence over output_dir"`
	OutputDir  string `json:"output_dir,omitempty" jsonschema:"directory to write <name>-extracted.<format> into, default the working directory"`
}

func ConvertSaveTool() *mcp.Tool {
	inputschema, err := jsonschema.For[ConvertSaveQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "convert-save",
		Description: "Write the extracted text, or its edited version, to disk as plain text or a Word document with one paragraph per non-blank line",
		InputSchema: inputschema,
	}
}

func ConvertSaveToolHandler(ctx context.Context, req *mcp.CallToolRequest, query ConvertSaveQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *SaveResponse, error) {
	format := query.Format
	if format == "" {
		format = operations.FormatTxt
	}
	log.Info("convert-save tool called with format %s", format)

	export, err := sessions.ExportText(ctx, session.LocalSessionID, format)
	if err != nil {
		log.Error("convert-save tool failed: %v", err)
		return nil, nil, err
	}

	path, err := writeArtifact(export, query.OutputPath, query.OutputDir)
	if err != nil {
		log.Error("convert-save tool failed: %v", err)
		return nil, nil, err
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Wrote %s.", path)},
		},
	}
	return result, &SaveResponse{Paths: []string{path}}, nil
}
