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

type MergeAddQuery struct {
	Files []SourceFile `json:"files" jsonschema:"PDF files to append to the merge list, in order"`
}

type MergeAddResponse struct {
	Added      []models.UploadRecord `json:"added"`
	MergeFiles []models.UploadRecord `json:"merge_files"`
}

func MergeAddTool() *mcp.Tool {
	inputschema, err := jsonschema.For[MergeAddQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "merge-add",
		Description: "Add one or more PDF files to the end of the merge list. Every file must have a .pdf name; if any does not, nothing is added.",
		InputSchema: inputschema,
	}
}

func MergeAddToolHandler(ctx context.Context, req *mcp.CallToolRequest, query MergeAddQuery, sessions *session.Service, log logger.Logger) (*mcp.CallToolResult, *MergeAddResponse, error) {
	log.Info("merge-add tool called with %d files", len(query.Files))

	uploads := make([]session.Upload, 0, len(query.Files))
	for _, src := range query.Files {
		upload, err := readSource(src)
		if err != nil {
			log.Error("merge-add tool failed: %v", err)
			return nil, nil, err
		}
		uploads = append(uploads, upload)
	}

	added, err := sessions.AddMergeFiles(ctx, session.LocalSessionID, uploads)
	if err != nil {
		log.Error("merge-add tool failed: %v", err)
		return nil, nil, err
	}

	state, err := sessions.State(ctx, session.LocalSessionID)
	if err != nil {
		return nil, nil, err
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Added %d files. The merge list now holds %d files.", len(added), len(state.MergeFiles)),
			},
		},
	}
	return result, &MergeAddResponse{Added: added, MergeFiles: state.MergeFiles}, nil
}
