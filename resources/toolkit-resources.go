package resources

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/operations"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/storage"
)

const uriScheme = "toolkit://"

// ToolkitResourceHandler serves the results held by the local session as MCP resources
type ToolkitResourceHandler struct {
	sessions *session.Service
}

// NewToolkitResourceHandler creates a resource handler backed by sessions
func NewToolkitResourceHandler(sessions *session.Service) *ToolkitResourceHandler {
	return &ToolkitResourceHandler{sessions: sessions}
}

// ListResources returns the results that currently exist
func (h *ToolkitResourceHandler) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	state, err := h.sessions.State(ctx, session.LocalSessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var resources []mcp.Resource
	for _, uri := range storage.CalculateResourcePaths(state) {
		switch {
		case uri == storage.MergeResultURI:
			resources = append(resources, mcp.Resource{
				URI:         uri,
				Name:        state.Merged.Name,
				Description: "Merged PDF document",
				MIMEType:    session.PDFMIMEType,
			})
		case uri == storage.ConvertTextURI:
			resources = append(resources, mcp.Resource{
				URI:         uri,
				Name:        "extracted-text",
				Description: "Text extracted from the conversion source, including any edits",
				MIMEType:    operations.TxtMIMEType,
			})
		default:
			index, err := splitIndex(uri)
			if err != nil {
				return nil, err
			}
			resources = append(resources, mcp.Resource{
				URI:         uri,
				Name:        state.SplitFiles[index].Name,
				Description: fmt.Sprintf("Split part %d", index+1),
				MIMEType:    session.PDFMIMEType,
			})
		}
	}

	return resources, nil
}

// ReadResource reads a specific resource by URI
func (h *ToolkitResourceHandler) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, fmt.Errorf("invalid URI scheme, expected %s", uriScheme)
	}

	switch {
	case uri == storage.MergeResultURI:
		export, err := h.sessions.MergedOutput(ctx, session.LocalSessionID)
		if err != nil {
			return nil, notFound(uri, err)
		}
		return blobResult(uri, export), nil

	case uri == storage.ConvertTextURI:
		text, err := h.sessions.Text(ctx, session.LocalSessionID)
		if err != nil {
			return nil, notFound(uri, err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: operations.TxtMIMEType,
					Text:     text,
				},
			},
		}, nil

	case strings.HasPrefix(uri, uriScheme+"split/"):
		index, err := splitIndex(uri)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		export, err := h.sessions.SplitOutput(ctx, session.LocalSessionID, index)
		if err != nil {
			return nil, notFound(uri, err)
		}
		return blobResult(uri, export), nil
	}

	return nil, mcp.ResourceNotFoundError(uri)
}

// splitIndex parses the 0-based part index from toolkit://split/{index}
func splitIndex(uri string) (int, error) {
	raw := strings.TrimPrefix(uri, uriScheme+"split/")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid split index: %s", raw)
	}
	return index, nil
}

// notFound reports a missing artifact the way MCP clients expect
func notFound(uri string, err error) error {
	if errors.Is(err, operations.ErrNotFound) {
		return mcp.ResourceNotFoundError(uri)
	}
	return err
}

func blobResult(uri string, export *operations.Export) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: export.MIMEType,
				Blob:     export.Data,
			},
		},
	}
}
