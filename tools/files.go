package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/documents"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/operations"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
)

// SourceFile names a local file or carries its contents inline
type SourceFile struct {
	Path    string `json:"path,omitempty" jsonschema:"local path of a PDF file"`
	Name    string `json:"name,omitempty" jsonschema:"file name to record when raw_data is given"`
	RawData []byte `json:"raw_data,omitempty" jsonschema:"file contents, base64 encoded"`
}

// readSource turns a SourceFile into an upload. Inline data takes precedence over a path.
func readSource(src SourceFile) (session.Upload, error) {
	if src.RawData != nil {
		name := src.Name
		if name == "" && src.Path != "" {
			name = filepath.Base(src.Path)
		}
		if name == "" {
			return session.Upload{}, fmt.Errorf("%w: name is required with raw_data", operations.ErrNoFileProvided)
		}
		return session.Upload{Name: name, Data: src.RawData}, nil
	}

	if src.Path == "" {
		return session.Upload{}, fmt.Errorf("%w: path or raw_data is required", operations.ErrNoFileProvided)
	}
	// Check the extension before touching the file
	if !documents.AllowedFile(src.Path) {
		return session.Upload{}, fmt.Errorf("%w: %s", operations.ErrInvalidExtension, src.Path)
	}
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return session.Upload{}, fmt.Errorf("failed to read %s: %w", src.Path, err)
	}
	name := src.Name
	if name == "" {
		name = filepath.Base(src.Path)
	}
	return session.Upload{Name: name, Data: data}, nil
}

// writeArtifact writes an export to outputPath, or under its own name inside
// outputDir, and returns the absolute path written
func writeArtifact(export *operations.Export, outputPath, outputDir string) (string, error) {
	path := outputPath
	if path == "" {
		dir := outputDir
		if dir == "" {
			dir = "."
		}
		name := documents.SecureFilename(export.Filename)
		if name == "" {
			return "", errors.New("artifact has no usable file name")
		}
		path = filepath.Join(dir, name)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, export.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}
