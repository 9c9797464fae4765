package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/documents"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
)

const (
	scratchDirPrefix = "pdf_toolkit_"
	defaultNameHint  = "file"
)

// FileScratch implements Scratch on a directory shared by all sessions
type FileScratch struct {
	dir string
	log logger.Logger
}

// NewFileScratch creates a scratch store rooted at dir. An empty dir creates a
// fresh temporary directory.
func NewFileScratch(dir string, log logger.Logger) (*FileScratch, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", scratchDirPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	log.Debug("Scratch storage at: %s", dir)
	return &FileScratch{dir: dir, log: log}, nil
}

// Dir returns the directory holding the stored files
func (s *FileScratch) Dir() string {
	return s.dir
}

// Put stores data under a new reference
func (s *FileScratch) Put(ctx context.Context, data []byte, nameHint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate storage reference: %w", err)
	}
	hint := documents.SecureFilename(nameHint)
	if hint == "" {
		hint = defaultNameHint
	}
	ref := id + "_" + hint

	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", ref, err)
	}
	return ref, nil
}

// Get reads the bytes stored under ref
func (s *FileScratch) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return data, nil
}

// Purge removes the file stored under ref
func (s *FileScratch) Purge(ctx context.Context, ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", ref, err)
	}
	return nil
}

// RemoveAll deletes the scratch directory and everything in it
func (s *FileScratch) RemoveAll() error {
	return os.RemoveAll(s.dir)
}

// path resolves a reference inside the scratch directory, refusing anything
// that could point outside it
func (s *FileScratch) path(ref string) (string, error) {
	if ref == "" || strings.ContainsAny(ref, `/\`) || strings.Contains(ref, "..") {
		return "", fmt.Errorf("%w: %q", ErrObjectNotFound, ref)
	}
	return filepath.Join(s.dir, ref), nil
}

var _ Scratch = (*FileScratch)(nil)
