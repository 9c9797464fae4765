package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/documents"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/operations"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/storage"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/testutil"
)

func newTestSessions(t *testing.T) *session.Service {
	t.Helper()
	log := logger.NewNoOpLogger()
	store, err := storage.NewSQLiteStore(storage.InMemoryDB, 0, log)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	scratch, err := storage.NewFileScratch(t.TempDir(), log)
	if err != nil {
		t.Fatalf("Failed to create scratch storage: %v", err)
	}
	return session.NewService(store, scratch, nil, log)
}

// writePDF writes a labeled test PDF into dir and returns its path
func writePDF(t *testing.T, dir, name, label string, pages int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, testutil.MakeLabeledPDF(t, label, pages), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "input.pdf", "R", 1)
	notPDF := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notPDF, []byte("notes"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		src      SourceFile
		wantName string
		wantErr  error
	}{
		{"path", SourceFile{Path: path}, "input.pdf", nil},
		{"path with name", SourceFile{Path: path, Name: "renamed.pdf"}, "renamed.pdf", nil},
		{"raw data", SourceFile{Name: "inline.pdf", RawData: []byte("%PDF")}, "inline.pdf", nil},
		{"raw data named by path", SourceFile{Path: "/x/y/from-path.pdf", RawData: []byte("%PDF")}, "from-path.pdf", nil},
		{"raw data without name", SourceFile{RawData: []byte("%PDF")}, "", operations.ErrNoFileProvided},
		{"nothing", SourceFile{}, "", operations.ErrNoFileProvided},
		{"wrong extension", SourceFile{Path: notPDF}, "", operations.ErrInvalidExtension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upload, err := readSource(tt.src)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("readSource failed: %v", err)
			}
			if upload.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", upload.Name, tt.wantName)
			}
			if len(upload.Data) == 0 {
				t.Error("Expected upload data")
			}
		})
	}
}

func TestWriteArtifact(t *testing.T) {
	export := &operations.Export{Filename: "../report.txt", Data: []byte("hello")}

	dir := t.TempDir()
	path, err := writeArtifact(export, "", dir)
	if err != nil {
		t.Fatalf("writeArtifact failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("Expected file inside %s, got %s", dir, path)
	}
	if filepath.Base(path) != documents.SecureFilename("../report.txt") {
		t.Errorf("Expected sanitised name, got %s", filepath.Base(path))
	}

	explicit := filepath.Join(t.TempDir(), "nested", "out.txt")
	path, err = writeArtifact(export, explicit, dir)
	if err != nil {
		t.Fatalf("writeArtifact failed: %v", err)
	}
	if path != explicit {
		t.Errorf("Expected output_path to win, got %s", path)
	}
	data, err := os.ReadFile(explicit)
	if err != nil || string(data) != "hello" {
		t.Errorf("Unexpected file contents %q (%v)", data, err)
	}
}

func TestMergeTools(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	log := logger.NewNoOpLogger()
	sessions := newTestSessions(t)
	dir := t.TempDir()

	a := writePDF(t, dir, "a.pdf", "A", 2)
	b := writePDF(t, dir, "b.pdf", "B", 1)

	_, added, err := MergeAddToolHandler(ctx, nil, MergeAddQuery{Files: []SourceFile{{Path: a}, {Path: b}}}, sessions, log)
	if err != nil {
		t.Fatalf("merge-add failed: %v", err)
	}
	if len(added.MergeFiles) != 2 {
		t.Fatalf("Expected 2 merge files, got %d", len(added.MergeFiles))
	}

	_, order, err := MergeReorderToolHandler(ctx, nil, MergeReorderQuery{From: 1, To: 0}, sessions, log)
	if err != nil {
		t.Fatalf("merge-reorder failed: %v", err)
	}
	if !reflect.DeepEqual(order.Order, []string{"b.pdf", "a.pdf"}) {
		t.Errorf("Order = %v", order.Order)
	}

	if _, _, err := MergeReorderToolHandler(ctx, nil, MergeReorderQuery{From: 5, To: 0}, sessions, log); !errors.Is(err, operations.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for out of range move, got %v", err)
	}

	result, merged, err := MergeProcessToolHandler(ctx, nil, MergeProcessQuery{}, sessions, log)
	if err != nil {
		t.Fatalf("merge-process failed: %v", err)
	}
	if merged.Name != session.MergedFilename || merged.ResourcePath != storage.MergeResultURI {
		t.Errorf("Unexpected merge response %+v", merged)
	}
	if len(result.Content) == 0 {
		t.Error("Expected tool result content")
	}

	out := t.TempDir()
	_, saved, err := MergeSaveToolHandler(ctx, nil, MergeSaveQuery{OutputDir: out}, sessions, log)
	if err != nil {
		t.Fatalf("merge-save failed: %v", err)
	}
	if len(saved.Paths) != 1 || filepath.Base(saved.Paths[0]) != session.MergedFilename {
		t.Fatalf("Unexpected saved paths %v", saved.Paths)
	}
	data, err := os.ReadFile(saved.Paths[0])
	if err != nil {
		t.Fatalf("Failed to read merged output: %v", err)
	}
	if pages, err := documents.PageCount(data); err != nil || pages != 3 {
		t.Errorf("Expected 3 merged pages, got %d (%v)", pages, err)
	}
}

func TestMergeTools_RejectsNonPDF(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoOpLogger()
	sessions := newTestSessions(t)

	query := MergeAddQuery{Files: []SourceFile{
		{Name: "a.pdf", RawData: testutil.MakeLabeledPDF(t, "A", 1)},
		{Name: "b.txt", RawData: []byte("text")},
	}}
	if _, _, err := MergeAddToolHandler(ctx, nil, query, sessions, log); !errors.Is(err, operations.ErrInvalidExtension) {
		t.Fatalf("Expected ErrInvalidExtension, got %v", err)
	}

	_, status, err := SessionStatusToolHandler(ctx, nil, SessionStatusQuery{}, sessions, log)
	if err != nil {
		t.Fatalf("session-status failed: %v", err)
	}
	if len(status.Session.MergeFiles) != 0 {
		t.Errorf("Expected nothing added, got %v", status.Session.MergeFiles)
	}

	if _, _, err := MergeProcessToolHandler(ctx, nil, MergeProcessQuery{}, sessions, log); !errors.Is(err, operations.ErrInsufficientInputs) {
		t.Errorf("Expected ErrInsufficientInputs, got %v", err)
	}
}

func TestSplitTools(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	log := logger.NewNoOpLogger()
	sessions := newTestSessions(t)
	src := writePDF(t, t.TempDir(), "book.pdf", "S", 5)

	_, uploaded, err := SplitSetSourceToolHandler(ctx, nil, SplitSetSourceQuery{Path: src}, sessions, log)
	if err != nil {
		t.Fatalf("split-set-source failed: %v", err)
	}
	if uploaded.File.Pages == nil || *uploaded.File.Pages != 5 {
		t.Errorf("Expected page count 5, got %v", uploaded.File.Pages)
	}

	pagesPerFile := 2
	_, split, err := SplitProcessToolHandler(ctx, nil, SplitProcessQuery{Mode: "ranges", PagesPerFile: &pagesPerFile}, sessions, log)
	if err != nil {
		t.Fatalf("split-process failed: %v", err)
	}
	wantFiles := []string{"part_1_pages_1-2.pdf", "part_2_pages_3-4.pdf", "part_3_pages_5-5.pdf"}
	if !reflect.DeepEqual(split.Files, wantFiles) {
		t.Errorf("Files = %v, want %v", split.Files, wantFiles)
	}
	if len(split.ResourcePaths) != 3 || split.ResourcePaths[2] != "toolkit://split/2" {
		t.Errorf("Unexpected resource paths %v", split.ResourcePaths)
	}

	out := t.TempDir()
	_, saved, err := SplitSaveToolHandler(ctx, nil, SplitSaveQuery{OutputDir: out}, sessions, log)
	if err != nil {
		t.Fatalf("split-save failed: %v", err)
	}
	if len(saved.Paths) != 3 {
		t.Fatalf("Expected 3 saved parts, got %v", saved.Paths)
	}
	if got := testutil.DirEntries(t, out); !reflect.DeepEqual(got, wantFiles) {
		t.Errorf("Output dir holds %v, want %v", got, wantFiles)
	}

	single := filepath.Join(t.TempDir(), "last.pdf")
	index := 2
	if _, _, err := SplitSaveToolHandler(ctx, nil, SplitSaveQuery{Index: &index, OutputPath: single}, sessions, log); err != nil {
		t.Fatalf("split-save by index failed: %v", err)
	}
	data, err := os.ReadFile(single)
	if err != nil {
		t.Fatalf("Failed to read part: %v", err)
	}
	if pages, err := documents.PageCount(data); err != nil || pages != 1 {
		t.Errorf("Expected a 1 page part, got %d (%v)", pages, err)
	}

	if _, _, err := SplitSaveToolHandler(ctx, nil, SplitSaveQuery{OutputPath: single}, sessions, log); !errors.Is(err, operations.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for output_path without index, got %v", err)
	}
	missing := 9
	if _, _, err := SplitSaveToolHandler(ctx, nil, SplitSaveQuery{Index: &missing, OutputDir: out}, sessions, log); !errors.Is(err, operations.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing part, got %v", err)
	}
}

func TestSplitTools_NoParts(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoOpLogger()
	sessions := newTestSessions(t)

	if _, _, err := SplitProcessToolHandler(ctx, nil, SplitProcessQuery{}, sessions, log); !errors.Is(err, operations.ErrNoFileProvided) {
		t.Errorf("Expected ErrNoFileProvided, got %v", err)
	}
	if _, _, err := SplitSaveToolHandler(ctx, nil, SplitSaveQuery{OutputDir: t.TempDir()}, sessions, log); !errors.Is(err, operations.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestConvertTools(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	log := logger.NewNoOpLogger()
	sessions := newTestSessions(t)

	query := ConvertSetSourceQuery{Name: "report.pdf", RawData: testutil.MakeLabeledPDF(t, "C", 2)}
	if _, _, err := ConvertSetSourceToolHandler(ctx, nil, query, sessions, log); err != nil {
		t.Fatalf("convert-set-source failed: %v", err)
	}

	_, extracted, err := ConvertExtractToolHandler(ctx, nil, ConvertExtractQuery{}, sessions, log)
	if err != nil {
		t.Fatalf("convert-extract failed: %v", err)
	}
	if !strings.HasPrefix(extracted.Text, "--- Page 1 ---") {
		t.Errorf("Unexpected extracted text %q", extracted.Text)
	}
	if extracted.ResourcePath != storage.ConvertTextURI {
		t.Errorf("ResourcePath = %q", extracted.ResourcePath)
	}

	out := t.TempDir()
	_, saved, err := ConvertSaveToolHandler(ctx, nil, ConvertSaveQuery{OutputDir: out}, sessions, log)
	if err != nil {
		t.Fatalf("convert-save failed: %v", err)
	}
	if filepath.Base(saved.Paths[0]) != "report-extracted.txt" {
		t.Errorf("Expected txt by default, got %s", saved.Paths[0])
	}
	data, err := os.ReadFile(saved.Paths[0])
	if err != nil || string(data) != extracted.Text {
		t.Errorf("Saved text does not match extraction (%v)", err)
	}

	if _, _, err := ConvertUpdateTextToolHandler(ctx, nil, ConvertUpdateTextQuery{Text: "Edited"}, sessions, log); err != nil {
		t.Fatalf("convert-update-text failed: %v", err)
	}
	_, saved, err = ConvertSaveToolHandler(ctx, nil, ConvertSaveQuery{Format: operations.FormatDocx, OutputDir: out}, sessions, log)
	if err != nil {
		t.Fatalf("convert-save docx failed: %v", err)
	}
	if filepath.Base(saved.Paths[0]) != "report-extracted.docx" {
		t.Errorf("Unexpected docx name %s", saved.Paths[0])
	}

	if _, _, err := ConvertSaveToolHandler(ctx, nil, ConvertSaveQuery{Format: "rtf", OutputDir: out}, sessions, log); !errors.Is(err, operations.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}

	_, status, err := SessionStatusToolHandler(ctx, nil, SessionStatusQuery{}, sessions, log)
	if err != nil {
		t.Fatalf("session-status failed: %v", err)
	}
	if !status.Session.HasText || !status.Session.HasEditedText {
		t.Errorf("Expected extracted and edited text, got %+v", status.Session)
	}
	if !reflect.DeepEqual(status.ResourcePaths, []string{storage.ConvertTextURI}) {
		t.Errorf("ResourcePaths = %v", status.ResourcePaths)
	}
}

func TestConvertTools_NothingExtracted(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoOpLogger()
	sessions := newTestSessions(t)

	if _, _, err := ConvertExtractToolHandler(ctx, nil, ConvertExtractQuery{}, sessions, log); !errors.Is(err, operations.ErrNoFileProvided) {
		t.Errorf("Expected ErrNoFileProvided, got %v", err)
	}
	if _, _, err := ConvertSaveToolHandler(ctx, nil, ConvertSaveQuery{OutputDir: t.TempDir()}, sessions, log); !errors.Is(err, operations.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSessionClearTool(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoOpLogger()
	sessions := newTestSessions(t)

	query := SplitSetSourceQuery{Name: "s.pdf", RawData: testutil.MakeLabeledPDF(t, "S", 1)}
	if _, _, err := SplitSetSourceToolHandler(ctx, nil, query, sessions, log); err != nil {
		t.Fatalf("split-set-source failed: %v", err)
	}

	_, cleared, err := SessionClearToolHandler(ctx, nil, SessionClearQuery{Section: session.SectionSplit}, sessions, log)
	if err != nil {
		t.Fatalf("session-clear failed: %v", err)
	}
	if cleared.Cleared != session.SectionSplit {
		t.Errorf("Cleared = %q", cleared.Cleared)
	}

	_, status, err := SessionStatusToolHandler(ctx, nil, SessionStatusQuery{}, sessions, log)
	if err != nil {
		t.Fatalf("session-status failed: %v", err)
	}
	if status.Session.SplitFile != nil {
		t.Errorf("Expected split source cleared, got %+v", status.Session.SplitFile)
	}
	if len(status.ResourcePaths) != 0 {
		t.Errorf("Expected no resources, got %v", status.ResourcePaths)
	}

	if _, _, err := SessionClearToolHandler(ctx, nil, SessionClearQuery{Section: "everything"}, sessions, log); err != nil {
		t.Errorf("Expected an unknown section to be ignored, got %v", err)
	}
}
