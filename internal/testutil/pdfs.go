// Package testutil builds PDF fixtures with known per-page text for tests.
package testutil

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// PageText is the marker written on page n of a labeled fixture
func PageText(label string, n int) string {
	return fmt.Sprintf("%s page %d", label, n)
}

// MakePDF builds a PDF with one page per entry in texts, each page showing its text
func MakePDF(t testing.TB, texts ...string) []byte {
	t.Helper()
	if len(texts) == 0 {
		t.Fatal("MakePDF needs at least one page")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	for _, text := range texts {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "", 16)
		pdf.Cell(40, 10, text)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("Failed to build fixture PDF: %v", err)
	}
	return buf.Bytes()
}

// MakeLabeledPDF builds a PDF of the given page count where page n shows PageText(label, n)
func MakeLabeledPDF(t testing.TB, label string, pages int) []byte {
	t.Helper()
	texts := make([]string, pages)
	for i := range texts {
		texts[i] = PageText(label, i+1)
	}
	return MakePDF(t, texts...)
}
