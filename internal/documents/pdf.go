package documents

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

// Document is a parsed PDF. It is never modified: Assemble always builds a new PDF.
type Document struct {
	ctx *model.Context
}

// ReadDocument parses and validates a PDF held in memory
func ReadDocument(pdf models.PdfData) (*Document, error) {
	if len(pdf) == 0 {
		return nil, errors.New("empty PDF data")
	}
	if !LooksLikePDF(pdf) {
		return nil, errors.New("missing PDF header")
	}
	conf := model.NewDefaultConfiguration()
	pdfContext, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return &Document{ctx: pdfContext}, nil
}

// PageCount returns the number of pages in the document
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Assemble writes a new PDF holding the given 1-based pages in the given order.
// An empty selection produces a valid PDF with no pages.
func (d *Document) Assemble(pageNrs []int) (models.PdfData, error) {
	if len(pageNrs) == 0 {
		return EmptyPdf(), nil
	}
	for _, pageNr := range pageNrs {
		if pageNr < 1 || pageNr > d.PageCount() {
			return nil, fmt.Errorf("page %d out of range 1-%d", pageNr, d.PageCount())
		}
	}
	ctxDest, err := pdfcpu.ExtractPages(d.ctx, pageNrs, false)
	if err != nil {
		return nil, fmt.Errorf("failed to extract pages: %w", err)
	}
	var buf bytes.Buffer
	if err := api.WriteContext(ctxDest, &buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// MergePdfs concatenates all pages of the given PDFs, in order, into one PDF.
// Inputs are expected to have been validated with ReadDocument.
func MergePdfs(pdfs []models.PdfData) (models.PdfData, error) {
	readers := make([]io.ReadSeeker, 0, len(pdfs))
	for _, pdf := range pdfs {
		readers = append(readers, bytes.NewReader(pdf))
	}
	var buf bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.MergeRaw(readers, &buf, false, conf); err != nil {
		return nil, fmt.Errorf("failed to merge PDFs: %w", err)
	}
	return buf.Bytes(), nil
}

// PageCount reads only as much of the PDF as is needed to count its pages
func PageCount(pdf models.PdfData) (int, error) {
	if !LooksLikePDF(pdf) {
		return 0, errors.New("missing PDF header")
	}
	return api.PageCount(bytes.NewReader(pdf), model.NewDefaultConfiguration())
}

// EmptyPdf returns a minimal valid PDF with an empty page tree
func EmptyPdf() models.PdfData {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects))
	for i, obj := range objects {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefOffset)
	return buf.Bytes()
}
