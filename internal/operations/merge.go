package operations

import (
	"fmt"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/documents"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

// MergePdfs concatenates every page of every input, in input order, into one PDF.
// All inputs are validated before anything is written, so a malformed input
// aborts the merge without output.
func MergePdfs(pdfs []models.PdfData, log logger.Logger) (models.PdfData, error) {
	if len(pdfs) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientInputs, len(pdfs))
	}

	totalPages := 0
	for i, pdf := range pdfs {
		doc, err := documents.ReadDocument(pdf)
		if err != nil {
			return nil, fmt.Errorf("%w: file %d: %v", ErrMalformedInput, i+1, err)
		}
		totalPages += doc.PageCount()
	}

	merged, err := documents.MergePdfs(pdfs)
	if err != nil {
		return nil, err
	}

	log.Debug("Merged %d files into %d pages", len(pdfs), totalPages)
	return merged, nil
}
