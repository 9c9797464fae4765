package operations

import (
	"fmt"
	"strings"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/documents"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

// ExtractText returns the text of every page in order, each preceded by a
// "--- Page N ---" header and followed by a blank line.
func ExtractText(pdf models.PdfData, log logger.Logger) (string, error) {
	doc, err := documents.ReadDocument(pdf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	texts := documents.ExtractPageTexts(pdf, doc.PageCount(), log)

	var sb strings.Builder
	for i, text := range texts {
		fmt.Fprintf(&sb, "--- Page %d ---\n\n", i+1)
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	log.Debug("Extracted text from %d pages", len(texts))
	return sb.String(), nil
}
