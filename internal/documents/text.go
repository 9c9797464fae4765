package documents

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

// ExtractPageTexts returns the plain text of pages 1..pageCount, in order.
// Pages the text layer cannot be read from come back empty; the text reader
// panics on some malformed content streams, so each page is read in isolation.
func ExtractPageTexts(data models.PdfData, pageCount int, log logger.Logger) []string {
	texts := make([]string, pageCount)
	reader, err := openTextReader(data)
	if err != nil {
		log.Warn("Text layer unreadable, returning empty pages: %v", err)
		return texts
	}
	if n := reader.NumPage(); n != pageCount {
		log.Warn("Text reader found %d pages, expected %d", n, pageCount)
	}
	for i := 1; i <= pageCount && i <= reader.NumPage(); i++ {
		text, err := pageText(reader, i)
		if err != nil {
			log.Warn("Failed to extract text from page %d: %v", i, err)
			continue
		}
		texts[i-1] = text
	}
	return texts
}

func openTextReader(data models.PdfData) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text reader panicked: %v", r)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pageText(reader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text reader panicked: %v", r)
		}
	}()
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
