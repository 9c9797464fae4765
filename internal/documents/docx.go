package documents

import (
	"bytes"
	"fmt"

	"github.com/fumiama/go-docx"
)

const DocxMIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// WriteDocx builds a word-processing document with one paragraph per entry
func WriteDocx(paragraphs []string) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docx writer panicked: %v", r)
		}
	}()

	doc := docx.New().WithDefaultTheme()
	for _, text := range paragraphs {
		doc.AddParagraph().AddText(text)
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write docx: %w", err)
	}
	return buf.Bytes(), nil
}
