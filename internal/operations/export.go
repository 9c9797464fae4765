package operations

import (
	"fmt"
	"strings"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/documents"
)

const (
	FormatTxt  = "txt"
	FormatDocx = "docx"

	TxtMIMEType = "text/plain"
)

// Export is a downloadable rendering of extracted text
type Export struct {
	Filename string
	MIMEType string
	Data     []byte
}

// ExportParagraphs returns the lines of text that contain anything other than
// whitespace, in order. Blank lines are dropped rather than kept as empty paragraphs.
func ExportParagraphs(text string) []string {
	var paragraphs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		paragraphs = append(paragraphs, line)
	}
	return paragraphs
}

// ExportDocx renders text as a word-processing document, one paragraph per non-blank line
func ExportDocx(text string) ([]byte, error) {
	data, err := documents.WriteDocx(ExportParagraphs(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return data, nil
}

// ExportText renders text in the requested format, naming the file after sourceName
func ExportText(text, sourceName, format string) (*Export, error) {
	baseName := documents.BaseName(sourceName)
	switch format {
	case FormatTxt:
		return &Export{
			Filename: baseName + "-extracted.txt",
			MIMEType: TxtMIMEType,
			Data:     []byte(text),
		}, nil
	case FormatDocx:
		data, err := ExportDocx(text)
		if err != nil {
			return nil, err
		}
		return &Export{
			Filename: baseName + "-extracted.docx",
			MIMEType: documents.DocxMIMEType,
			Data:     data,
		}, nil
	default:
		return nil, fmt.Errorf("%w: invalid format %q", ErrInvalidArgument, format)
	}
}
