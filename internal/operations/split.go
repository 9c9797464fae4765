package operations

import (
	"fmt"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/documents"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

const (
	ModeIndividual = "individual"
	ModeRanges     = "ranges"
	ModeCustom     = "custom"

	defaultPagesPerFile = 2
)

// Part is one planned split output: its file name and 1-based source pages
type Part struct {
	Name  string
	Pages []int
}

// Partitioner decides how the pages of a document are divided into output files
type Partitioner interface {
	Plan(pageCount int) ([]Part, error)
}

// Individual puts every page in its own file
type Individual struct{}

// FixedSize puts consecutive runs of PagesPerFile pages in each file
type FixedSize struct {
	PagesPerFile int
}

// Custom produces one file per requested range. Pages outside the document
// are skipped rather than rejected.
type Custom struct {
	Ranges []models.PageRange
}

// ParseSplitRequest turns a wire request into a Partitioner
func ParseSplitRequest(req models.SplitRequest) (Partitioner, error) {
	switch req.Mode {
	case "", ModeIndividual:
		return Individual{}, nil
	case ModeRanges:
		pagesPerFile := defaultPagesPerFile
		if req.PagesPerFile != nil {
			pagesPerFile = *req.PagesPerFile
		}
		if pagesPerFile < 1 {
			return nil, fmt.Errorf("%w: pages per file must be at least 1, got %d", ErrInvalidArgument, pagesPerFile)
		}
		return FixedSize{PagesPerFile: pagesPerFile}, nil
	case ModeCustom:
		if len(req.Ranges) == 0 {
			return nil, fmt.Errorf("%w: no ranges specified", ErrInvalidArgument)
		}
		return Custom{Ranges: req.Ranges}, nil
	default:
		return nil, fmt.Errorf("%w: invalid split mode %q", ErrInvalidArgument, req.Mode)
	}
}

func (Individual) Plan(pageCount int) ([]Part, error) {
	parts := make([]Part, 0, pageCount)
	for page := 1; page <= pageCount; page++ {
		parts = append(parts, Part{
			Name:  fmt.Sprintf("page_%d.pdf", page),
			Pages: []int{page},
		})
	}
	return parts, nil
}

func (f FixedSize) Plan(pageCount int) ([]Part, error) {
	if f.PagesPerFile < 1 {
		return nil, fmt.Errorf("%w: pages per file must be at least 1, got %d", ErrInvalidArgument, f.PagesPerFile)
	}
	// A chunk never spans more than the document, so this cannot overflow
	size := min(f.PagesPerFile, max(pageCount, 1))
	var parts []Part
	for start := 1; start <= pageCount; start += size {
		end := min(start+size-1, pageCount)
		parts = append(parts, Part{
			Name:  fmt.Sprintf("part_%d_pages_%d-%d.pdf", len(parts)+1, start, end),
			Pages: pageSpan(start, end),
		})
	}
	return parts, nil
}

func (c Custom) Plan(pageCount int) ([]Part, error) {
	if len(c.Ranges) == 0 {
		return nil, fmt.Errorf("%w: no ranges specified", ErrInvalidArgument)
	}
	parts := make([]Part, 0, len(c.Ranges))
	for i, r := range c.Ranges {
		// Names keep the requested bounds; pages are clamped to the document
		parts = append(parts, Part{
			Name:  fmt.Sprintf("range_%d_pages_%d-%d.pdf", i+1, r.Start, r.End),
			Pages: pageSpan(max(r.Start, 1), min(r.End, pageCount)),
		})
	}
	return parts, nil
}

// pageSpan lists start..end inclusive, or nothing when start > end
func pageSpan(start, end int) []int {
	var pages []int
	for page := start; page <= end; page++ {
		pages = append(pages, page)
	}
	return pages
}

// SplitPdf divides a PDF into new documents according to the partitioner
func SplitPdf(pdf models.PdfData, partitioner Partitioner, log logger.Logger) ([]models.SplitFile, error) {
	doc, err := documents.ReadDocument(pdf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	parts, err := partitioner.Plan(doc.PageCount())
	if err != nil {
		return nil, err
	}

	files := make([]models.SplitFile, 0, len(parts))
	for _, part := range parts {
		data, err := doc.Assemble(part.Pages)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s: %w", part.Name, err)
		}
		files = append(files, models.SplitFile{
			Name:  part.Name,
			Pages: part.Pages,
			Data:  data,
		})
	}

	log.Debug("Split %d pages into %d files", doc.PageCount(), len(files))
	return files, nil
}
