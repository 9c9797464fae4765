package api

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SuccessResponse acknowledges a request that returns no data
type SuccessResponse struct {
	Success bool `json:"success"`
}

// FileSummary describes an uploaded file. Size is human-readable.
type FileSummary struct {
	Name  string `json:"name"`
	Size  string `json:"size"`
	Pages *int   `json:"pages,omitempty"`
}

// MergeUploadResponse lists the files added by a merge upload
type MergeUploadResponse struct {
	Success bool          `json:"success"`
	Files   []FileSummary `json:"files"`
}

// UploadResponse describes a single uploaded source file
type UploadResponse struct {
	Success bool `json:"success"`
	FileSummary
}

// ReorderRequest moves the merge file at From to To (0-based)
type ReorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

// SplitProcessRequest is the body of a split. pages_per_file may be sent
// as a number or as a numeric string.
type SplitProcessRequest struct {
	Mode         string             `json:"mode"`
	PagesPerFile *PagesPerFile      `json:"pages_per_file"`
	Ranges       []models.PageRange `json:"ranges"`
}

// SplitRequest converts the body into the form the session service takes
func (r SplitProcessRequest) SplitRequest() models.SplitRequest {
	req := models.SplitRequest{Mode: r.Mode, Ranges: r.Ranges}
	if r.PagesPerFile != nil {
		n := int(*r.PagesPerFile)
		req.PagesPerFile = &n
	}
	return req
}

type PagesPerFile int

func (p *PagesPerFile) UnmarshalJSON(data []byte) error {
	raw := data
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = bytes.TrimSpace(raw[1 : len(raw)-1])
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return fmt.Errorf("pages_per_file must be an integer or a numeric string, got %s", data)
	}
	*p = PagesPerFile(n)
	return nil
}

// SplitResponse lists the split parts in download order
type SplitResponse struct {
	Success bool     `json:"success"`
	Files   []string `json:"files"`
}

// ExtractResponse carries the extracted text
type ExtractResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// UpdateTextRequest replaces the edited text
type UpdateTextRequest struct {
	Text string `json:"text"`
}

// ServiceInfo is returned by the service discovery endpoint
type ServiceInfo struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Hostname  string   `json:"hostname"`
	Endpoints []string `json:"endpoints"`
}
