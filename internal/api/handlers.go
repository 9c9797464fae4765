package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/documents"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/operations"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/throttle"
	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

const (
	SessionCookieName = "pdf_toolkit_session"

	// Multipart parts beyond this are spooled to disk
	maxFormMemory = 10 << 20
)

// sessionID returns the caller's session id, issuing a new cookie on first contact
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	id, err := session.NewSessionID()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// MergeUploadHandler adds the PDFs in the "files" form field to the merge list
func (s *Server) MergeUploadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		s.responseWithError(w, "Failed to start session", err)
		return
	}

	uploads, err := s.readUploads(w, r, "files")
	if err != nil {
		s.responseWithError(w, "Failed to read upload", err)
		return
	}

	records, err := s.sessions.AddMergeFiles(r.Context(), id, uploads)
	if err != nil {
		s.responseWithError(w, "Failed to add files", err)
		return
	}

	response := MergeUploadResponse{Success: true, Files: make([]FileSummary, 0, len(records))}
	for _, record := range records {
		response.Files = append(response.Files, summarize(record))
	}
	writeJSON(w, http.StatusOK, response)
}

// MergeReorderHandler moves one file within the merge list
func (s *Server) MergeReorderHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		s.responseWithError(w, "Failed to start session", err)
		return
	}

	var req ReorderRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.responseWithError(w, "Invalid reorder operation", err)
		return
	}
	if req.From == nil || req.To == nil {
		s.responseWithError(w, "Invalid reorder operation", fmt.Errorf("%w: from and to are required", operations.ErrInvalidArgument))
		return
	}

	if err := s.sessions.ReorderMerge(r.Context(), id, *req.From, *req.To); err != nil {
		s.responseWithError(w, "Invalid reorder operation", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// MergeProcessHandler merges the merge list
func (s *Server) MergeProcessHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		s.responseWithError(w, "Failed to start session", err)
		return
	}

	if _, err := s.sessions.ProcessMerge(r.Context(), id); err != nil {
		s.responseWithError(w, "Failed to merge files", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// MergeDownloadHandler streams the merged PDF
func (s *Server) MergeDownloadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		s.responseWithError(w, "Failed to start session", err)
		return
	}

	export, err := s.sessions.MergedOutput(r.Context(), id)
	if err != nil {
		s.responseWithError(w, "No merged file available", err)
		return
	}
	s.sendFile(w, export)
}

// SplitUploadHandler sets the split source from the "file" form field
func (s *Server) SplitUploadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		s.responseWithError(w, "Failed to start session", err)
		return
	}

	upload, err := s.readUpload(w, r, "file")
	if err != nil {
		s.responseWithError(w, "Failed to read upload", err)
		return
	}

	record, err := s.sessions.SetSplitSource(r.Context(), id, upload)
	if err != nil {
		s.responseWithError(w, "Invalid PDF file", err)
		return
	}
	writeJSON(w, http.StatusOK, UploadResponse{Success: true, FileSummary: summarize(*record)})
}

// SplitProcessHandler splits the split source according to the JSON request
func (s *Server) SplitProcessHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		s.responseWithError(w, "Failed to start session", err)
		return
	}

	var req SplitProcessRequest
	if err := s.decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.responseWithError(w, "Invalid split request", err)
		return
	}

	names, err := s.sessions.ProcessSplit(r.Context(), id, req.SplitRequest())
	if err != nil {
		s.responseWithError(w, "Failed to split file", err)
		return
	}
	writeJSON(w, http.StatusOK, SplitResponse{Success: true, Files: names})
}

// SplitDownloadHandler streams one split part
func (s *Server) SplitDownloadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		s.responseWithError(w, "Failed to start session", err)
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.responseWithError(w, "File not found", fmt.Errorf("%w: split file %q", operations.ErrNotFound, r.PathValue("index")))
		return
	}

	export, err := s.sessions.SplitOutput(r.Context(), id, index)
	if err != nil {
		s.responseWithError(w, "File not found", err)
		return
	}
	s.sendFile(w, export)
}

// ConvertUploadHandler sets the conversion source from the "file" form field
func (s *Server) ConvertUploadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		s.responseWithError(w, "Failed to start session", err)
		return
	}

	upload, err := s.readUpload(w, r, "file")
	if err != nil {
		s.responseWithError(w, "Failed to read upload", err)
		return
	}

	record, err := s.sessions.SetConvertSource(r.Context(), id, upload)
	if err != nil {
		s.responseWithError(w, "Invalid file", err)
		return
	}
	writeJSON(w, http.StatusOK, UploadResponse{Success: true, FileSummary: summarize(*record)})
}

// ConvertExtractHandler extracts text from the conversion source
func (s *Server) ConvertExtractHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		s.responseWithError(w, "Failed to start session", err)
		return
	}

	text, err := s.sessions.ExtractText(r.Context(), id)
	if err != nil {
		s.responseWithError(w, "Failed to extract text", err)
		return
	}
	writeJSON(w, http.StatusOK, ExtractResponse{Success: true, Text: text})
}

// ConvertDownloadHandler streams the text as txt or docx
func (s *Server) ConvertDownloadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		s.responseWithError(w, "Failed to start session", err)
		return
	}

	export, err := s.sessions.ExportText(r.Context(), id, r.PathValue("format"))
	if err != nil {
		s.responseWithError(w, "Failed to export text", err)
		return
	}
	s.sendFile(w, export)
}

// ConvertUpdateTextHandler saves edits to the extracted text
func (s *Server) ConvertUpdateTextHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		s.responseWithError(w, "Failed to start session", err)
		return
	}

	var req UpdateTextRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.responseWithError(w, "Invalid request", err)
		return
	}

	if err := s.sessions.UpdateText(r.Context(), id, req.Text); err != nil {
		s.responseWithError(w, "Failed to update text", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ClearHandler discards one section of the session
func (s *Server) ClearHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(w, r)
	if err != nil {
		s.responseWithError(w, "Failed to start session", err)
		return
	}

	if err := s.sessions.Clear(r.Context(), id, r.PathValue("section")); err != nil {
		s.responseWithError(w, "Failed to clear section", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func summarize(record models.UploadRecord) FileSummary {
	return FileSummary{Name: record.Name, Size: record.SizeFormatted, Pages: record.Pages}
}

// parseForm parses a multipart body of at most maxUploadBytes
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: upload exceeds %d bytes", operations.ErrInvalidArgument, maxErr.Limit)
		}
		return fmt.Errorf("%w: %v", operations.ErrNoFileProvided, err)
	}
	return nil
}

// readUploads reads every file in the named form field
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request, field string) ([]session.Upload, error) {
	if err := s.parseForm(w, r); err != nil {
		return nil, err
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, operations.ErrNoFileProvided
	}

	uploads := make([]session.Upload, 0, len(headers))
	for _, header := range headers {
		upload, err := readPart(header)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

// readUpload reads the single file in the named form field
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) (session.Upload, error) {
	if err := s.parseForm(w, r); err != nil {
		return session.Upload{}, err
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 || headers[0].Filename == "" {
		return session.Upload{}, operations.ErrNoFileProvided
	}
	return readPart(headers[0])
}

func readPart(header *multipart.FileHeader) (session.Upload, error) {
	file, err := header.Open()
	if err != nil {
		return session.Upload{}, fmt.Errorf("failed to open %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return session.Upload{}, fmt.Errorf("failed to read %s: %w", header.Filename, err)
	}
	return session.Upload{Name: header.Filename, Data: data}, nil
}

// decodeJSON decodes a bounded JSON body. A missing body yields io.EOF.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %w", operations.ErrInvalidArgument, err)
		}
		return fmt.Errorf("%w: invalid JSON: %v", operations.ErrInvalidArgument, err)
	}
	return nil
}

// sendFile streams an artifact as an attachment
func (s *Server) sendFile(w http.ResponseWriter, export *operations.Export) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", documents.SecureFilename(export.Filename)))
	w.Header().Set("Content-Type", export.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(export.Data); err != nil {
		// We can't return an error to the client at this point
		s.log.Warn("Error writing response: %v", err)
	}
}

// statusFor maps an error kind to an HTTP status code
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, throttle.ErrWaitCancelled):
		return http.StatusServiceUnavailable
	case errors.Is(err, operations.ErrNotFound):
		return http.StatusNotFound
	case operations.IsClientError(err), errors.As(err, &maxErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// responseWithError writes an error response in JSON format
func (s *Server) responseWithError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("%s: %v", message, err)
	} else {
		s.log.Debug("%s: %v", message, err)
	}

	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error:   fmt.Sprintf("%s: %v", message, err),
	})
}
