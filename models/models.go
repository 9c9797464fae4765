package models

type PdfData []byte

// PageRange is a 1-based inclusive span of pages as supplied by a caller.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SplitRequest is the wire form of a split: mode plus the parameters that mode uses
type SplitRequest struct {
	Mode         string      `json:"mode,omitempty"`
	PagesPerFile *int        `json:"pages_per_file,omitempty"`
	Ranges       []PageRange `json:"ranges,omitempty"`
}

// SplitFile is one output of a split, with the 1-based source pages it holds
type SplitFile struct {
	Name  string
	Pages []int
	Data  PdfData
}

// UploadRecord describes a file a user uploaded into a session
type UploadRecord struct {
	Name          string `json:"name"`
	Size          int64  `json:"size"`
	SizeFormatted string `json:"size_formatted"`
	// Pages is nil for uploads that are stored without being parsed
	Pages      *int   `json:"pages,omitempty"`
	StorageRef string `json:"storage_ref"`
}

// OutputFile is an artifact generated for a session
type OutputFile struct {
	Name       string `json:"name"`
	StorageRef string `json:"storage_ref"`
}

// SessionState is everything a session remembers between requests.
// Only storage references are kept here; file contents live in scratch storage.
type SessionState struct {
	MergeFiles    []UploadRecord `json:"merge_files,omitempty"`
	Merged        *OutputFile    `json:"merged,omitempty"`
	SplitFile     *UploadRecord  `json:"split_file,omitempty"`
	SplitFiles    []OutputFile   `json:"split_files,omitempty"`
	ConvertFile   *UploadRecord  `json:"convert_file,omitempty"`
	ExtractedText string         `json:"extracted_text,omitempty"`
	EditedText    *string        `json:"edited_text,omitempty"`
}

// Text returns the edited text if one was saved, otherwise the extracted text
func (s *SessionState) Text() string {
	if s.EditedText != nil {
		return *s.EditedText
	}
	return s.ExtractedText
}

// ClearMerge resets the merge section and returns the storage references it held
func (s *SessionState) ClearMerge() []string {
	var refs []string
	for _, f := range s.MergeFiles {
		refs = append(refs, f.StorageRef)
	}
	if s.Merged != nil {
		refs = append(refs, s.Merged.StorageRef)
	}
	s.MergeFiles = nil
	s.Merged = nil
	return refs
}

// ClearSplit resets the split section and returns the storage references it held
func (s *SessionState) ClearSplit() []string {
	var refs []string
	if s.SplitFile != nil {
		refs = append(refs, s.SplitFile.StorageRef)
	}
	for _, f := range s.SplitFiles {
		refs = append(refs, f.StorageRef)
	}
	s.SplitFile = nil
	s.SplitFiles = nil
	return refs
}

// ClearConvert resets the convert section and returns the storage references it held
func (s *SessionState) ClearConvert() []string {
	var refs []string
	if s.ConvertFile != nil {
		refs = append(refs, s.ConvertFile.StorageRef)
	}
	s.ConvertFile = nil
	s.ExtractedText = ""
	s.EditedText = nil
	return refs
}

// StorageRefs lists every storage reference the session holds
func (s *SessionState) StorageRefs() []string {
	clone := *s
	refs := clone.ClearMerge()
	refs = append(refs, clone.ClearSplit()...)
	return append(refs, clone.ClearConvert()...)
}

// SessionInfo is a summary of a session used by status endpoints
type SessionInfo struct {
	MergeFiles    []UploadRecord `json:"merge_files"`
	HasMerged     bool           `json:"has_merged"`
	SplitFile     *UploadRecord  `json:"split_file,omitempty"`
	SplitFiles    []string       `json:"split_files"`
	ConvertFile   *UploadRecord  `json:"convert_file,omitempty"`
	HasText       bool           `json:"has_text"`
	HasEditedText bool           `json:"has_edited_text"`
}
