package documents

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	pdfExtension    = ".pdf"
	defaultBaseName = "document"
	// A PDF header may be preceded by junk; readers accept it within the first 1024 bytes
	pdfHeaderWindow = 1024
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// AllowedFile reports whether a filename carries a .pdf extension (case-insensitive)
func AllowedFile(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), pdfExtension)
}

// SecureFilename reduces an uploaded filename to a safe single path component.
// Directory parts are dropped, whitespace becomes underscores and any other
// character outside [A-Za-z0-9_.-] is removed. Leading dots are stripped so
// the result can never name a hidden file or a parent directory.
func SecureFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	if i := strings.LastIndex(filename, "/"); i >= 0 {
		filename = filename[i+1:]
	}
	filename = strings.Join(strings.Fields(filename), "_")
	filename = unsafeFilenameChars.ReplaceAllString(filename, "")
	return strings.TrimLeft(filename, "._")
}

// BaseName returns the filename with a trailing ".pdf" removed, used to name exports
func BaseName(filename string) string {
	if filename == "" {
		return defaultBaseName
	}
	return strings.TrimSuffix(filename, pdfExtension)
}

// FormatFileSize formats a byte count as a human-readable size
func FormatFileSize(size int64) string {
	if size == 0 {
		return "0 Bytes"
	}
	const k = 1024
	units := []string{"Bytes", "KB", "MB", "GB"}
	value := float64(size)
	i := 0
	for value >= k && i < len(units)-1 {
		value /= k
		i++
	}
	return fmt.Sprintf("%.2f %s", value, units[i])
}

// LooksLikePDF checks for a %PDF header near the start of data
func LooksLikePDF(data []byte) bool {
	window := data[:min(len(data), pdfHeaderWindow)]
	return bytes.Contains(window, []byte("%PDF-"))
}
