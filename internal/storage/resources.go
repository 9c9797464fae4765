package storage

import (
	"fmt"

	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

const (
	MergeResultURI  = "toolkit://merge/result"
	SplitPartURIFmt = "toolkit://split/%d"
	SplitPartURITpl = "toolkit://split/{index}"
	ConvertTextURI  = "toolkit://convert/text"
)

// CalculateResourcePaths lists the resource URIs a session can currently serve.
// Only artifacts that exist are included.
func CalculateResourcePaths(state *models.SessionState) []string {
	var resourcePaths []string

	if state.Merged != nil {
		resourcePaths = append(resourcePaths, MergeResultURI)
	}

	for i := range state.SplitFiles {
		resourcePaths = append(resourcePaths, fmt.Sprintf(SplitPartURIFmt, i))
	}

	if state.Text() != "" {
		resourcePaths = append(resourcePaths, ConvertTextURI)
	}

	return resourcePaths
}
