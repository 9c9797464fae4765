package operations

import "errors"

// Error kinds shared by the pipelines and the session service. Failures wrap
// one of these so front ends can classify them with errors.Is.
var (
	ErrNoFileProvided     = errors.New("no file provided")
	ErrInvalidExtension   = errors.New("invalid file extension, only .pdf files are accepted")
	ErrMalformedInput     = errors.New("malformed PDF input")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInsufficientInputs = errors.New("need at least 2 files to merge")
	ErrConversion         = errors.New("document conversion failed")
	ErrNotFound           = errors.New("not found")
)

// IsClientError reports whether err was caused by the caller's input
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoFileProvided) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInsufficientInputs)
}
