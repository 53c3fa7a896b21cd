package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrMissingField        = errors.New("required column missing from source")
	ErrNoWorkLogs          = errors.New("at least one work log is required")
	ErrInvalidThreshold    = errors.New("threshold must be between 0 and 100")
	ErrExtractionFailed    = errors.New("table extraction from document failed")
	ErrUploadFailed        = errors.New("report upload to storage failed")
)

// MissingFieldError reports that a source document lacks one or more of the
// patient, date and exam columns. It is fatal for that source only.
type MissingFieldError struct {
	Source string
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required columns in %q: %s", e.Source, strings.Join(e.Fields, ", "))
}

// Is lets errors.Is(err, ErrMissingField) match any MissingFieldError.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}
