package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrLibraryIndexNotFound is returned when the store library index file
	// cannot be located under the configured store root.
	ErrLibraryIndexNotFound = errors.New("library index not found")

	// ErrNotFound is returned when not even a template image is available.
	ErrNotFound = errors.New("not found")

	ErrUnknownPlatform = errors.New("unknown platform")
	ErrItemNotFound    = errors.New("item not found")
)

// ScanError is the structured failure reported at the ingestion boundary.
type ScanError struct {
	Origin  Origin
	Message string
	Err     error
}

func NewScanError(origin Origin, err error, message string) *ScanError {
	return &ScanError{Origin: origin, Message: message, Err: err}
}

func (e *ScanError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s scan failed: %s", e.Origin, e.Message)
	}
	return fmt.Sprintf("%s scan failed: %s: %v", e.Origin, e.Message, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
