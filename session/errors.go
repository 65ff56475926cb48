package session

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentClosed is returned by any operation on a closed document,
	// including a second Close.
	ErrDocumentClosed = errors.New("document already closed")

	// ErrPageClosed is returned by any operation on a closed page,
	// including a second Close.
	ErrPageClosed = errors.New("page already closed")

	// ErrPlatformNotSupported is returned when the running platform lacks
	// the capability an operation needs. It is raised before any call
	// reaches the rendering engine.
	ErrPlatformNotSupported = errors.New("operation not supported on this platform")

	// ErrFormatNotSupported is returned when the requested image format is
	// not available on the running platform.
	ErrFormatNotSupported = errors.New("image format not supported on this platform")
)

// PageRangeError reports a page number outside the document's valid
// range.
type PageRangeError struct {
	Page  int // the offending page number
	First int // always 1
	Last  int // the document's page count
}

func (e *PageRangeError) Error() string {
	return fmt.Sprintf("page number %d out of range [%d, %d]", e.Page, e.First, e.Last)
}
