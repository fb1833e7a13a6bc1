package book

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the book is missing or could not be fetched.
	ErrUnavailable = errors.New("book unavailable")
	// ErrNotFound means the requested book or anchor does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated means the backend rejected the credential.
	ErrUnauthenticated = errors.New("not authenticated, reload")
	// ErrIncomplete means the book is still processing or has no content.
	ErrIncomplete = errors.New("book is not ready")
	// ErrAnchorUnresolvable means an anchor points outside the current
	// document, usually after the book was re-ingested.
	ErrAnchorUnresolvable = errors.New("anchor cannot be resolved")
)

// SaveRejectedError carries the backend's validation message verbatim.
type SaveRejectedError struct {
	Status int
	Detail string
}

func (e *SaveRejectedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("save rejected (status %d)", e.Status)
	}
	return e.Detail
}
