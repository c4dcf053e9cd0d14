package botly

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures across the ingest-and-reply pipelines.
type ErrorKind string

const (
	ErrorKindIngest    ErrorKind = "ingest"
	ErrorKindIndexing  ErrorKind = "indexing"
	ErrorKindEmbedding ErrorKind = "embedding"
	ErrorKindRetrieval ErrorKind = "retrieval"
	ErrorKindTemplate  ErrorKind = "template"
	ErrorKindModel     ErrorKind = "model"
)

// Error is a categorized error with an optional wrapped cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two errors by kind, so callers can test categories with
// errors.Is against the sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

var (
	// ErrIngest covers missing, unreadable or invalid document files.
	ErrIngest = newError(ErrorKindIngest, "document ingestion failed", nil)
	// ErrIndexing covers embedding or index-build failures during ingest.
	ErrIndexing = newError(ErrorKindIndexing, "index build failed", nil)
	// ErrEmbedding covers embedding failures outside of index builds.
	ErrEmbedding = newError(ErrorKindEmbedding, "embedding failed", nil)
	// ErrRetrieval covers queries issued against a missing index.
	ErrRetrieval = newError(ErrorKindRetrieval, "retrieval failed", nil)
	// ErrTemplate covers prompt rendering with missing variables.
	ErrTemplate = newError(ErrorKindTemplate, "prompt rendering failed", nil)
	// ErrModel covers model backend invocation failures.
	ErrModel = newError(ErrorKindModel, "model invocation failed", nil)
)

// KindOf returns the ErrorKind of err, or the empty string if err is not a
// categorized error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
