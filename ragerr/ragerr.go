// Package ragerr defines the error taxonomy shared by every docrag
// component. Every component package returns one of these, never a bare
// errors.New, except at the lowest stdlib-call boundary where the cause
// is wrapped into one. The helper packages validation and textsplitter,
// and config.Validate, which delegates to validation, return plain errors.
package ragerr

import (
	"errors"
	"fmt"
)

// Kind tags the category of a docrag error. It is a closed sum type —
// callers switch on it directly rather than type-asserting concrete
// error structs.
type Kind int

const (
	// Unknown is the zero value and should never be constructed
	// directly; New rejects it implicitly by always being called with
	// an explicit Kind.
	Unknown Kind = iota
	NotFound
	InvalidArgument
	UnsupportedFormat
	CorruptDocument
	EmbeddingFailure
	StorageFailure
	DocumentProcessingError
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case InvalidArgument:
		return "InvalidArgument"
	case UnsupportedFormat:
		return "UnsupportedFormat"
	case CorruptDocument:
		return "CorruptDocument"
	case EmbeddingFailure:
		return "EmbeddingFailure"
	case StorageFailure:
		return "StorageFailure"
	case DocumentProcessingError:
		return "DocumentProcessingError"
	default:
		return "Unknown"
	}
}

// Error is the single concrete error type for the whole module. Every
// error kind carries a human-readable message and an optional cause
// chain. Lookups by id (metadata Get, GetChunkByID) report an absent
// entity as NotFound; the content store reports a missing content or
// embeddings file as (zero value, nil).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an *Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is a *ragerr.Error of the given kind, looking
// through the Unwrap chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// NotFoundf constructs a NotFound error naming the absent entity and id.
func NotFoundf(entity, id string) *Error {
	return New(NotFound, fmt.Sprintf("%s %q not found", entity, id), nil)
}
