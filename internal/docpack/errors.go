package docpack

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error class. Kinds are part of the
// public surface: callers branch on them, so values never change.
type Kind string

const (
	KindInputError         Kind = "INPUT_ERROR"
	KindMissingArtifact    Kind = "MISSING_ARTIFACT"
	KindEmbeddingsCorrupt  Kind = "EMBEDDINGS_CORRUPT"
	KindIncompatibleSchema Kind = "INCOMPATIBLE_SCHEMA"
	KindChecksumMismatch   Kind = "CHECKSUM_MISMATCH"
	KindMalformedArchive   Kind = "MALFORMED_ARCHIVE"
)

// Error is a classified docpack failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// newErr builds a classified error with a formatted message.
func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// wrapErr classifies an underlying error.
func wrapErr(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind of a classified error, or "" when err carries
// no classification.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
