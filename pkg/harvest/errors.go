package harvest

import (
	"errors"
	"fmt"
)

// Kind classifies why an attempt or a run failed.
type Kind string

const (
	// KindTransport means the network exchange could not complete
	// (connection, timeout, bad status, malformed response).
	KindTransport Kind = "transport"

	// KindStructuralParse means a response arrived but the expected
	// fields or markers were absent.
	KindStructuralParse Kind = "structural_parse"

	// KindIdentifierEncoding means the entry could not become a request target.
	KindIdentifierEncoding Kind = "identifier_encoding"

	// KindSink means the error log or result storage could not be written.
	KindSink Kind = "sink"

	// KindConfiguration means the engine was given unusable settings.
	KindConfiguration Kind = "configuration"

	// KindUnknown is assigned to adapter errors that carry no classification.
	KindUnknown Kind = "unknown"
)

// ErrUnclassified is wrapped by KindUnknown errors built from plain messages.
var ErrUnclassified = errors.New("unclassified failure")

// Error is a classified failure with optional entry context.
type Error struct {
	Kind    Kind
	Entry   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.Entry != "" {
		msg += fmt.Sprintf(" (entry %q)", e.Entry)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// TransportError builds a KindTransport error.
func TransportError(entry, message string, err error) *Error {
	return &Error{Kind: KindTransport, Entry: entry, Message: message, Err: err}
}

// ParseError builds a KindStructuralParse error.
func ParseError(entry, message string) *Error {
	return &Error{Kind: KindStructuralParse, Entry: entry, Message: message}
}

// IdentifierError builds a KindIdentifierEncoding error.
func IdentifierError(entry string, err error) *Error {
	return &Error{Kind: KindIdentifierEncoding, Entry: entry, Message: "cannot build request target", Err: err}
}

// SinkError builds a KindSink error for the named storage operation.
func SinkError(op string, err error) *Error {
	return &Error{Kind: KindSink, Message: op, Err: err}
}

// ConfigurationError builds a KindConfiguration error.
func ConfigurationError(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// WithEntry attaches entry to a classified error that has none yet.
// The original error is not modified.
func WithEntry(err error, entry string) error {
	var he *Error
	if !errors.As(err, &he) || he.Entry != "" {
		return err
	}
	cp := *he
	cp.Entry = entry
	return &cp
}

// KindOf returns the classification of err. Errors that are not (and do not
// wrap) an *Error are KindUnknown; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether a failure of this kind may be attempted again.
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindTransport, KindStructuralParse, KindUnknown:
		return true
	case KindIdentifierEncoding, KindSink, KindConfiguration:
		// systemic defects, retrying cannot help
		return false
	default:
		return false
	}
}
