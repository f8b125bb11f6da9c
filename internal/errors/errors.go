// Package errors defines typed errors with categories for gateway error handling.
// Every failure a session meets is classified into a Kind, which decides whether
// it becomes an Error response (protocol, backend, timeout, serialization) or
// tears the session down (transport).
//
// The package supports wrapping underlying errors while maintaining error kind
// information, and renders the client-facing text of an error via Describe.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Protocol indicates a malformed envelope, an unknown action or bad action data.
	Protocol Kind = "protocol"
	// Backend indicates a connection, syntax, permission or runtime failure in the data source.
	Backend Kind = "backend"
	// Timeout indicates a backend operation exceeded its deadline.
	Timeout Kind = "timeout"
	// Serialization indicates a response payload failed to encode.
	Serialization Kind = "serialization"
	// Transport indicates a read or write failure on the client connection.
	Transport Kind = "transport"
	// Unknown is reported for errors that carry no kind.
	Unknown Kind = "unknown"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the outermost *E in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Describe renders the text sent to clients in an Error response. Backend
// messages pass through verbatim; the kind prefix is never included.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var e *E
	if !stderrors.As(err, &e) {
		return err.Error()
	}
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return e.Message + ": " + e.Err.Error()
	}
}
