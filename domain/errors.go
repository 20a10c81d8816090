package domain

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline errors so callers can apply the per-stage
// criticality policy without string matching.
type Kind string

const (
	// KindInput marks missing or invalid caller-supplied data.
	KindInput Kind = "input"
	// KindUpstream marks a failed call to a required external service.
	KindUpstream Kind = "upstream"
	// KindParse marks a model response that could not be coerced into the
	// expected structure.
	KindParse Kind = "parse"
	// KindTimeout marks a bounded wait that exceeded its ceiling. Timeouts on
	// best-effort stages resolve to an absent result and are never surfaced
	// to the request.
	KindTimeout Kind = "timeout"
	// KindPersistence marks a record that could not be written or read.
	KindPersistence Kind = "persistence"
	// KindNotFound marks a record that does not exist, or that the caller is
	// not allowed to know exists.
	KindNotFound Kind = "not_found"
	// KindForbidden marks a write against a record the caller does not own.
	KindForbidden Kind = "forbidden"
)

// Error is the pipeline error type. Service identifies the external
// collaborator for upstream failures.
type Error struct {
	Kind    Kind
	Service string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Service != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Service, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Service != "":
		return fmt.Sprintf("%s: %s", e.Service, e.Message)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewInputError reports invalid caller input.
func NewInputError(message string) *Error {
	return &Error{Kind: KindInput, Message: message}
}

// NewUpstreamError reports a failed required external call.
func NewUpstreamError(service, message string, err error) *Error {
	return &Error{Kind: KindUpstream, Service: service, Message: message, Err: err}
}

// NewParseError reports a model response that failed the structural contract.
func NewParseError(message string, err error) *Error {
	return &Error{Kind: KindParse, Message: message, Err: err}
}

// NewTimeoutError reports an exceeded polling ceiling.
func NewTimeoutError(service, message string) *Error {
	return &Error{Kind: KindTimeout, Service: service, Message: message}
}

// NewPersistenceError reports a record that could not be written.
func NewPersistenceError(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// NewNotFoundError reports an absent (or hidden) record.
func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// NewForbiddenError reports a write denied by ownership.
func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// KindOf returns the kind of err, or the empty kind when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
