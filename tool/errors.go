package tool

import (
	"errors"
	"fmt"
)

// ErrorKind classifies adapter failures for retry decisions.
type ErrorKind string

const (
	// KindTransient covers network errors, timeouts and 5xx/429 responses.
	// Transient errors are the only retryable kind.
	KindTransient ErrorKind = "transient"

	// KindMalformed covers schema mismatches and unexpected responses from
	// an external service. Not retryable.
	KindMalformed ErrorKind = "malformed_response"
)

// Error is a classified failure from an external service adapter.
type Error struct {
	Kind    ErrorKind
	Service string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Service, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func transientErr(service string, err error) *Error {
	return &Error{Kind: KindTransient, Service: service, Err: err}
}

func malformedErr(service string, err error) *Error {
	return &Error{Kind: KindMalformed, Service: service, Err: err}
}

// IsTransient reports whether err is a transient adapter error.
func IsTransient(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == KindTransient
}

// IsMalformed reports whether err is a malformed-response adapter error.
func IsMalformed(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == KindMalformed
}
