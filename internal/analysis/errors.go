package analysis

import (
	"errors"
	"fmt"
)

// Kind classifies why an analysis failed.
type Kind string

const (
	KindInvalidInput         Kind = "invalid_input"
	KindConfigurationMissing Kind = "configuration_missing"
	KindNetworkFailure       Kind = "network_failure"
	KindUpstreamError        Kind = "upstream_error"
	KindFormatError          Kind = "format_error"
	KindIncompleteResult     Kind = "incomplete_result"
)

// Error is the single error type returned by Analyzer. Message is safe to show
// to the user as is.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind carried by err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
