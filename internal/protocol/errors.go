package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedMessage = errors.New("protocol: malformed message")

	ErrEmptySender   = errors.New("protocol: empty sender")
	ErrUnknownKind   = errors.New("protocol: unknown kind")
	ErrMissingField  = errors.New("protocol: missing field")
	ErrInvalidNumber = errors.New("protocol: invalid number")
	ErrInvalidTool   = errors.New("protocol: invalid tool")
	ErrInvalidField  = errors.New("protocol: invalid field")
)

// malformed tags cause as a malformed message so callers can match either error.
func malformed(cause error, format string, args ...any) error {
	return &malformedError{cause: cause, detail: fmt.Sprintf(format, args...)}
}

type malformedError struct {
	cause  error
	detail string
}

func (e *malformedError) Error() string {
	if e.detail == "" {
		return e.cause.Error()
	}
	return e.cause.Error() + ": " + e.detail
}

func (e *malformedError) Unwrap() []error {
	return []error{ErrMalformedMessage, e.cause}
}
