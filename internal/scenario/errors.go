package scenario

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation         Kind = "validation"
	KindNoCuts             Kind = "no_cuts"
	KindEmptyResponse      Kind = "empty_response"
	KindMalformedResponse  Kind = "malformed_response"
	KindStructuralMismatch Kind = "structural_mismatch"
	KindService            Kind = "service"
)

// Error carries the failure kind so the top of the submission flow can pick a
// single user-facing message for it.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind, so errors.Is(err, ErrNoCuts) works for any wrapped Error
// of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrNoCuts             = &Error{Kind: KindNoCuts, Message: "no cuts produced"}
	ErrEmptyResponse      = &Error{Kind: KindEmptyResponse, Message: "empty response"}
	ErrMalformedResponse  = &Error{Kind: KindMalformedResponse, Message: "response is not valid JSON"}
	ErrStructuralMismatch = &Error{Kind: KindStructuralMismatch, Message: "response is missing the cuts array"}
	ErrService            = &Error{Kind: KindService, Message: "generation service failed"}
)

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func ValidationError(format string, args ...any) error {
	return newError(KindValidation, fmt.Sprintf(format, args...), nil)
}

// ErrUnsupported marks validation errors caused by a model or language
// outside the supported set.
var ErrUnsupported = errors.New("unsupported value")

// UnsupportedError reports a value outside the supported set, e.g.
// UnsupportedError("model", "gpt-4").
func UnsupportedError(what, value string) error {
	return newError(KindValidation, fmt.Sprintf("%s %q", what, value), ErrUnsupported)
}

func NoCutsError(message string) error {
	return newError(KindNoCuts, message, nil)
}

func ServiceError(err error) error {
	return newError(KindService, "generate scenario", err)
}

// KindOf reports the kind of err, or "" when err is not a scenario error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
