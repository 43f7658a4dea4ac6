package service

import "errors"

// Error kinds. Every error returned by a service satisfies errors.Is against one of these.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
)

// Error carries a client-facing message alongside its kind.
type Error struct {
	Kind    error
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.cause }

func newErr(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func invalid(msg string) error { return newErr(ErrValidation, msg) }

func internal(cause error) error {
	return &Error{Kind: ErrInternal, Message: "Internal server error", cause: cause}
}

// Message returns the client-facing text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
