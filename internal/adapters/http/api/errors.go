package api

import "errors"

// Sentinel kinds for API errors. The unavailable kinds carry the message
// shown to visitors.
var (
	ErrBadRequest        = errors.New("bad request")
	ErrGamesUnavailable  = errors.New("Oyunlar yüklenemedi")
	ErrImagesUnavailable = errors.New("Görseller yüklenemedi")
)

// Error ties a failure to the handler operation that produced it.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// WrapKind classifies err as kind for op.
func WrapKind(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Error returns the kind when one is set so responses never leak the
// underlying cause; the cause is still reachable through Unwrap and Cause.
func (e *Error) Error() string {
	if e.Kind != nil {
		return e.Kind.Error()
	}
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op
}

// Cause describes the full failure for logs.
func (e *Error) Cause() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}
