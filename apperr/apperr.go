// Package apperr carries the error taxonomy shared by every component:
// validation failures are always raised before any remote call, auth
// failures force the caller back to the session entry point, remote
// failures surface the backing service's message verbatim when one is
// available, and not-found covers absent trip documents.
package apperr

import "errors"

type Kind int

const (
	KindValidation Kind = iota
	KindAuth
	KindRemote
	KindNotFound
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "erro desconhecido"
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a local pre-flight check failure. The message is
// user-facing and the input is always correctable.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// Auth reports a missing or expired session.
func Auth(msg string) error {
	return &Error{Kind: KindAuth, Msg: msg}
}

// Remote wraps a backing-service failure. msg may be empty, in which
// case the wrapped error's message is surfaced.
func Remote(msg string, err error) error {
	return &Error{Kind: KindRemote, Msg: msg, Err: err}
}

// NotFound reports an absent document.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// KindOf returns the taxonomy kind of err and whether err belongs to
// the taxonomy at all.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
