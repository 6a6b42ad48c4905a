// Package apperr defines the error kinds surfaced by the ticketing services.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindAccessDenied     Kind = "access_denied"
	KindNotFound         Kind = "not_found"
	KindSignatureInvalid Kind = "signature_invalid"
	KindAmountMismatch   Kind = "amount_mismatch"
	KindOversold         Kind = "oversold"
	KindInvalidInput     Kind = "invalid_input"
	KindInvalidState     Kind = "invalid_state"
	KindConflict         Kind = "conflict"
	KindGateway          Kind = "gateway_error"
)

// Error carries a kind for status mapping, a stable machine code for
// clients, and a human message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

var (
	ErrAccessDenied     = &Error{Kind: KindAccessDenied}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrSignatureInvalid = &Error{Kind: KindSignatureInvalid}
	ErrAmountMismatch   = &Error{Kind: KindAmountMismatch}
	ErrOversold         = &Error{Kind: KindOversold}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
	ErrInvalidState     = &Error{Kind: KindInvalidState}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrGateway          = &Error{Kind: KindGateway}
)

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind Kind, code, msg string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Err: err}
}

func AccessDenied(msg string) *Error { return New(KindAccessDenied, "access_denied", msg) }

func NotFound(code, msg string) *Error { return New(KindNotFound, code, msg) }

func InvalidInput(code, msg string) *Error { return New(KindInvalidInput, code, msg) }

func InvalidState(code, msg string) *Error { return New(KindInvalidState, code, msg) }

// KindOf returns the kind of err, or "" for errors that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the machine code of err, or "" for errors that are not *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
