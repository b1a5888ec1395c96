// Package action holds the order-action core: partial-fill presets, exact
// fill-value conversion, and unsigned transaction composition.
package action

import "errors"

// Code categorizes a request failure. The HTTP layer maps every code to a
// 400 with the error's single-line reason.
type Code string

const (
	CodeInvalidOrderID   Code = "invalid_order_id"
	CodeOrderNotFound    Code = "order_not_found"
	CodeInvalidAccount   Code = "invalid_account"
	CodeInvalidAmount    Code = "invalid_amount"
	CodeAmountOutOfRange Code = "amount_out_of_range"
	CodeZeroTotal        Code = "zero_total"
	CodeCompose          Code = "compose_failed"
	CodeUpstream         Code = "upstream_unavailable"
)

// Error is a coded request error with a human-readable one-line reason.
type Error struct {
	Code   Code
	Reason string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Reason + ": " + e.cause.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.cause }

// Err builds a coded error.
func Err(code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

// Wrap builds a coded error preserving its cause for logging. The cause
// never reaches the client, only Reason does.
func Wrap(code Code, reason string, cause error) *Error {
	return &Error{Code: code, Reason: reason, cause: cause}
}

// CodeOf extracts the code from err, or "" when err carries none.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
