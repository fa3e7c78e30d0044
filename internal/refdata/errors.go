package refdata

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// CodeNotFound indicates a lookup miss: unknown flow id, location name
	// or provider link. Recoverable; the caller decides the fallback.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeRemoteWrite indicates the store rejected a create/insert, for
	// example an identity conflict with different content. Fatal for the
	// resolution that triggered it; never retried here.
	CodeRemoteWrite ErrorCode = "REMOTE_WRITE"

	// CodeUnavailable indicates a transport-level failure talking to the
	// store. Propagated untouched; retry policy belongs to the transport.
	CodeUnavailable ErrorCode = "UNAVAILABLE"
)

// Error is a typed store failure.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the store operation that failed, e.g. "getFlow".
	Op string

	// Key identifies the record involved, when there is one.
	Key string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Op)
	if e.Key != "" {
		msg += fmt.Sprintf(" (%s)", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds a lookup-miss error.
func NotFound(op, key string) *Error {
	return &Error{Code: CodeNotFound, Op: op, Key: key}
}

// RemoteWrite builds a rejected-insert error.
func RemoteWrite(op, key string, err error) *Error {
	return &Error{Code: CodeRemoteWrite, Op: op, Key: key, Err: err}
}

// Unavailable builds a transport-failure error.
func Unavailable(op string, err error) *Error {
	return &Error{Code: CodeUnavailable, Op: op, Err: err}
}

// IsNotFound reports whether err is a store lookup miss.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeNotFound
}

// IsRemoteWrite reports whether err is a rejected insert.
func IsRemoteWrite(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeRemoteWrite
}

// IsUnavailable reports whether err is a transport-level store failure.
func IsUnavailable(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeUnavailable
}
