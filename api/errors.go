// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for the relay.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrTransportClosed = errors.New("transport is closed")
	ErrWouldBlock      = errors.New("operation would block")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotSupported    = errors.New("operation not supported")
	ErrAlreadyExists   = errors.New("resource already exists")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeInvalidArgument ErrorCode = iota + 1
	ErrCodeSetup                     // socket, bind, listen, connect or registration failure
	ErrCodePeer                      // peer closed or socket error on an established connection
	ErrCodeProtocol                  // codec rejected a record
	ErrCodeInternal                  // the event loop's poller failed
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeSetup:
		return "setup"
	case ErrCodePeer:
		return "peer"
	case ErrCodeProtocol:
		return "protocol"
	case ErrCodeInternal:
		return "internal"
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// Wrap creates a structured error around err.
func Wrap(code ErrorCode, message string, err error) *Error {
	e := NewError(code, message)
	e.Err = err
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsSetup reports whether err is a fatal setup failure.
func IsSetup(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeSetup
}
