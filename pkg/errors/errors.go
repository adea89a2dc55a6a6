// Package errors provides coded errors for cookgems.
//
// Every failure a user can act on carries a [Code]: the CLI prints the
// message without the code, and the HTTP API maps the code to a status.
// Wrapping keeps the cause reachable through the standard errors package.
//
//	err := errors.New(errors.ErrCodeInvalidCookbook, "cookbook %s has no name", dir)
//	err = errors.Wrap(errors.ErrCodeInstallFailed, exitErr, "bundle install exited")
//	if errors.Is(err, errors.ErrCodeInstallFailed) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a machine-readable error code.
type Code string

const (
	// Bad input: cookbooks, metadata, gem names, config.
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidCookbook   Code = "INVALID_COOKBOOK"
	ErrCodeInvalidMetadata   Code = "INVALID_METADATA"
	ErrCodeInvalidGem        Code = "INVALID_GEM"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"
	ErrCodeDuplicateCookbook Code = "DUPLICATE_COOKBOOK"

	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeRunNotFound     Code = "RUN_NOT_FOUND"
	ErrCodeRuntimeNotFound Code = "RUNTIME_NOT_FOUND"

	// The Ruby side: Bundler too old, or the install itself failed.
	ErrCodeUnsupportedBundler Code = "UNSUPPORTED_BUNDLER"
	ErrCodeInstallFailed      Code = "INSTALL_FAILED"

	ErrCodeNetwork  Code = "NETWORK_ERROR"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Invalid reports whether c describes bad caller input.
func (c Code) Invalid() bool {
	return strings.HasPrefix(string(c), "INVALID_") || c == ErrCodeDuplicateCookbook
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with code and a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether any *Error in err's chain has code.
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error without its code
// or cause, or err.Error() for uncoded errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
