package errors

import (
	"errors"
	"fmt"
	"strings"
)

// CodedError is an error tagged with a taxonomy code. It wraps an optional
// underlying cause so callers can classify failures without string matching.
type CodedError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Err
}

// New creates a CodedError with the code's default message.
func New(code ErrorCode) *CodedError {
	return &CodedError{Code: code, Message: GetErrorMessage(code)}
}

// Newf creates a CodedError with a custom message.
func Newf(code ErrorCode, format string, args ...any) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a CodedError around an underlying cause.
func Wrap(code ErrorCode, err error) *CodedError {
	return &CodedError{Code: code, Message: GetErrorMessage(code), Err: err}
}

// Code extracts the error code from err, or empty string if err carries none.
func Code(err error) ErrorCode {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return Code(err) == code
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return strings.HasPrefix(string(Code(err)), "NOT_FOUND_")
}

// IsOwnershipViolation reports whether err is a cross-user access failure.
func IsOwnershipViolation(err error) bool {
	return strings.HasPrefix(string(Code(err)), "OWNERSHIP_")
}

// IsInvalidRange reports whether err is an inverted-range or out-of-bounds
// input failure, raised before any storage access.
func IsInvalidRange(err error) bool {
	return strings.HasPrefix(string(Code(err)), "RANGE_")
}

// IsConflict reports whether err is a uniqueness or in-use conflict.
func IsConflict(err error) bool {
	return strings.HasPrefix(string(Code(err)), "CONFLICT_")
}

// IsTransient reports whether the caller may retry the operation.
func IsTransient(err error) bool {
	return Code(err) == StorageTransient
}

// IsPartialConsistency reports whether a cross-store operation succeeded on
// one side and failed on the other.
func IsPartialConsistency(err error) bool {
	return Code(err) == PartialConsistency
}
