package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a machine-readable failure category.
type ErrorCode string

const (
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeInvalidInput      ErrorCode = "invalid_input"
	CodeComputationFailed ErrorCode = "computation_failed"
	CodeNotFound          ErrorCode = "not_found"
	CodeCancelled         ErrorCode = "cancelled"
)

// ValidationIssue points at one invalid field.
type ValidationIssue struct {
	Path    string `json:"path" msgpack:"path"`
	Message string `json:"message" msgpack:"message"`
}

// Error is the failure side of every fallible engine operation.
type Error struct {
	Code    ErrorCode         `json:"code" msgpack:"code"`
	Message string            `json:"message" msgpack:"message"`
	Issues  []ValidationIssue `json:"issues,omitempty" msgpack:"issues,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, "; "))
}

// NewError creates an error with the given code.
func NewError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError wraps a set of issues.
func NewValidationError(issues []ValidationIssue) *Error {
	return &Error{
		Code:    CodeValidationFailed,
		Message: fmt.Sprintf("%d validation issue(s)", len(issues)),
		Issues:  issues,
	}
}

// IsCode reports whether err is a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// AsError returns the *Error carried by err, or wraps a foreign error as computation_failed.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeComputationFailed, Message: err.Error()}
}

// Issues collects validation problems before any computation starts.
type Issues []ValidationIssue

// Add records an issue at path.
func (is *Issues) Add(path, format string, args ...interface{}) {
	*is = append(*is, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Merge appends issues from another collection.
func (is *Issues) Merge(other []ValidationIssue) {
	*is = append(*is, other...)
}

// Err returns nil when no issues were collected.
func (is Issues) Err() error {
	if len(is) == 0 {
		return nil
	}
	return NewValidationError(is)
}

// HTTPStatus maps an error to the response status the API uses for it.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case CodeValidationFailed:
		return http.StatusUnprocessableEntity
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
