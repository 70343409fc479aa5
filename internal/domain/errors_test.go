package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := NewError(CodeNotFound, "scenario %q", "abc")
	assert.Equal(t, `not_found: scenario "abc"`, err.Error())

	var issues Issues
	issues.Add("capital.tranches[0].rate", "must be >= 0")
	issues.Add("project.discountRate", "is required")
	verr := issues.Err()
	require.Error(t, verr)
	assert.Equal(t,
		"validation_failed: 2 validation issue(s) (capital.tranches[0].rate: must be >= 0; project.discountRate: is required)",
		verr.Error())
}

func TestIssues_EmptyIsNil(t *testing.T) {
	var issues Issues
	assert.NoError(t, issues.Err())

	issues.Merge(nil)
	assert.NoError(t, issues.Err())
}

func TestIsCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("base case: %w", NewError(CodeComputationFailed, "boom"))
	assert.True(t, IsCode(err, CodeComputationFailed))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeNotFound))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", NewValidationError([]ValidationIssue{{Path: "x", Message: "y"}}), http.StatusUnprocessableEntity},
		{"invalid input", NewError(CodeInvalidInput, "bad"), http.StatusBadRequest},
		{"not found wrapped", fmt.Errorf("get: %w", NewError(CodeNotFound, "gone")), http.StatusNotFound},
		{"cancelled", NewError(CodeCancelled, "stop"), http.StatusRequestTimeout},
		{"computation", NewError(CodeComputationFailed, "nan"), http.StatusInternalServerError},
		{"plain error", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestAsError(t *testing.T) {
	inner := NewError(CodeNotFound, "run x not found")
	assert.Same(t, inner, AsError(fmt.Errorf("get: %w", inner)))

	wrapped := AsError(errors.New("disk full"))
	assert.Equal(t, CodeComputationFailed, wrapped.Code)
	assert.Equal(t, "disk full", wrapped.Message)
}
