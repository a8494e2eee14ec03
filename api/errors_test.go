package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorSingleDetail(t *testing.T) {
	err := parseError(401, []byte(`{"detail": "Invalid credentials"}`))
	assert.Equal(t, 401, err.Status)
	assert.Equal(t, "Invalid credentials", err.Message)
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestParseErrorListDetail(t *testing.T) {
	err := parseError(422, []byte(`{"detail": ["email is required", "password must be at least 8 characters"]}`))
	assert.Equal(t, 422, err.Status)
	assert.Equal(t, "email is required, password must be at least 8 characters", err.Message)
}

func TestParseErrorSingleItemList(t *testing.T) {
	err := parseError(422, []byte(`{"detail": ["content is required"]}`))
	assert.Equal(t, "content is required", err.Message)
}

func TestParseErrorUnknownDetailShape(t *testing.T) {
	// Structured detail objects are not a shape the client understands;
	// fall back to the status text rather than dumping JSON at the user.
	err := parseError(422, []byte(`{"detail": {"loc": ["body", "email"], "msg": "invalid"}}`))
	assert.Equal(t, "Unprocessable Entity", err.Message)
}

func TestParseErrorMalformedBody(t *testing.T) {
	err := parseError(500, []byte(`<html>Internal Server Error</html>`))
	assert.Equal(t, "Internal Server Error", err.Message)
}

func TestParseErrorEmptyBody(t *testing.T) {
	err := parseError(404, nil)
	assert.Equal(t, "Not Found", err.Message)
}

func TestParseErrorUnnamedStatus(t *testing.T) {
	// 499 has no standard status text.
	err := parseError(499, []byte(`{}`))
	assert.Equal(t, "request failed", err.Message)
}

func TestParseErrorEmptyStringDetail(t *testing.T) {
	err := parseError(400, []byte(`{"detail": ""}`))
	assert.Equal(t, "Bad Request", err.Message)
}

func TestErrorAs(t *testing.T) {
	var err error = parseError(403, []byte(`{"detail": "Forbidden for this plan"}`))
	wrapped := fmt.Errorf("listing keys: %w", err)

	var apiErr *Error
	require.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, 403, apiErr.Status)
	assert.Equal(t, "Forbidden for this plan", apiErr.Message)
}

func TestClassifyDetail(t *testing.T) {
	kind, msg := classifyDetail([]byte(`"one message"`))
	assert.Equal(t, detailSingle, kind)
	assert.Equal(t, "one message", msg)

	kind, msg = classifyDetail([]byte(`["a", "b"]`))
	assert.Equal(t, detailList, kind)
	assert.Equal(t, "a, b", msg)

	kind, _ = classifyDetail([]byte(`42`))
	assert.Equal(t, detailUnknown, kind)
}
