package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetStatusCodes(t *testing.T) {
	cases := []struct {
		err  *APIError
		code int
		typ  ErrorType
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest, ErrorTypeValidation},
		{NewAuthError("who", nil), http.StatusUnauthorized, ErrorTypeAuth},
		{NewAuthorizationError("no", nil), http.StatusForbidden, ErrorTypeAuthorize},
		{NewNotFoundError("gone", nil), http.StatusNotFound, ErrorTypeNotFound},
		{NewConflictError("dup", nil), http.StatusConflict, ErrorTypeConflict},
		{NewDatabaseError("db", nil), http.StatusInternalServerError, ErrorTypeDatabase},
		{NewUnavailableError("down", nil), http.StatusServiceUnavailable, ErrorTypeUnavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.Code)
		assert.Equal(t, tc.typ, tc.err.Type)
	}
}

func TestWrappedAPIErrorIsDetected(t *testing.T) {
	base := NewNotFoundError("sensor not found", nil)
	wrapped := fmt.Errorf("lookup: %w", base)

	require.True(t, IsNotFound(wrapped))
	require.False(t, IsValidation(wrapped))

	apiErr, ok := AsAPIError(wrapped)
	require.True(t, ok)
	require.Same(t, base, apiErr)
}

func TestWrapKeepsAPIErrorAndConvertsOthers(t *testing.T) {
	denied := NewAuthorizationError("access denied", nil)
	require.Same(t, denied, Wrap(denied, "ignored"))

	converted := Wrap(stderrors.New("boom"), "export failed")
	require.Equal(t, ErrorTypeInternal, converted.Type)
	require.Equal(t, "export failed", converted.Message)
	require.Contains(t, converted.Error(), "boom")
}
