package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{ErrConversationNotFound, http.StatusNotFound},
		{ErrConversationClosed, http.StatusConflict},
		{ErrEmptyMessage, http.StatusBadRequest},
		{ErrMessageTooLong, http.StatusBadRequest},
		{ErrInvalidRole, http.StatusBadRequest},
		{ErrInvalidToken, http.StatusUnauthorized},
		{ErrTokenExpired, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{errors.New("storage unreachable"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, HTTPStatusFromError(tt.err), tt.err.Error())
	}
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrEmptyMessage))
	assert.True(t, IsValidation(ErrInvalidRole))
	assert.False(t, IsValidation(ErrConversationClosed))
	assert.False(t, IsValidation(errors.New("io error")))
}
