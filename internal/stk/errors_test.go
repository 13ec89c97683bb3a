package stk

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		endpoint Endpoint
		status   int
		want     error
	}{
		{EndpointToken, http.StatusBadRequest, ErrContract},
		{EndpointToken, http.StatusUnauthorized, ErrAuthentication},
		{EndpointToken, http.StatusForbidden, ErrIntegration},
		{EndpointToken, http.StatusInternalServerError, ErrIntegration},
		{EndpointExecution, http.StatusBadRequest, ErrContract},
		{EndpointExecution, http.StatusUnauthorized, ErrAuthentication},
		{EndpointExecution, http.StatusForbidden, ErrIntegration},
		{EndpointExecution, http.StatusNotFound, ErrIntegration},
		{EndpointCallback, http.StatusBadRequest, ErrContract},
		{EndpointCallback, http.StatusUnauthorized, ErrAuthentication},
		{EndpointCallback, http.StatusForbidden, ErrPermission},
		{EndpointCallback, http.StatusBadGateway, ErrIntegration},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %d", tt.endpoint, tt.status), func(t *testing.T) {
			err := newStatusError(tt.endpoint, tt.status, []byte("body"))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.want, err.Kind)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	t.Run("integration carries status and body", func(t *testing.T) {
		err := newStatusError(EndpointExecution, http.StatusInternalServerError, []byte("boom"))
		assert.Equal(t, "integration failure with execution API: status_code: 500 message: boom", err.Error())
	})

	t.Run("empty body", func(t *testing.T) {
		err := newStatusError(EndpointCallback, http.StatusBadGateway, nil)
		assert.Contains(t, err.Error(), "message: No message")
	})

	t.Run("classified failure carries body", func(t *testing.T) {
		err := newStatusError(EndpointToken, http.StatusUnauthorized, []byte("invalid client"))
		assert.Equal(t, "authentication failure with token API: invalid client", err.Error())
	})

	t.Run("transport failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := newTransportError(EndpointCallback, cause)
		assert.Contains(t, err.Error(), "connection refused")
		assert.ErrorIs(t, err, ErrIntegration)
		assert.ErrorIs(t, err, cause)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(newStatusError(EndpointToken, http.StatusServiceUnavailable, nil)))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", newTransportError(EndpointExecution, errors.New("eof")))))
	assert.False(t, IsRetryable(newStatusError(EndpointToken, http.StatusUnauthorized, nil)))
	assert.False(t, IsRetryable(newStatusError(EndpointCallback, http.StatusForbidden, nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
}
