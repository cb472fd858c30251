package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", fmt.Errorf("parse: %w", ErrInvalidInput), http.StatusBadRequest},
		{"invalid config", Invalidf("bad k1"), http.StatusBadRequest},
		{"duplicate", ErrDuplicateDocument, http.StatusConflict},
		{"not ready", ErrIndexNotReady, http.StatusServiceUnavailable},
		{"timeout", ErrTimeout, http.StatusGatewayTimeout},
		{"app error wins", New(ErrInvalidInput, http.StatusTeapot, "short and stout"), http.StatusTeapot},
		{"unknown", context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

func TestInvalidf(t *testing.T) {
	err := Invalidf("ranking.k1 must be > 0, got %g", -1.0)

	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, "invalid configuration: ranking.k1 must be > 0, got -1", err.Error())
}

func TestAppError_Unwraps(t *testing.T) {
	err := fmt.Errorf("handler: %w", Newf(ErrTimeout, http.StatusGatewayTimeout, "after %dms", 50))

	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, "handler: operation timed out: after 50ms", err.Error())
}
