package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foodshare/internal/infrastructure/docstore"
)

func TestFromStore(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      string
		status    int
		retryable bool
	}{
		{"not found", docstore.ErrNotFound, CodeNotFound, http.StatusNotFound, false},
		{"permission", status.Error(codes.PermissionDenied, "rules"), CodePermissionDenied, http.StatusForbidden, false},
		{"index", status.Error(codes.FailedPrecondition, "index"), CodeIndexRequired, http.StatusPreconditionFailed, false},
		{"ad blocker", errors.New("net::ERR_BLOCKED_BY_CLIENT"), CodeUnavailable, http.StatusServiceUnavailable, true},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStore(tt.err, "Chat")
			var appErr *AppError
			if assert.True(t, errors.As(err, &appErr)) {
				assert.Equal(t, tt.code, appErr.Code)
				assert.Equal(t, tt.status, appErr.Status)
				assert.Equal(t, tt.retryable, appErr.Retryable)
			}
			assert.True(t, Is(err, tt.code))
		})
	}
}

func TestFromStore_PassesAppErrorsThrough(t *testing.T) {
	original := BadRequest("content is required", nil)
	assert.Same(t, original, FromStore(original, "Message"))
	assert.Nil(t, FromStore(nil, "Message"))
}

func TestIs_Wrapped(t *testing.T) {
	err := fmt.Errorf("send: %w", NotFound("Chat", docstore.ErrNotFound))
	assert.True(t, Is(err, CodeNotFound))
	assert.False(t, Is(err, CodeForbidden))
	assert.True(t, errors.Is(err, docstore.ErrNotFound))
}
