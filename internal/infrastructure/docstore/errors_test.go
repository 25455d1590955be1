package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"grpc not found", status.Error(codes.NotFound, "no doc"), ErrNotFound},
		{"grpc permission denied", status.Error(codes.PermissionDenied, "rules"), ErrPermissionDenied},
		{"grpc unauthenticated", status.Error(codes.Unauthenticated, "token"), ErrPermissionDenied},
		{"missing index", status.Error(codes.FailedPrecondition, "The query requires an index"), ErrFailedPrecondition},
		{"grpc unavailable", status.Error(codes.Unavailable, "backend"), ErrUnavailable},
		{"grpc aborted", status.Error(codes.Aborted, "contention"), ErrAborted},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrUnavailable},
		{"blocked by client", errors.New("net::ERR_BLOCKED_BY_CLIENT"), ErrUnavailable},
		{"failed to fetch", errors.New("TypeError: Failed to fetch"), ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(Classify(tt.err), tt.want))
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	assert.Nil(t, Classify(nil))

	already := fmt.Errorf("wrapped: %w", ErrNotFound)
	assert.Same(t, already, Classify(already))

	canceled := fmt.Errorf("stop: %w", context.Canceled)
	assert.Equal(t, canceled, Classify(canceled))

	plain := errors.New("boom")
	assert.Equal(t, plain, Classify(plain))
}

func TestSplitPath(t *testing.T) {
	collection, id, err := SplitPath("chats/c1/messages/m1")
	assert.NoError(t, err)
	assert.Equal(t, "chats/c1/messages", collection)
	assert.Equal(t, "m1", id)

	_, _, err = SplitPath("chats/c1/messages")
	assert.True(t, errors.Is(err, ErrInvalidPath))

	_, _, err = SplitPath("chats/")
	assert.True(t, errors.Is(err, ErrInvalidPath))
}
