package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound           = errors.New("docstore: not found")
	ErrPermissionDenied   = errors.New("docstore: permission denied")
	ErrFailedPrecondition = errors.New("docstore: failed precondition")
	ErrUnavailable        = errors.New("docstore: unavailable")
	ErrAborted            = errors.New("docstore: aborted")
	ErrInvalidPath        = errors.New("docstore: invalid path")
)

var sentinels = []error{
	ErrNotFound,
	ErrPermissionDenied,
	ErrFailedPrecondition,
	ErrUnavailable,
	ErrAborted,
	ErrInvalidPath,
}

// Messages that browsers and proxies produce when a request never reaches
// the backend (ad blockers, offline clients).
var networkMarkers = []string{
	"err_blocked_by_client",
	"blocked by client",
	"failed to fetch",
	"network error",
	"connection refused",
	"connection reset",
	"no such host",
}

func invalidPath(path string) error {
	return fmt.Errorf("%w: %q", ErrInvalidPath, path)
}

// Classify wraps a driver error in the matching sentinel so callers can
// branch with errors.Is. Errors that already carry a sentinel, context
// errors and unknown errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.NotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case codes.PermissionDenied, codes.Unauthenticated:
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		case codes.FailedPrecondition:
			return fmt.Errorf("%w: %v", ErrFailedPrecondition, err)
		case codes.Unavailable, codes.DeadlineExceeded:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		case codes.Aborted:
			return fmt.Errorf("%w: %v", ErrAborted, err)
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range networkMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return err
}
