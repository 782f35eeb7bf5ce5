package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	assert.Equal(t, "[invalid_input] database name is required",
		New(ErrKindInvalidInput, "database name is required").Error())

	cause := errors.New("dial tcp: refused")
	assert.Equal(t, "[connection_failed] ping failed: dial tcp: refused",
		Wrap(ErrKindConnectionFailed, "ping failed", cause).Error())
}

func TestPredicates_ThroughWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"connection", Wrap(ErrKindConnectionFailed, "ping", nil), IsConnectionFailed},
		{"query", Wrap(ErrKindQueryFailed, "list tables", nil), IsQueryFailed},
		{"validation", Newf(ErrKindInvalidInput, "bad %s", "port"), IsInvalidInput},
		{"timeout", Wrap(ErrKindTimeout, "list columns", context.DeadlineExceeded), IsTimeout},
		{"not found", New(ErrKindNotFound, "no bucket"), IsNotFound},
		{"permission", New(ErrKindPermissionDenied, "denied"), IsPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("schema shop: %w", tt.err)
			assert.True(t, tt.pred(wrapped))
		})
	}
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
	assert.Equal(t, "unknown", ErrKindUnknown.String())
}

func TestUnwrap_ExposesCause(t *testing.T) {
	err := Wrap(ErrKindTimeout, "query", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrKind_OutOfRange(t *testing.T) {
	assert.Equal(t, "unknown", ErrKind(42).String())
	assert.Equal(t, "permission_denied", ErrKindPermissionDenied.String())
}
