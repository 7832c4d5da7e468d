package logger

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext() on empty ctx = %q, want empty", got)
	}

	ctx = WithRequestID(ctx, "req-abc123")
	if got := RequestIDFromContext(ctx); got != "req-abc123" {
		t.Errorf("RequestIDFromContext() = %q, want req-abc123", got)
	}
}

func TestFromContext(t *testing.T) {
	base := New()

	// Without request ID the base logger comes back unchanged.
	if got := FromContext(context.Background(), base); got != base {
		t.Error("FromContext() without request id should return the base logger")
	}

	ctx := WithRequestID(context.Background(), "req-xyz")
	if got := FromContext(ctx, base); got == nil || got == base {
		t.Error("FromContext() with request id should return a derived logger")
	}
}

func TestNew_ReturnsLogger(t *testing.T) {
	if New() == nil {
		t.Error("New() returned nil")
	}
}
