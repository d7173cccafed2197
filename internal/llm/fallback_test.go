package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFallbackPrimarySucceeds(t *testing.T) {
	primary := NewMockAdapter("primary answer")
	secondary := NewMockAdapter("secondary answer")
	a := NewFallbackAdapter(primary, secondary)

	got, err := a.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "primary answer" {
		t.Fatalf("Complete() = %q, want primary answer", got)
	}
	if len(secondary.Calls) != 0 {
		t.Fatalf("secondary called %d times, want 0", len(secondary.Calls))
	}
}

func TestFallbackUsesSecondaryOnError(t *testing.T) {
	primary := NewMockAdapter()
	primary.Err = errors.New("model overloaded")
	secondary := NewMockAdapter("secondary answer")
	a := NewFallbackAdapter(primary, secondary)

	got, err := a.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "secondary answer" {
		t.Fatalf("Complete() = %q, want secondary answer", got)
	}
}

func TestFallbackSkipsSecondaryOnAuthError(t *testing.T) {
	primary := NewMockAdapter()
	primary.Err = ErrUnauthorized
	secondary := NewMockAdapter("secondary answer")
	a := NewFallbackAdapter(primary, secondary)

	_, err := a.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Complete() error = %v, want ErrUnauthorized", err)
	}
	if len(secondary.Calls) != 0 {
		t.Fatalf("secondary called on auth error")
	}
}

func TestFallbackSkipsSecondaryOnCancel(t *testing.T) {
	primary := NewMockAdapter()
	primary.Err = context.Canceled
	secondary := NewMockAdapter("secondary answer")
	a := NewFallbackAdapter(primary, secondary)

	_, err := a.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Complete() error = %v, want context.Canceled", err)
	}
	if len(secondary.Calls) != 0 {
		t.Fatalf("secondary called on cancellation")
	}
}

func TestFallbackCombinesBothErrors(t *testing.T) {
	primary := NewMockAdapter()
	primary.Err = errors.New("primary down")
	secondary := NewMockAdapter()
	secondary.Err = errors.New("secondary down")
	a := NewFallbackAdapter(primary, secondary)

	_, err := a.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil {
		t.Fatalf("Complete() expected error")
	}
	if !strings.Contains(err.Error(), "primary down") || !strings.Contains(err.Error(), "secondary down") {
		t.Fatalf("error should mention both failures: %v", err)
	}
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrUnauthorized, true},
		{errors.New("API returned unexpected status code: 401 Unauthorized"), true},
		{errors.New("Incorrect API key provided"), true},
		{errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		if got := IsAuthError(tt.err); got != tt.want {
			t.Fatalf("IsAuthError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
