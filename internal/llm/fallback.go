package llm

import (
	"context"
	"errors"
	"fmt"
)

// FallbackAdapter attempts a fast primary model first and falls back to a
// more capable secondary on error. Context cancellation and auth failures
// are propagated without trying the secondary.
type FallbackAdapter struct {
	primary   Adapter
	secondary Adapter
}

func NewFallbackAdapter(primary, secondary Adapter) *FallbackAdapter {
	return &FallbackAdapter{primary: primary, secondary: secondary}
}

func (a *FallbackAdapter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if a == nil || a.primary == nil {
		if a != nil && a.secondary != nil {
			return a.secondary.Complete(ctx, req)
		}
		return "", fmt.Errorf("fallback adapter misconfigured")
	}

	text, err := a.primary.Complete(ctx, req)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "", err
	}
	if IsAuthError(err) {
		return "", err
	}
	if a.secondary == nil {
		return "", err
	}

	text, secondaryErr := a.secondary.Complete(ctx, req)
	if secondaryErr != nil {
		return "", fmt.Errorf("primary model error: %w; secondary model error: %v", err, secondaryErr)
	}
	return text, nil
}
