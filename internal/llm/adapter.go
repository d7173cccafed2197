package llm

import (
	"context"
	"errors"
	"strings"
)

// CompletionRequest is a single-shot prompt to a language model.
type CompletionRequest struct {
	System string
	Prompt string
}

// Adapter abstracts a chat-completion backend.
type Adapter interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ErrUnauthorized marks authentication/authorization failures. These are
// never retried and never handed to a fallback model.
var ErrUnauthorized = errors.New("llm request unauthorized")

// IsAuthError reports whether err looks like a credentials problem,
// either our own sentinel or a provider error message.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"status code: 401",
		"status code: 403",
		"unauthorized",
		"invalid api key",
		"incorrect api key",
		"permission denied",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
