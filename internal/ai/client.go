package ai

import (
	"context"
	"errors"
	"fmt"
)

// Request is a single chat-completion call.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response carries the model reply and token usage.
type Response struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// Client is implemented by language-model providers.
type Client interface {
	Name() string
	Do(ctx context.Context, req Request) (Response, error)
}

var (
	ErrRateLimited = errors.New("rate_limited")
	// ErrMalformedOutput marks a reply that could not be parsed into the
	// expected structure. It shares the retry budget with transport errors.
	ErrMalformedOutput = errors.New("malformed model output")
)

// HTTPError represents a non-2xx status from the provider.
type HTTPError struct {
	StatusCode int
	Provider   string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.Provider, e.Body)
}

func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

func IsMalformedOutput(err error) bool { return errors.Is(err, ErrMalformedOutput) }
