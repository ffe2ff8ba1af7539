package rag

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmbeddingService  = errors.New("embedding service error")
	ErrLLMService        = errors.New("llm service error")
	ErrServiceTimeout    = errors.New("service timeout")
	ErrMalformedResponse = errors.New("malformed response")
	ErrConfiguration     = errors.New("configuration error")
	ErrEmptyIndex        = errors.New("index is empty")
)

// ServiceError wraps a failure of an external dependency under kind. Timeouts
// additionally match ErrServiceTimeout.
func ServiceError(kind error, op string, err error) error {
	if IsTimeout(err) {
		return fmt.Errorf("%s failed: %w: %w: %w", op, kind, ErrServiceTimeout, err)
	}
	return fmt.Errorf("%s failed: %w: %w", op, kind, err)
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrServiceTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
