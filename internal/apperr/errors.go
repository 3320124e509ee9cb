package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
)

// NotFound wraps ErrNotFound with the kind of entity that was missing.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// Validation wraps ErrValidation with a human readable reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// UpstreamFetchError is returned when a crawl target answers with a non-2xx
// status or cannot be reached at all (StatusCode is 0 in that case).
type UpstreamFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Failed to fetch website: %d", e.StatusCode)
	}
	return fmt.Sprintf("Failed to fetch website: %v", e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// GenerationError reports a failed or unusable language model call.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: generation failed: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsRateLimit reports whether the underlying failure looks like provider throttling.
func (e *GenerationError) IsRateLimit() bool {
	return IsRateLimitError(e.Err)
}

// Generation wraps err as a GenerationError unless it already is one.
func Generation(op string, err error) error {
	if err == nil {
		return nil
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	return &GenerationError{Op: op, Err: err}
}

// IsRateLimitError checks if err carries a 429 or quota/rate-limit message.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "RATELIMIT_EXCEEDED") {
		return true
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit")
}

// HTTPStatus maps an error from the service layer onto a response status.
func HTTPStatus(err error) int {
	var fetchErr *UpstreamFetchError
	var genErr *GenerationError
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.As(err, &fetchErr):
		return http.StatusBadRequest
	case errors.As(err, &genErr):
		if genErr.IsRateLimit() {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message is the client facing text for err. Validation errors lose their
// sentinel prefix and server side failures are not described at all.
func Message(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	msg := err.Error()
	if errors.Is(err, ErrValidation) {
		return strings.TrimPrefix(msg, ErrValidation.Error()+": ")
	}
	return msg
}
