package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v3"
)

var (
	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded indicates the provider account quota was exceeded
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// APIError represents an error from an AI provider API
type APIError struct {
	Provider    string
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // true for quota errors, false for rate limits
	Err         error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests && !apiErr.IsPermanent
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}

	errStr := err.Error()
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "billing")
}

// IsRetryable reports whether a call failing with err is worth repeating:
// transient rate limits and provider-side 5xx failures.
func IsRetryable(err error) bool {
	if err == nil || IsQuotaError(err) {
		return false
	}
	if IsRateLimitError(err) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}

// ExtractAPIError converts an SDK error into an APIError, or returns nil when err
// did not come from a provider API response.
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var existing *APIError
	if errors.As(err, &existing) {
		return existing
	}

	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		apiErr := &APIError{
			Provider:   "openai",
			Message:    oaiErr.Message,
			Type:       oaiErr.Type,
			Code:       oaiErr.Code,
			StatusCode: oaiErr.StatusCode,
			Err:        err,
		}
		if apiErr.Message == "" {
			apiErr.Message = err.Error()
		}
		apiErr.IsPermanent = oaiErr.Code == "insufficient_quota"
		apiErr.RetryAfter = retryAfterFor(apiErr, oaiErr.Response)
		return apiErr
	}

	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		apiErr := &APIError{
			Provider:   "anthropic",
			Message:    err.Error(),
			StatusCode: antErr.StatusCode,
			Err:        err,
		}
		if antErr.StatusCode == http.StatusTooManyRequests {
			apiErr.Type = "rate_limit_error"
		}
		apiErr.RetryAfter = retryAfterFor(apiErr, antErr.Response)
		return apiErr
	}

	return nil
}

// wrapProviderError attaches API details to err when available
func wrapProviderError(operation string, err error) error {
	if apiErr := ExtractAPIError(err); apiErr != nil {
		return fmt.Errorf("failed to %s: %w", operation, apiErr)
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func retryAfterFor(apiErr *APIError, resp *http.Response) *time.Duration {
	if resp != nil {
		if raw := resp.Header.Get("Retry-After"); raw != "" {
			if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
				d := time.Duration(secs) * time.Second
				return &d
			}
		}
	}
	switch {
	case apiErr.IsPermanent:
		d := time.Hour
		return &d
	case apiErr.StatusCode == http.StatusTooManyRequests:
		d := 60 * time.Second
		return &d
	}
	return nil
}

// GetRetryDelay calculates the delay before retrying based on error type
func GetRetryDelay(err error, attempt int) time.Duration {
	// Shift is clamped to [0, 10] so the exponential cannot overflow
	var shift uint
	switch {
	case attempt <= 0:
		shift = 0
	case attempt > 10:
		shift = 10
	default:
		shift = uint(attempt)
	}

	if IsQuotaError(err) {
		delay := time.Hour * time.Duration(1<<shift)
		if delay > 24*time.Hour {
			delay = 24 * time.Hour
		}
		return delay
	}

	if IsRateLimitError(err) {
		delay := 60 * time.Second * time.Duration(1<<shift)
		if delay > 15*time.Minute {
			delay = 15 * time.Minute
		}
		if apiErr := ExtractAPIError(err); apiErr != nil && apiErr.RetryAfter != nil && *apiErr.RetryAfter > delay {
			delay = *apiErr.RetryAfter
		}
		return delay
	}

	delay := 5 * time.Second * time.Duration(1<<shift)
	if delay > 5*time.Minute {
		delay = 5 * time.Minute
	}
	return delay
}
