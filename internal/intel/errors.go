package intel

import (
	"fmt"
	"strings"

	"fintrack/internal/common"
)

// classifyAPIError wraps a model call failure so the retry loop can tell
// transient faults from hard ones. Hard failures (bad API key, malformed
// request) stop retrying immediately.
func classifyAPIError(stage string, err error) error {
	return &common.RetryableError{
		Err:       fmt.Errorf("%s: %w", stage, err),
		Retryable: retryableAPIError(err),
	}
}

// retryableAPIError determines if a model API failure should trigger a retry.
func retryableAPIError(err error) bool {
	if common.IsRetryable(err) {
		return true
	}

	// Check the error message for common retryable patterns.
	msg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"connection",
		"temporary",
		"rate limit",
		"429", // HTTP Too Many Requests
		"503", // HTTP Service Unavailable
		"504", // HTTP Gateway Timeout
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}
