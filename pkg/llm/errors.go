package llm

import (
	"net"
	"net/http"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
)

// classifyTransportErr maps a network-level failure (dial/connection reset,
// context deadline) to the retryable dependency/timeout categories.
func classifyTransportErr(err error) error {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return apperr.Wrap(apperr.CategoryTimeout, "llm provider request timed out", err)
	}
	return apperr.Wrap(apperr.CategoryDependency, "llm provider request failed", err)
}

// classifyHTTPStatus maps a provider's HTTP status code to the taxonomy per
// spec.md §4.1 step 8: auth/4xx are non-retryable, 429 and 5xx are retryable.
func classifyHTTPStatus(status int, msg string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.New(apperr.CategoryAuth, msg)
	case status == http.StatusTooManyRequests:
		return apperr.New(apperr.CategoryRateLimit, msg)
	case status >= 500:
		return apperr.New(apperr.CategoryDependency, msg)
	case status >= 400:
		return apperr.New(apperr.CategoryValidation, msg)
	default:
		return apperr.New(apperr.CategoryInternal, msg)
	}
}
