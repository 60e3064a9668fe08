package llm

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/roelfdiedericks/rephrase/internal/failure"
)

// ClassifyMessage maps a provider error message to a failure kind.
// Returns failure.Network if nothing more specific matches.
func ClassifyMessage(msg string) failure.Kind {
	if msg == "" {
		return failure.Network
	}
	lower := strings.ToLower(msg)

	switch {
	case isRateLimitMessage(lower):
		return failure.RateLimited
	case isAuthMessage(lower):
		return failure.Misconfigured
	case isBlockedMessage(lower):
		return failure.ContentBlocked
	case isOverloadedMessage(lower), isTimeoutMessage(lower):
		return failure.Network
	}
	return failure.Network
}

// ClassifyStatus maps an HTTP status from a backend to a failure kind.
// ok is false for statuses that carry no classification on their own.
func ClassifyStatus(status int) (failure.Kind, bool) {
	switch {
	case status == 429:
		return failure.RateLimited, true
	case status == 401, status == 403:
		return failure.Misconfigured, true
	case status >= 500:
		return failure.Network, true
	}
	return "", false
}

// classify wraps a transport or SDK error into a *failure.Error.
func classify(provider string, status int, err error) error {
	if err == nil {
		return nil
	}
	var fe *failure.Error
	if errors.As(err, &fe) {
		return err
	}
	msg := provider + " request failed"
	if errors.Is(err, context.DeadlineExceeded) {
		return failure.Wrap(failure.Network, msg+": timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return failure.Wrap(failure.Network, msg+": cancelled", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return failure.Wrap(failure.Network, msg, err)
	}
	if kind, ok := ClassifyStatus(status); ok {
		return failure.Wrap(kind, msg, err)
	}
	return failure.Wrap(ClassifyMessage(err.Error()), msg, err)
}

func isRateLimitMessage(lower string) bool {
	if strings.Contains(lower, "429") {
		return true
	}
	return strings.Contains(lower, "rate_limit") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "exceeded your current quota") ||
		strings.Contains(lower, "quota exceeded") ||
		strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "resource has been exhausted") ||
		strings.Contains(lower, "requests per minute")
}

func isAuthMessage(lower string) bool {
	if strings.Contains(lower, "401") || strings.Contains(lower, "403") {
		return true
	}
	return strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "invalid_api_key") ||
		strings.Contains(lower, "incorrect api key") ||
		strings.Contains(lower, "api_key_invalid") ||
		strings.Contains(lower, "api key not valid") ||
		strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "permission_denied") ||
		strings.Contains(lower, "authentication")
}

func isBlockedMessage(lower string) bool {
	return strings.Contains(lower, "content_filter") ||
		strings.Contains(lower, "content filter") ||
		strings.Contains(lower, "safety") ||
		strings.Contains(lower, "blocked")
}

func isOverloadedMessage(lower string) bool {
	if strings.Contains(lower, "503") && (strings.Contains(lower, "service") || strings.Contains(lower, "unavailable")) {
		return true
	}
	return strings.Contains(lower, "overloaded") ||
		strings.Contains(lower, "server is busy") ||
		strings.Contains(lower, "temporarily unavailable")
}

func isTimeoutMessage(lower string) bool {
	return strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "connection refused")
}
