package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"

	"server/internal/domain"
)

// ClassifyFailure maps raw provider error text to a coarse category by
// keyword matching. Best-effort heuristic: provider wording is not a
// contract.
func ClassifyFailure(reason string) domain.ErrorCategory {
	s := strings.ToLower(reason)
	switch {
	case containsAny(s, "policy", "nsfw", "violence", "hate", "illegal", "unsafe", "moderation"):
		return domain.CategoryContentPolicy
	case containsAny(s, "quota", "rate limit", "too many", "credit"):
		return domain.CategoryQuota
	case containsAny(s, "invalid", "unsupported", "malformed"):
		return domain.CategoryInvalid
	case containsAny(s, "timeout", "timed out"):
		return domain.CategoryTimeout
	default:
		return domain.CategoryOther
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// httpStatusError builds the failure for a non-2xx submit response. A
// recognizable error field in the body wins over the per-status text.
func httpStatusError(status int, raw []byte) error {
	detail := ""
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		detail = firstString(body, []string{"message", "error"})
	}
	cat := domain.CategoryOther
	switch {
	case status == 400:
		cat = domain.CategoryInvalid
	case status == 429:
		cat = domain.CategoryQuota
	}
	return &domain.GenerationError{Category: cat, Status: status, Detail: detail}
}

// classifyTransportError maps connectivity failures to a categorized
// error with enough shape left for the message catalog.
func classifyTransportError(err error) error {
	ge := &domain.GenerationError{Category: domain.CategoryTransport, Err: err}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		ge.Detail = transportTimedOut
	case errors.As(err, &netErr) && netErr.Timeout():
		ge.Detail = transportTimedOut
	case isDNSError(err):
		ge.Detail = transportNoHost
	default:
		ge.Detail = transportGeneric
	}
	return ge
}

// Transport detail markers, resolved to localized text by the catalog.
const (
	transportTimedOut = "timed_out"
	transportNoHost   = "no_host"
	transportGeneric  = "generic"
)

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
