package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"
)

// Classify maps a provider error to a FailureKind.
//
// Providers report errors in different shapes, so classification goes from
// most to least structured:
//   - typed errors (sentinels, context expiry, SDK status codes)
//   - a JSON error body embedded in the message (error.type / error.code / error.status)
//   - substring markers in the message text
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, ErrEmptyResponse) {
		return FailureEmpty
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FailureUnknown
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if k := classifyStatus(apiErr.StatusCode); k != FailureUnknown {
			return k
		}
	}

	msg := err.Error()
	if k := classifyJSONBody(msg); k != FailureUnknown {
		return k
	}
	return classifyText(msg)
}

func classifyStatus(code int) FailureKind {
	switch code {
	case 429:
		return FailureRateLimited
	case 401, 403:
		return FailureUnauthorized
	case 404:
		return FailureModelUnavailable
	default:
		return FailureUnknown
	}
}

func classifyJSONBody(msg string) FailureKind {
	i := strings.Index(msg, "{")
	if i < 0 {
		return FailureUnknown
	}
	body := msg[i:]
	if !gjson.Valid(body) {
		return FailureUnknown
	}
	res := gjson.GetMany(body, "error.type", "error.code", "error.status", "type")
	for _, r := range res {
		if !r.Exists() {
			continue
		}
		if k := classifyMarker(strings.ToLower(r.String())); k != FailureUnknown {
			return k
		}
	}
	if code := gjson.Get(body, "error.code"); code.Type == gjson.Number {
		return classifyStatus(int(code.Int()))
	}
	return FailureUnknown
}

func classifyMarker(v string) FailureKind {
	switch v {
	case "rate_limit_error", "rate_limit_exceeded", "resource_exhausted", "insufficient_quota":
		return FailureRateLimited
	case "authentication_error", "permission_error", "invalid_api_key", "unauthenticated", "permission_denied":
		return FailureUnauthorized
	case "not_found_error", "model_not_found", "not_found":
		return FailureModelUnavailable
	default:
		return FailureUnknown
	}
}

var (
	rateLimitMarkers    = []string{"429", "rate limit", "rate_limit", "too many requests", "quota", "resource_exhausted"}
	unauthorizedMarkers = []string{"401", "403", "unauthorized", "invalid api key", "invalid_api_key", "invalid x-api-key", "unauthenticated", "permission_denied", "authentication"}
	modelMarkers        = []string{"404", "model_not_found", "not found", "not_found", "does not exist"}
)

func classifyText(msg string) FailureKind {
	lower := strings.ToLower(msg)
	switch {
	case containsAny(lower, rateLimitMarkers):
		return FailureRateLimited
	case containsAny(lower, unauthorizedMarkers):
		return FailureUnauthorized
	case containsAny(lower, modelMarkers):
		return FailureModelUnavailable
	default:
		return FailureUnknown
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
