package httpclient

import (
	"net/http"
	"strconv"
	"time"
)

// ParseOpenAIHeaders reads the `x-ratelimit-*` headers OpenAI and most
// OpenAI-compatible backends send on chat completion responses.
// Missing or malformed headers leave the corresponding field at zero.
func ParseOpenAIHeaders(h http.Header) RateLimitInfo {
	return RateLimitInfo{
		LimitRequests:     atoiOr(h.Get("x-ratelimit-limit-requests"), 0),
		RemainingRequests: atoiOr(h.Get("x-ratelimit-remaining-requests"), 0),
		LimitTokens:       atoiOr(h.Get("x-ratelimit-limit-tokens"), 0),
		RemainingTokens:   atoiOr(h.Get("x-ratelimit-remaining-tokens"), 0),
		ResetRequests:     durationOr(h.Get("x-ratelimit-reset-requests")),
		ResetTokens:       durationOr(h.Get("x-ratelimit-reset-tokens")),
	}
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// durationOr parses OpenAI's reset-window format ("6m0s", "1s") via
// time.ParseDuration, which already understands it.
func durationOr(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
