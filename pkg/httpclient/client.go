// Package httpclient wraps *http.Client with the handful of
// conventions the LLM provider callers share: a configurable timeout,
// TLS transport override, and a pluggable response-header parser so a
// caller can surface rate-limit information the provider sends back
// without every call site re-parsing headers itself.
package httpclient

import (
	"crypto/tls"
	"net/http"
	"time"
)

// RateLimitInfo is what a HeaderParser extracts from a response.
// Zero value means the provider didn't send rate-limit headers.
type RateLimitInfo struct {
	LimitRequests     int
	RemainingRequests int
	LimitTokens       int
	RemainingTokens   int
	ResetRequests     time.Duration
	ResetTokens       time.Duration
}

// HeaderParser extracts RateLimitInfo from response headers. Returns
// the zero value if the headers aren't present.
type HeaderParser func(http.Header) RateLimitInfo

// Client is a thin *http.Client wrapper that records the last parsed
// RateLimitInfo from each response's headers.
type Client struct {
	inner        *http.Client
	headerParser HeaderParser
	lastLimit    RateLimitInfo
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the client-wide request timeout. Per-request
// deadlines applied via context still take precedence.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.inner.Timeout = d }
}

// WithInsecureSkipVerify disables TLS certificate verification.
// Intended for talking to local/proxy OpenAI-compatible backends
// during development, never for production providers.
func WithInsecureSkipVerify() Option {
	return func(c *Client) {
		c.inner.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// WithHeaderParser installs the parser used to extract RateLimitInfo
// from each response.
func WithHeaderParser(p HeaderParser) Option {
	return func(c *Client) { c.headerParser = p }
}

// New builds a Client with sane streaming defaults: no client-wide
// timeout (callers on long-lived SSE streams control their own
// deadline via context), applying opts in order.
func New(opts ...Option) *Client {
	c := &Client{inner: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues req and, if a header parser is configured, records the
// RateLimitInfo parsed from the response before returning it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.inner.Do(req)
	if err != nil {
		return nil, err
	}
	if c.headerParser != nil {
		c.lastLimit = c.headerParser(resp.Header)
	}
	return resp, nil
}

// LastRateLimit returns the RateLimitInfo parsed from the most recent
// response, or the zero value if none has been parsed yet.
func (c *Client) LastRateLimit() RateLimitInfo {
	return c.lastLimit
}
