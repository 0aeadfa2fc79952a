// Package httputil provides shared HTTP plumbing for the baitline
// gateway: pooled clients per timeout tier, bounded body reads, and a
// dispatch limiter for fire-and-forget calls.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize caps response body reads so a hostile callback
// endpoint cannot balloon memory.
const MaxResponseSize = 1 * 1024 * 1024 // 1MB

// Shared transport with connection pooling, reused by every client so
// repeated callback posts keep their TCP connections warm.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier defines standard timeout categories.
type TimeoutTier int

const (
	// TierFast for best-effort outbound calls and health checks (5s)
	TierFast TimeoutTier = iota
	// TierMedium for standard API calls (30s)
	TierMedium
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierFast:   5 * time.Second,
	TierMedium: 30 * time.Second,
}

var (
	clientFast   *http.Client
	clientMedium *http.Client
	clientOnce   sync.Once
)

func initClients() {
	clientFast = &http.Client{
		Timeout:   timeoutDurations[TierFast],
		Transport: sharedTransport,
	}
	clientMedium = &http.Client{
		Timeout:   timeoutDurations[TierMedium],
		Transport: sharedTransport,
	}
}

// Client returns the shared HTTP client for the given timeout tier.
// Use these instead of constructing http.Client per request so the
// connection pool is actually shared.
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	if tier == TierFast {
		return clientFast
	}
	return clientMedium
}

// FastClient returns a client with a 5s timeout.
func FastClient() *http.Client {
	return Client(TierFast)
}

// ClientWithTimeout returns a client on the shared transport with a
// caller-chosen timeout, for callers whose deadline is configuration
// rather than a fixed tier.
func ClientWithTimeout(d time.Duration) *http.Client {
	if d <= 0 {
		d = timeoutDurations[TierFast]
	}
	return &http.Client{
		Timeout:   d,
		Transport: sharedTransport,
	}
}

// ReadResponseBody reads an HTTP response body with a size limit.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// DrainAndClose drains and closes a response body so the underlying
// connection can go back to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
