package ledger

import (
	"strings"
	"time"
)

// EndpointPool is the ordered set of RPC addresses a client rotates through:
// the primary first, then each fallback. It is immutable after construction,
// so attempt loops read it without synchronization.
type EndpointPool struct {
	endpoints         []string
	maxRetries        int
	perAttemptTimeout time.Duration
}

// NewEndpointPool builds a pool from a primary address and ordered fallbacks.
// Addresses are trimmed and empty entries dropped; a trailing slash is
// stripped so cache keys and logs stay stable for equivalent URLs.
// A zero perAttemptTimeout falls back to DefaultPerAttemptTimeout and a
// negative maxRetries is treated as zero (single attempt, no retries).
func NewEndpointPool(primary string, fallbacks []string, maxRetries int, perAttemptTimeout time.Duration) *EndpointPool {
	endpoints := make([]string, 0, 1+len(fallbacks))
	if addr := normalizeEndpoint(primary); addr != "" {
		endpoints = append(endpoints, addr)
	}
	for _, fb := range fallbacks {
		if addr := normalizeEndpoint(fb); addr != "" {
			endpoints = append(endpoints, addr)
		}
	}

	if maxRetries < 0 {
		maxRetries = 0
	}
	if perAttemptTimeout <= 0 {
		perAttemptTimeout = DefaultPerAttemptTimeout
	}

	return &EndpointPool{
		endpoints:         endpoints,
		maxRetries:        maxRetries,
		perAttemptTimeout: perAttemptTimeout,
	}
}

// Endpoint returns the address serving the given attempt. Attempts rotate
// round-robin over the whole pool, so the first attempt lands on the primary
// and later attempts wrap back around after the last fallback.
func (p *EndpointPool) Endpoint(attempt int) string {
	if len(p.endpoints) == 0 {
		return ""
	}
	return p.endpoints[attempt%len(p.endpoints)]
}

// Primary returns the primary address, or "" for an empty pool.
func (p *EndpointPool) Primary() string {
	return p.Endpoint(0)
}

// Endpoints returns a copy of the ordered address list.
func (p *EndpointPool) Endpoints() []string {
	out := make([]string, len(p.endpoints))
	copy(out, p.endpoints)
	return out
}

// Size returns the number of addresses in the pool.
func (p *EndpointPool) Size() int {
	return len(p.endpoints)
}

// MaxRetries returns the number of retries after the initial attempt.
func (p *EndpointPool) MaxRetries() int {
	return p.maxRetries
}

// PerAttemptTimeout returns the timeout applied to each single attempt.
func (p *EndpointPool) PerAttemptTimeout() time.Duration {
	return p.perAttemptTimeout
}

func normalizeEndpoint(addr string) string {
	addr = strings.TrimSpace(addr)
	return strings.TrimSuffix(addr, "/")
}
