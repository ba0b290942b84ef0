package models

import (
	"strings"
	"time"
)

// Scope names the endpoint family a limit applies to.
type Scope string

const (
	// ScopeVerify covers the public credential lookup.
	ScopeVerify Scope = "verify"
)

// Limit is a request budget over a sliding window.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// RateLimitResult is the outcome of a single admission check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set when denied
}

// NewIPKey builds the bucket key for a client IP within a scope.
func NewIPKey(scope Scope, ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}
	return "ratelimit:" + string(scope) + ":ip:" + ip
}

// RetryAfterSeconds rounds the wait until resetAt up to whole seconds, minimum 1.
func RetryAfterSeconds(now, resetAt time.Time) int {
	wait := resetAt.Sub(now)
	if wait <= 0 {
		return 1
	}
	secs := int(wait / time.Second)
	if wait%time.Second != 0 {
		secs++
	}
	return max(secs, 1)
}
