package models

import (
	"strings"
	"time"
)

// Result is the outcome of one sliding-window check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds until a slot frees up; zero when allowed
}

// LoginKey scopes login attempts to a client IP.
func LoginKey(ip string) string {
	return "ratelimit:login:" + sanitizeKeySegment(ip)
}

// sanitizeKeySegment keeps key segments from colliding with the separator.
func sanitizeKeySegment(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.ReplaceAll(s, ":", "_")
}

// ExceededResponse is the 429 body.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"error_description"`
	RetryAfter int    `json:"retry_after"`
}
