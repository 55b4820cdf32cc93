// Package service orchestrates cache-or-scrape reads and builds the uniform
// response envelope. Every public read resolves to an envelope; no error
// escapes this layer.
package service

import "time"

// ErrorCode tags an envelope-level error condition.
type ErrorCode string

const (
	// CodeScrapeFailed marks a total failure: scrape failed and no stale
	// entry existed.
	CodeScrapeFailed ErrorCode = "SCRAPE_FAILED"
	// CodeStaleData marks a degraded success: the scrape failed but an
	// expired cache entry was served instead.
	CodeStaleData ErrorCode = "STALE_DATA"
	// CodePartialFailure marks a dashboard read where at least one half
	// failed.
	CodePartialFailure ErrorCode = "PARTIAL_FAILURE"
	// CodeInvalidTerminal marks a bad terminal code, rejected before any
	// scrape.
	CodeInvalidTerminal ErrorCode = "INVALID_TERMINAL"
	// CodeInvalidDate marks a bad date parameter.
	CodeInvalidDate ErrorCode = "INVALID_DATE"
)

// ErrorInfo carries an envelope's error or warning.
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Envelope is the uniform read result. CachedAt is set whenever Data came
// from the cache (fresh or stale) rather than a live scrape; Error rides
// along with Success=true only for the stale-data degradation.
type Envelope[T any] struct {
	Success   bool       `json:"success"`
	Data      *T         `json:"data"`
	Error     *ErrorInfo `json:"error,omitempty"`
	CachedAt  *time.Time `json:"cachedAt,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Failure builds a success=false envelope.
func Failure[T any](code ErrorCode, message string, now time.Time) Envelope[T] {
	return Envelope[T]{
		Success:   false,
		Error:     &ErrorInfo{Code: code, Message: message},
		Timestamp: now,
	}
}
