package reliability

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// StatusError is returned by HTTP-based backends for non-2xx replies.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http status %d: %s", e.Service, e.Code, e.Body)
}

// Retryable reports whether the upstream failure is transient.
func (e *StatusError) Retryable() bool {
	return IsRetryableHTTPStatus(e.Code)
}

// Reason maps an upstream failure to a short, bounded label suitable for metrics.
func Reason(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Retryable() {
			return "upstream_unavailable"
		}
		return "upstream_rejected"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	}
	return "error"
}
