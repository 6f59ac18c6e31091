package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Kind is the stable failure taxonomy every caller observes. Mapping from
// raw transport/HTTP failures happens in one place (Client.do), never at
// call sites.
type Kind string

const (
	// KindUnreachable covers connection-level failures: refused, no route,
	// unknown host.
	KindUnreachable Kind = "unreachable"
	// KindTimeout means the fixed request timeout elapsed.
	KindTimeout Kind = "timeout"
	// KindServerError means the backend answered with a 5xx.
	KindServerError Kind = "server_error"
	// KindNotFound means the endpoint is missing (HTTP 404).
	KindNotFound Kind = "not_found"
	// KindUnknown is everything else, with the original text preserved.
	KindUnknown Kind = "unknown"
)

// Error is a normalized gateway failure.
type Error struct {
	Kind   Kind
	Op     string // "POST /chat" and the like
	Status int    // HTTP status when the backend answered, 0 otherwise
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway %s: %s (http %d): %v", e.Kind, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the taxonomy kind from any error; non-gateway errors
// classify as KindUnknown and nil as the empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindUnknown
}

// classifyTransport maps a failed round trip (no HTTP response at all)
// onto the taxonomy.
func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindUnreachable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindUnreachable
	}
	normalized := strings.ToLower(err.Error())
	switch {
	case strings.Contains(normalized, "connection refused"),
		strings.Contains(normalized, "no such host"),
		strings.Contains(normalized, "network is unreachable"):
		return KindUnreachable
	case strings.Contains(normalized, "timeout"),
		strings.Contains(normalized, "deadline exceeded"):
		return KindTimeout
	default:
		return KindUnknown
	}
}

// classifyStatus maps a non-2xx HTTP response onto the taxonomy.
func classifyStatus(status int) Kind {
	switch {
	case status >= 500:
		return KindServerError
	case status == 404:
		return KindNotFound
	default:
		return KindUnknown
	}
}
