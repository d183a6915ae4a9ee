package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// HandshakeError reports a failed protocol handshake. The client stays
// (or returns to) Uninitialized when it occurs.
type HandshakeError struct {
	Reason string
	Err    error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("handshake failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("handshake failed: %s", e.Reason)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// ProtocolError reports a JSON-RPC-level error object returned by the
// server. Method names the failing method; for tools/call it carries the
// tool name instead, since that is what operators need to see.
type ProtocolError struct {
	Method  string
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s failed: %s (code %d)", e.Method, e.Message, e.Code)
}

// TransportError reports a non-2xx HTTP status from the endpoint.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// TimeoutError reports that one call exceeded its per-call budget.
// The budget is per attempt, never cumulative across retries.
type TimeoutError struct {
	Method string
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Method, e.Budget)
}

// IsTransient classifies errors the resilience layer may retry: network
// failures (including per-attempt timeouts), HTTP 429, and any 5xx.
// Protocol-level errors and handshake failures are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode == 429 || te.StatusCode >= 500
	}
	var toe *TimeoutError
	if errors.As(err, &toe) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
