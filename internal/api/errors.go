package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// User-facing messages shared by the session, proxy and history components
const (
	MsgSessionExpired = "Session expired or unauthorized. Please log in again."
	MsgAuthFailed     = "Authentication failed"
	MsgUnknown        = "An unknown error occurred."
)

// ErrSessionExpired is returned after a 401/403 answer ended the session
var ErrSessionExpired = errors.New(MsgSessionExpired)

// StatusError is a non-2xx answer from the backend
type StatusError struct {
	StatusCode int

	// Message is the backend's "message" field (auth routes)
	Message string

	// ErrorText is the backend's "error" field (proxy route)
	ErrorText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// IsAuthFailure reports a 401 or 403 answer
func (e *StatusError) IsAuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// AsStatusError extracts a *StatusError from err's chain
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsAuthFailure reports whether err carries a 401/403 backend answer
func IsAuthFailure(err error) bool {
	se, ok := AsStatusError(err)
	return ok && se.IsAuthFailure()
}

// AuthMessage is the text shown for a failed login or register
func AuthMessage(err error) string {
	if se, ok := AsStatusError(err); ok {
		if se.Message != "" {
			return se.Message
		}
		return MsgAuthFailed
	}
	return Message(err)
}

// ProxyMessage is the text shown for a failed proxy call
func ProxyMessage(err error) string {
	if se, ok := AsStatusError(err); ok {
		if se.ErrorText != "" {
			return se.ErrorText
		}
		return se.Error()
	}
	return Message(err)
}

// Message converts any error from a backend call into a user-facing string
func Message(err error) string {
	if err == nil {
		return ""
	}

	if se, ok := AsStatusError(err); ok {
		return se.Error()
	}

	if errors.Is(err, context.Canceled) {
		return "Request cancelled by user"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timeout - the backend took too long to respond, check the timeout setting"
	}

	if msg := categorizeTransportError(err.Error()); msg != "" {
		return msg
	}

	if s := err.Error(); s != "" {
		return s
	}
	return MsgUnknown
}

// categorizeTransportError analyzes error strings from HTTP calls and provides
// actionable, user-friendly messages. Returns "" when nothing matches.
func categorizeTransportError(errStr string) string {
	errLower := strings.ToLower(errStr)

	// DNS resolution errors
	if strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "dial tcp: lookup") {
		return "DNS resolution failed - verify the backend hostname and that the network is available"
	}

	// Connection refused (server not running)
	if strings.Contains(errLower, "connection refused") {
		return "Connection refused - check that the backend is running and the API URL is correct"
	}

	if strings.Contains(errLower, "connection reset") {
		return "Connection reset by backend - it may have crashed or a network issue occurred"
	}

	if strings.Contains(errLower, "network is unreachable") ||
		strings.Contains(errLower, "no route to host") {
		return "Network unreachable - check network connection and firewall settings"
	}

	// TLS/SSL errors
	if strings.Contains(errLower, "x509") ||
		strings.Contains(errLower, "certificate") ||
		strings.Contains(errLower, "tls:") {
		return "TLS handshake with the backend failed - check its certificate"
	}

	if strings.Contains(errLower, "unsupported protocol") ||
		strings.Contains(errLower, "invalid url") ||
		strings.Contains(errLower, "missing protocol scheme") {
		return "Invalid API URL - verify the format and protocol (http/https)"
	}

	if strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "timed out") {
		return "Connection timeout - the backend took too long to respond"
	}

	// Malformed payloads from the backend
	if strings.Contains(errLower, "cannot unmarshal") ||
		strings.Contains(errLower, "invalid character") ||
		strings.Contains(errLower, "unexpected end of json") {
		return "Unexpected response from backend - the payload is not the expected JSON"
	}

	// EOF errors (connection closed unexpectedly)
	if strings.Contains(errLower, "eof") {
		return "Connection closed unexpectedly - the backend terminated the connection"
	}

	return ""
}
