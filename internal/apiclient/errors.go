package apiclient

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing listens on the bridge port
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates a non-2xx response
	ErrTypeHTTP
	// ErrTypeParse indicates a response that could not be decoded
	ErrTypeParse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned for every failed API call
type Error struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
	Retryable  bool      // Whether the call may succeed when repeated
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error
func ClassifyNetworkError(message string, err error) *Error {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &Error{Type: ErrTypeTimeout, Message: message, Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Type: ErrTypeDNS, Message: message, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &Error{Type: ErrTypeConnectionRefused, Message: message, Err: err, Retryable: true}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(message, urlErr.Err)
	}

	return &Error{Type: ErrTypeNetwork, Message: message, Err: err, Retryable: true}
}

// NewHTTPError creates an HTTP-level error. Gateway errors mean the bridge
// could not reach its IR blaster and are worth repeating.
func NewHTTPError(statusCode int, message string) *Error {
	return &Error{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *Error {
	return &Error{Type: ErrTypeParse, Message: message, Err: err}
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}

// IsRejected reports whether the bridge refused the request itself, e.g. an
// unknown unit or a mode the unit does not support.
func IsRejected(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type == ErrTypeHTTP && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
	}
	return false
}

// TroubleshootingHints returns advice for an error, one tip per line
func TroubleshootingHints(err error) []string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return nil
	}

	switch apiErr.Type {
	case ErrTypeTimeout:
		return []string{
			"The bridge did not respond in time",
			"Check that soleus-bridge is running",
			"Try increasing the timeout",
		}
	case ErrTypeConnectionRefused:
		return []string{
			"Nothing is listening at the bridge address",
			"Check the http.listen setting of the bridge",
			"Use 'soleus-ir scan' to find running bridges",
		}
	case ErrTypeDNS:
		return []string{
			"Use the IP address instead of the hostname",
			"Check that you are on the same network as the bridge",
		}
	case ErrTypeHTTP:
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			return []string{"Check the unit name against 'soleus-ir scan'"}
		case apiErr.StatusCode == http.StatusUnprocessableEntity:
			return []string{"The unit does not support these settings"}
		case apiErr.StatusCode >= 500:
			return []string{
				"The bridge could not transmit the frame",
				"Check the bridge log and its IR blaster",
			}
		}
	case ErrTypeParse:
		return []string{"Check that the bridge and soleus-ir versions match"}
	}
	return []string{"Check your network connection"}
}
