package apiclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"
)

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		et   ErrorType
		want string
	}{
		{ErrTypeNetwork, "Network Error"},
		{ErrTypeTimeout, "Timeout"},
		{ErrTypeConnectionRefused, "Connection Refused"},
		{ErrTypeDNS, "DNS Error"},
		{ErrTypeHTTP, "HTTP Error"},
		{ErrTypeParse, "Parse Error"},
		{ErrorType(42), "ErrorType(42)"},
	}
	for _, tt := range tests {
		if got := tt.et.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.et, got, tt.want)
		}
	}
}

func TestClassifyNetworkError(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	dns := &net.DNSError{Name: "bridge.invalid", Err: "no such host"}

	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{"refused", refused, ErrTypeConnectionRefused, true},
		{"dns", dns, ErrTypeDNS, false},
		{"timeout", context.DeadlineExceeded, ErrTypeTimeout, true},
		{"other", errors.New("broken pipe"), ErrTypeNetwork, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError("GET /api/state failed", tt.err)
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("errors.Is(%v, %v) = false", got, tt.err)
			}
		})
	}

	if ClassifyNetworkError("x", nil) != nil {
		t.Error("ClassifyNetworkError(nil) should be nil")
	}
}

func TestHTTPErrorRetryable(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
		rejected  bool
	}{
		{http.StatusNotFound, false, true},
		{http.StatusUnprocessableEntity, false, true},
		{http.StatusBadGateway, true, false},
		{http.StatusInternalServerError, true, false},
	}
	for _, tt := range tests {
		err := NewHTTPError(tt.status, "x")
		if IsRetryable(err) != tt.retryable {
			t.Errorf("IsRetryable(%d) = %v, want %v", tt.status, !tt.retryable, tt.retryable)
		}
		if IsRejected(err) != tt.rejected {
			t.Errorf("IsRejected(%d) = %v, want %v", tt.status, !tt.rejected, tt.rejected)
		}
	}

	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors should not be retryable")
	}
}

func TestTroubleshootingHints(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"timeout", &Error{Type: ErrTypeTimeout}, 3},
		{"refused", &Error{Type: ErrTypeConnectionRefused}, 3},
		{"not found", NewHTTPError(http.StatusNotFound, "unknown unit"), 1},
		{"gateway", NewHTTPError(http.StatusBadGateway, "transmit failed"), 2},
		{"plain", errors.New("plain"), 0},
	}
	for _, tt := range tests {
		if got := TroubleshootingHints(tt.err); len(got) != tt.want {
			t.Errorf("%s: len(hints) = %d, want %d (%v)", tt.name, len(got), tt.want, got)
		}
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	client := NewClientWithURL("http://127.0.0.1:1")
	client.SetRetry(10, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := client.State(ctx, ""); err == nil {
		t.Fatal("State() error = nil")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("retry loop ignored cancellation")
	}
}
