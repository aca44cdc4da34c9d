package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/muurk/soleus/internal/logging"
	"github.com/muurk/soleus/internal/protocol"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the default HTTP request timeout. It covers the
	// transmit done by the bridge for state changes.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second
)

// StateResponse is the state of one unit as served by the bridge
type StateResponse struct {
	Unit  string         `json:"unit"`
	State protocol.State `json:"state"`
	Frame string         `json:"frame"`
	Rule  string         `json:"rule"`
}

// UnitResponse describes one unit of the bridge
type UnitResponse struct {
	Name   string                 `json:"name"`
	State  protocol.State         `json:"state"`
	Frame  string                 `json:"frame"`
	Traits protocol.ClimateTraits `json:"traits"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to the HTTP API of a soleus-bridge
type Client struct {
	// BaseURL is the bridge address (e.g., "http://192.168.1.20:8088")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts; it doubles
	// after every attempt up to MaxRetryDelay
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewClient creates a client for the bridge at host:port
func NewClient(host string, port int) *Client {
	return NewClientWithURL("http://" + net.JoinHostPort(host, strconv.Itoa(port)))
}

// NewClientWithURL creates a client with a full base URL
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:       baseURL,
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Units lists the units served by the bridge
func (c *Client) Units(ctx context.Context) ([]UnitResponse, error) {
	var units []UnitResponse
	err := c.do(ctx, http.MethodGet, "/api/units", "", nil, &units)
	return units, err
}

// State returns the last known state of a unit. An empty unit selects the
// bridge's default unit.
func (c *Client) State(ctx context.Context, unit string) (*StateResponse, error) {
	var out StateResponse
	if err := c.do(ctx, http.MethodGet, "/api/state", unit, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetState asks the bridge to transmit s and returns the state it adopted.
// The request carries the whole state, so repeating it is harmless.
func (c *Client) SetState(ctx context.Context, unit string, s protocol.State) (*StateResponse, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out StateResponse
	if err := c.do(ctx, http.MethodPut, "/api/state", unit, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Traits returns the capabilities of a unit
func (c *Client) Traits(ctx context.Context, unit string) (protocol.ClimateTraits, error) {
	var out protocol.ClimateTraits
	err := c.do(ctx, http.MethodGet, "/api/traits", unit, nil, &out)
	return out, err
}

// do runs one request with retries and decodes the JSON response into out
func (c *Client) do(ctx context.Context, method, path, unit string, body []byte, out interface{}) error {
	var lastErr error
	delay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug("Retrying bridge request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.MaxRetryDelay {
				delay = c.MaxRetryDelay
			}
		}

		err := c.attempt(ctx, method, path, unit, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, path, unit string, body []byte, out interface{}) error {
	target := c.BaseURL + path
	if unit != "" {
		target += "?unit=" + url.QueryEscape(unit)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return NewParseError("failed to create request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return ClassifyNetworkError(method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ClassifyNetworkError("failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		msg := fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return NewHTTPError(resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return NewParseError("failed to parse JSON response", err)
		}
	}
	return nil
}
