package capture

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/soleus/internal/logging"
	"go.uber.org/zap"
)

// Source yields log lines. Next returns io.EOF when the stream ends.
type Source interface {
	Next() (string, error)
	Close() error
}

// ReaderSource reads lines from a file, a pipe or stdin
// (e.g. "esphome logs device.yaml | soleus-ir capture run").
type ReaderSource struct {
	r       io.Reader
	scanner *bufio.Scanner
}

// NewReaderSource wraps r.
func NewReaderSource(r io.Reader) *ReaderSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &ReaderSource{r: r, scanner: scanner}
}

func (s *ReaderSource) Next() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close closes the underlying reader when it is an io.Closer.
func (s *ReaderSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// dashboardEvent is a message of the ESPHome dashboard log stream
type dashboardEvent struct {
	Event string `json:"event"`
	Data  string `json:"data"`
	Code  int    `json:"code"`
}

// WebSocketSource reads a websocket log stream. Messages may be plain text
// or ESPHome dashboard events ({"event":"line","data":"..."}).
type WebSocketSource struct {
	conn    *websocket.Conn
	pending []string
}

// DialWebSocket connects to a log stream. A non-empty hello is sent as the
// first text message, which is how the ESPHome dashboard is told which
// device to follow.
func DialWebSocket(ctx context.Context, url, hello string) (*WebSocketSource, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	logging.LogConnection(url, "log_stream_connected")

	if hello != "" {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(hello)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to send hello: %w", err)
		}
	}
	return &WebSocketSource{conn: conn}, nil
}

func (s *WebSocketSource) Next() (string, error) {
	for len(s.pending) == 0 {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "", io.EOF
			}
			return "", err
		}
		logging.LogWebSocketMessage(s.conn.RemoteAddr().String(), "received", msgType, data)

		text := string(data)
		var ev dashboardEvent
		if strings.HasPrefix(strings.TrimSpace(text), "{") && json.Unmarshal(data, &ev) == nil && ev.Event != "" {
			switch ev.Event {
			case "line":
				text = ev.Data
			case "exit":
				logging.Info("Log stream ended", zap.Int("code", ev.Code))
				return "", io.EOF
			default:
				continue
			}
		}
		for _, line := range strings.Split(strings.TrimRight(text, "\r\n"), "\n") {
			s.pending = append(s.pending, strings.TrimRight(line, "\r"))
		}
	}

	line := s.pending[0]
	s.pending = s.pending[1:]
	return line, nil
}

func (s *WebSocketSource) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}
