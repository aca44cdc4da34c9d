package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/muurk/soleus/internal/bridge"
	"github.com/muurk/soleus/internal/logging"
	"go.uber.org/zap"
)

// Config holds the server configuration
type Config struct {
	Listen      string // host:port
	DefaultUnit string // unit used when a request names none
}

// Server is the bridge HTTP API.
type Server struct {
	config     *Config
	units      map[string]*bridge.Bridge
	router     *httprouter.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]*websocket.Conn
}

// New creates a server for the given units.
func New(config *Config, units []*bridge.Bridge) (*Server, error) {
	if len(units) == 0 {
		return nil, errors.New("no units to serve")
	}

	s := &Server{
		config:      config,
		units:       make(map[string]*bridge.Bridge, len(units)),
		activeConns: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, u := range units {
		s.units[u.Name()] = u
	}
	if config.DefaultUnit != "" && s.units[config.DefaultUnit] == nil {
		return nil, fmt.Errorf("default unit %q is not served", config.DefaultUnit)
	}

	s.router = httprouter.New()
	s.routes()
	s.httpServer = &http.Server{
		Addr:              config.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() {
	s.router.GET("/api/units", s.handleUnits)
	s.router.GET("/api/state", s.handleGetState)
	s.router.PUT("/api/state", s.handlePutState)
	s.router.GET("/api/traits", s.handleTraits)
	s.router.GET("/api/frame", s.handleFrame)
	s.router.POST("/api/decode", s.handleDecode)
	s.router.GET("/ws", s.handleWebSocket)
}

// Handler returns the HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.router.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status)
	})
}

// unit resolves the ?unit= parameter, falling back to the default unit or
// the only unit served.
func (s *Server) unit(r *http.Request) (*bridge.Bridge, error) {
	name := r.URL.Query().Get("unit")
	if name == "" {
		name = s.config.DefaultUnit
	}
	if name == "" && len(s.units) == 1 {
		for only := range s.units {
			name = only
		}
	}
	if name == "" {
		return nil, fmt.Errorf("several units served; pass ?unit= (one of %v)", s.unitNames())
	}
	b := s.units[name]
	if b == nil {
		return nil, fmt.Errorf("unknown unit %q", name)
	}
	return b, nil
}

func (s *Server) unitNames() []string {
	names := make([]string, 0, len(s.units))
	for name := range s.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start listens and serves until ctx is cancelled, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on an existing listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	logging.Info("HTTP API listening", zap.String("addr", listener.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP API...")

	err := s.httpServer.Shutdown(ctx)

	// Hijacked websocket connections are not closed by http.Server
	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Info("Closing active connection", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	return err
}

// GetActiveConnections returns the number of open websocket connections
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap exposes the underlying writer to http.ResponseController
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
