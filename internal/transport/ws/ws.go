// Package ws implements the presence transport over WebSocket.
//
// The gateway side serves a single upgrade route (default /ws/) and feeds
// every text or binary message from every connected device into one bounded
// queue. The device side dials that route and writes one text message per
// frame. Frames on this transport use the presence envelope codec.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-presence/internal/transport"
)

const (
	// DefaultPath is the upgrade route served by the gateway.
	DefaultPath = "/ws/"

	// defaultMaxMessageSize bounds a single device frame.
	defaultMaxMessageSize = 8192

	// defaultWriteTimeout applies to sends whose context has no deadline.
	defaultWriteTimeout = 5 * time.Second

	// readHeaderTimeout bounds the HTTP upgrade request.
	readHeaderTimeout = 10 * time.Second
)

// Logger defines the logging interface used by the WebSocket transport.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Listener serves the WebSocket upgrade route.
type Listener struct {
	Path           string
	HighWaterMark  int
	MaxMessageSize int64
	Logger         Logger
}

// Listen starts an HTTP server at endpoint accepting device WebSocket connections.
func (l Listener) Listen(ctx context.Context, endpoint string) (transport.Receiver, error) {
	ep, err := transport.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	switch ep.Scheme {
	case "tcp", "ws", "http":
	default:
		return nil, fmt.Errorf("%w: %s", transport.ErrUnsupportedScheme, ep.Scheme)
	}

	path := l.Path
	if path == "" {
		path = DefaultPath
	}
	logger := l.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	limit := l.MaxMessageSize
	if limit <= 0 {
		limit = defaultMaxMessageSize
	}

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", ep.HostPort())
	if err != nil {
		return nil, fmt.Errorf("ws: listen %s: %w", ep.HostPort(), err)
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	h := &hub{
		queue:  transport.NewQueue(l.HighWaterMark),
		conns:  make(map[*websocket.Conn]struct{}),
		limit:  limit,
		ctx:    baseCtx,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}

	r := chi.NewRouter()
	r.Get(path, h.handleUpgrade)

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("websocket listener stopped", "error", err)
			h.queue.CloseWithError(fmt.Errorf("ws: serve: %w", err))
		}
	}()

	addr := ln.Addr().String()
	logger.Info("websocket listener bound", "address", addr, "path", path, "high_water_mark", h.queue.Cap())

	return transport.NewQueueReceiver(h.queue, addr, func() error {
		cancel()
		err := srv.Close()
		h.closeAll()
		h.wg.Wait()
		return err
	}), nil
}

// hub tracks connected devices. Hijacked connections are not closed by
// http.Server.Close, so the hub closes them itself.
type hub struct {
	queue    *transport.Queue
	upgrader websocket.Upgrader
	limit    int64
	ctx      context.Context
	logger   Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	wg    sync.WaitGroup
}

func (h *hub) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	if !h.register(conn) {
		conn.Close()
		return
	}
	h.logger.Debug("device websocket connected", "remote", r.RemoteAddr)

	h.readPump(conn)
}

func (h *hub) register(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx.Err() != nil {
		return false
	}
	h.conns[conn] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.wg.Done()
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// readPump queues every data message from one device until the connection ends.
func (h *hub) readPump(conn *websocket.Conn) {
	defer h.unregister(conn)

	conn.SetReadLimit(h.limit)
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && h.ctx.Err() == nil {
				h.logger.Warn("device websocket read error", "error", err)
			} else {
				h.logger.Debug("device websocket closed", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		if err := h.queue.Push(h.ctx, data); err != nil {
			return
		}
	}
}

// Dialer connects devices to a gateway's WebSocket route.
type Dialer struct {
	// Path is used when the endpoint has none. Empty means DefaultPath.
	Path string
}

// Dial opens a WebSocket connection to endpoint (ws://host:port/path or tcp://host:port).
func (d Dialer) Dial(ctx context.Context, endpoint string) (transport.Sender, error) {
	ep, err := transport.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	scheme := "ws"
	switch ep.Scheme {
	case "tcp", "ws", "http":
	case "wss", "https":
		scheme = "wss"
	default:
		return nil, fmt.Errorf("%w: %s", transport.ErrUnsupportedScheme, ep.Scheme)
	}

	path := ep.Path
	if path == "" {
		path = d.Path
	}
	if path == "" {
		path = DefaultPath
	}

	u := url.URL{Scheme: scheme, Host: ep.HostPort(), Path: path}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", u.String(), err)
	}
	return &sender{conn: conn}, nil
}

type sender struct {
	conn *websocket.Conn
}

func (s *sender) Send(ctx context.Context, frame []byte) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultWriteTimeout)
	}
	//nolint:errcheck // Best-effort deadline; write error caught below
	s.conn.SetWriteDeadline(deadline)
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("ws: write: %w", err)
	}
	return nil
}

func (s *sender) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	//nolint:errcheck // Best-effort close handshake
	s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.conn.Close()
}
