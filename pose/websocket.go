package pose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultListenAddr is where the browser page connects to stream landmarks.
const DefaultListenAddr = ":8787"

// WSSource accepts pose-estimator results over a WebSocket at /landmarks.
// Frames are handed off without blocking: when the consumer is behind, the
// incoming frame is dropped.
type WSSource struct {
	addr     string
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	out      chan Frame
	conns    map[*websocket.Conn]struct{}
	closed   bool

	dropped atomic.Uint64
}

// NewWSSource returns a source that will listen on addr once Frames is called.
func NewWSSource(addr string, log *slog.Logger) *WSSource {
	if addr == "" {
		addr = DefaultListenAddr
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &WSSource{
		addr: addr,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 1024,
			// The estimator page is served from a local file or dev server.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Frames starts the HTTP listener and returns the frame channel.
func (s *WSSource) Frames(ctx context.Context) (<-chan Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("source closed")
	}
	if s.out != nil {
		return nil, errors.New("source already started")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/landmarks", s.handle)
	s.listener = ln
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	s.out = make(chan Frame, 1)

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("landmark server stopped", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Close()
	}()

	s.log.Info("landmark feed listening", "addr", ln.Addr().String())
	return s.out, nil
}

// Addr returns the bound listen address, or "" before Frames.
func (s *WSSource) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Dropped returns how many frames were discarded because the consumer was busy.
func (s *WSSource) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *WSSource) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	s.log.Info("estimator connected", "remote", r.RemoteAddr)
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
		s.log.Info("estimator disconnected", "remote", r.RemoteAddr)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read", "err", err)
			}
			return
		}
		f, err := Decode(data)
		if err != nil {
			s.log.Debug("bad frame", "err", err)
			continue
		}
		s.deliver(f)
	}
}

func (s *WSSource) deliver(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- f:
	default:
		s.dropped.Add(1)
	}
}

// Close stops the listener, disconnects estimators and closes the channel.
// It is safe to call more than once.
func (s *WSSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	srv := s.srv
	for c := range s.conns {
		c.Close()
	}
	if s.out != nil {
		close(s.out)
	}
	s.mu.Unlock()

	s.log.Info("landmark feed closed", "dropped", s.Dropped())
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
