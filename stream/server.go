package stream

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

	"github.com/pthm-cable/swirl/scene"
)

const (
	writeWait  = 2 * time.Second
	sendBuffer = 16
)

// Options configures a Server.
type Options struct {
	Addr         string
	Compress     bool
	MaxParticles int
	Logger       *slog.Logger
}

// Server accepts websocket clients on /ws and broadcasts frames to them.
// Slow clients lose messages instead of stalling the simulation.
type Server struct {
	addr     string
	log      *slog.Logger
	upgrader websocket.Upgrader
	enc      Encoder

	mu      sync.Mutex
	clients map[*client]struct{}
	srv     *http.Server
	ln      net.Listener

	sent    atomic.Uint64
	dropped atomic.Uint64
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a server. It does not listen until Start.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		addr: opts.Addr,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		enc:     Encoder{Compress: opts.Compress, MaxParticles: opts.MaxParticles},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

// Start listens on the configured address and serves until ctx is done
// or Close is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("stream: listen: %w", err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	s.mu.Lock()
	s.ln, s.srv = ln, srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("stream server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	s.log.Info("stream listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		var hs websocket.HandshakeError
		if !errors.As(err, &hs) {
			s.log.Warn("websocket upgrade failed", "error", err)
		}
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info("stream client connected", "remote", r.RemoteAddr, "clients", n)

	go s.writeLoop(c)
	go s.readLoop(c)
}

// readLoop discards client input and notices disconnects.
func (s *Server) readLoop(c *client) {
	defer s.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("stream client read", "error", err)
			}
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			s.log.Debug("stream client write", "error", err)
			s.drop(c)
			return
		}
		s.sent.Add(1)
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// drop unregisters a client once.
func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Stats returns the messages written and the messages dropped for slow
// clients.
func (s *Server) Stats() (sent, dropped uint64) {
	return s.sent.Load(), s.dropped.Load()
}

// Broadcast queues msg for every client. msg is copied.
func (s *Server) Broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return
	}
	buf := append([]byte(nil), msg...)
	for c := range s.clients {
		select {
		case c.send <- buf:
		default:
			s.dropped.Add(1)
		}
	}
}

// Publish encodes the current frame of every system and broadcasts it.
// It must be called from the goroutine driving the scene.
func (s *Server) Publish(r scene.Renderable) error {
	if s.Clients() == 0 {
		return nil
	}
	var errs []error
	r.VisitSystems(func(v scene.SystemView) {
		f := v.System.CurrentFrame()
		msg, err := s.enc.Encode(v.Name, f)
		f.Release()
		if err != nil {
			errs = append(errs, err)
			return
		}
		s.Broadcast(msg)
	})
	return errors.Join(errs...)
}

// Close disconnects every client and stops the HTTP server.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
