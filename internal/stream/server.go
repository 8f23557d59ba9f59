package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"sandfall/internal/app"
	"sandfall/internal/config"
	"sandfall/internal/core"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return c.conn.WriteMessage(messageType, data)
}

// Server streams a session's world to websocket viewers and applies their
// commands. The session is only touched by the Run goroutine.
type Server struct {
	cfg      config.StreamConfig
	session  *app.Session
	hello    Hello
	log      *zap.Logger
	commands chan Command
	upgrader websocket.Upgrader

	mu        sync.Mutex
	clients   map[*client]struct{}
	lastFrame []byte
}

// NewServer prepares a server for session. Run must be called to start
// ticking.
func NewServer(session *app.Session, cfg config.StreamConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	world := session.World()
	size := world.Size()
	return &Server{
		cfg:      cfg,
		session:  session,
		hello:    NewHello(size.W, size.H, world.Registry()),
		log:      log,
		commands: make(chan Command, cfg.QueueSize),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler serves the websocket endpoint at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Submit queues cmd for the Run goroutine. It returns false when the queue is
// full.
func (s *Server) Submit(cmd Command) bool {
	select {
	case s.commands <- cmd:
		return true
	default:
		return false
	}
}

// Clients returns the number of connected viewers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Run ticks the world at the configured rate until ctx is cancelled, applying
// queued commands between ticks and broadcasting a frame whenever the world
// changed. Connected clients are closed on return.
func (s *Server) Run(ctx context.Context) error {
	timer := core.NewFixedStep(s.cfg.TPS)
	ticker := time.NewTicker(timer.Interval())
	defer ticker.Stop()
	defer s.closeClients()

	s.broadcastWorld()
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-s.commands:
			changed, err := Apply(s.session, cmd)
			if err != nil {
				s.log.Warn("rejected stream command", zap.String("op", cmd.Op), zap.Error(err))
				continue
			}
			if changed {
				s.broadcastWorld()
			}
		case now := <-ticker.C:
			if timer.ShouldStepAt(now) && s.session.Advance() {
				s.broadcastWorld()
			}
		}
	}
}

func (s *Server) broadcastWorld() {
	world := s.session.World()
	size := world.Size()
	s.broadcast(EncodeFrame(size.W, size.H, world.Cells()))
}

func (s *Server) broadcast(frame []byte) {
	s.mu.Lock()
	s.lastFrame = frame
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		if err := c.write(websocket.BinaryMessage, frame, s.cfg.WriteTimeout); err != nil {
			s.log.Info("dropping stream client", zap.String("remote", c.conn.RemoteAddr().String()), zap.Error(err))
			s.remove(c)
		}
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()
	for _, c := range targets {
		s.remove(c)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn}

	// Hold the client's write lock until the greeting is out so a concurrent
	// broadcast cannot overtake it.
	c.mu.Lock()
	s.mu.Lock()
	s.clients[c] = struct{}{}
	frame := s.lastFrame
	s.mu.Unlock()
	s.log.Info("stream client connected", zap.String("remote", conn.RemoteAddr().String()))

	if s.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	err = conn.WriteJSON(s.hello)
	if err == nil && frame != nil {
		err = conn.WriteMessage(websocket.BinaryMessage, frame)
	}
	c.mu.Unlock()
	if err != nil {
		s.log.Info("stream greeting failed", zap.Error(err))
		s.remove(c)
		return
	}

	defer s.remove(c)
	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Info("stream client read error", zap.Error(err))
			}
			return
		}
		if !s.Submit(cmd) {
			s.log.Warn("stream command queue full", zap.String("op", cmd.Op))
		}
	}
}
