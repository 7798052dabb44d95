// Package stream serves a running heightfield over WebSocket. One
// goroutine owns the simulation; clients only exchange messages with it.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/seaoverlay/internal/config"
	"github.com/Faultbox/seaoverlay/internal/engine/water"
	"github.com/Faultbox/seaoverlay/internal/logger"
	"github.com/Faultbox/seaoverlay/internal/overlay"
)

const (
	inboxSize    = 64
	sendQueue    = 8
	writeTimeout = 2 * time.Second
)

// client is one connection. Only its writer goroutine writes data frames
// to conn; the simulation loop hands messages over through send.
type client struct {
	conn *websocket.Conn
	send chan *websocket.PreparedMessage
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan *websocket.PreparedMessage, sendQueue),
		done: make(chan struct{}),
	}
}

// offer queues pm without blocking. It reports false when the queue is
// full or the client is gone.
func (c *client) offer(pm *websocket.PreparedMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- pm:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func prepareJSON(v any) (*websocket.PreparedMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return websocket.NewPreparedMessage(websocket.TextMessage, data)
}

var errSlowClient = errors.New("stream: client send queue full")

// Server streams frames from a headless overlay runtime.
type Server struct {
	rt       *overlay.Runtime
	cfg      config.Config
	interval time.Duration
	log      *zap.Logger
	upgrader websocket.Upgrader

	inbox chan ClientMessage

	mu       sync.RWMutex
	clients  map[*client]struct{}
	frame    *websocket.PreparedMessage // latest frame, for new clients
	settings ConfigMessage
	lastStep uint64
}

// New builds a headless runtime from cfg and wraps it in a server.
func New(cfg *config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = logger.Named("stream")
	}
	rt, err := overlay.New(overlay.Options{
		Config: cfg,
		Start:  time.Now(),
		Log:    log.Named("overlay"),
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		rt:       rt,
		cfg:      *cfg,
		interval: cfg.Stream.FrameInterval(),
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // clients are local viewers
			},
		},
		inbox:   make(chan ClientMessage, inboxSize),
		clients: make(map[*client]struct{}),
	}
	s.settings = s.currentSettings()
	if err := s.publishFrame(); err != nil {
		rt.Close()
		return nil, err
	}
	return s, nil
}

// Handler returns the HTTP routes: /ws for the stream and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Run owns the simulation until ctx is done, then closes the runtime and
// every client connection.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.shutdown()

	s.log.Info("stream loop started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-s.inbox:
			s.apply(msg)
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

func (s *Server) tick(now time.Time) {
	s.rt.Tick(now)
	st := s.rt.Stats()
	if st.Steps == s.lastStep {
		return
	}
	s.lastStep = st.Steps
	if err := s.publishFrame(); err != nil {
		s.log.Warn("frame encode failed", zap.Error(err))
		return
	}
	s.broadcast()
}

// apply runs a client message against the runtime. It is only called
// from the Run goroutine.
func (s *Server) apply(msg ClientMessage) {
	var err error
	switch msg.Type {
	case TypeDisturb:
		d := water.Disturbance{
			X:        msg.X,
			Y:        msg.Y,
			Radius:   s.cfg.Water.DisturbanceRadius,
			Strength: s.cfg.Water.DisturbanceStrength,
		}
		if msg.Radius != nil {
			d.Radius = *msg.Radius
		}
		if msg.Strength != nil {
			d.Strength = *msg.Strength
		}
		err = s.rt.Disturb(d)
	case TypeRelease:
		err = s.rt.PointerRelease()
	case TypeSpeed:
		if err = s.rt.SetSpeed(msg.Speed); err == nil {
			s.cfg.Water.PropagationSpeed = msg.Speed
			s.settingsChanged()
		}
	case TypeAutoWave:
		if err = s.rt.SetAutoWave(msg.Enabled); err == nil {
			s.cfg.AutoWave.Enabled = msg.Enabled
			s.settingsChanged()
		}
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err != nil {
		s.log.Debug("client message rejected", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (s *Server) currentSettings() ConfigMessage {
	st := s.rt.Stats()
	return ConfigMessage{
		Type:      TypeConfig,
		Size:      s.cfg.Water.GridResolution,
		Width:     s.cfg.Water.BoundsWidth,
		Height:    s.cfg.Water.BoundsHeight,
		Viscosity: s.cfg.Water.Viscosity,
		Speed:     s.cfg.Water.PropagationSpeed,
		AutoWave:  s.cfg.AutoWave.Enabled && !st.Static,
		Backend:   st.Backend,
	}
}

func (s *Server) settingsChanged() {
	settings := s.currentSettings()
	pm, err := prepareJSON(settings)
	if err != nil {
		s.log.Warn("settings encode failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	// A client too far behind to take a settings change would show stale
	// parameters, so it is dropped rather than skipped.
	for _, c := range s.snapshotClients() {
		if !c.offer(pm) {
			s.drop(c, errSlowClient)
		}
	}
}

// publishFrame encodes the current grid once. The encoded message is a
// copy, so the simulation may step while it is being sent.
func (s *Server) publishFrame() error {
	g := s.currentGrid()
	data, err := json.Marshal(FrameMessage{
		Type:    TypeFrame,
		Size:    g.Size,
		Step:    s.rt.Stats().Steps,
		Heights: g.Height,
	})
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	pm, err := websocket.NewPreparedMessage(websocket.TextMessage, data)
	if err != nil {
		return fmt.Errorf("preparing frame: %w", err)
	}
	s.mu.Lock()
	s.frame = pm
	s.mu.Unlock()
	return nil
}

func (s *Server) currentGrid() *water.Grid {
	if sim := s.rt.Simulation(); sim != nil {
		return sim.Grid()
	}
	// Static surface: the mesh carries the seeded heights
	m := s.rt.Mesh()
	g := water.NewGrid(m.N)
	for j := 0; j < m.N; j++ {
		for i := 0; i < m.N; i++ {
			g.Height[g.Index(i, j)] = m.Elevation(i, j)
		}
	}
	return g
}

// broadcast queues the latest frame for every client. A client whose
// queue is full misses this frame and gets a later one.
func (s *Server) broadcast() {
	s.mu.RLock()
	pm := s.frame
	s.mu.RUnlock()
	for _, c := range s.snapshotClients() {
		if !c.offer(pm) {
			s.log.Debug("client behind, frame skipped")
		}
	}
}

func (s *Server) snapshotClients() []*client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		out = append(out, c)
	}
	return out
}

func (s *Server) drop(c *client, err error) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok && err != nil {
		s.log.Debug("dropping client", zap.Error(err))
	}
	c.close()
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := newClient(conn)

	s.mu.RLock()
	settings := s.settings
	s.mu.RUnlock()
	hello, err := prepareJSON(settings)
	if err != nil {
		s.log.Warn("settings encode failed", zap.Error(err))
		c.close()
		return
	}

	// Queue the greeting before registering so no broadcast overtakes it
	s.mu.Lock()
	c.send <- hello
	c.send <- s.frame
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	defer s.drop(c, nil)

	go s.writeLoop(c)

	s.log.Info("client connected", zap.String("remote", r.RemoteAddr))
	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		select {
		case s.inbox <- msg:
		default:
			s.log.Warn("inbox full, dropping client message", zap.String("type", msg.Type))
			if pm, err := prepareJSON(ErrorMessage{Type: TypeError, Message: "server busy"}); err == nil {
				c.offer(pm)
			}
		}
	}
}

// writeLoop sends queued messages until the client is closed or a write
// fails.
func (s *Server) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case pm := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WritePreparedMessage(pm); err != nil {
				s.drop(c, err)
				return
			}
		}
	}
}

func (s *Server) shutdown() {
	for _, c := range s.snapshotClients() {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
			time.Now().Add(writeTimeout))
		s.drop(c, nil)
	}
	s.rt.Close()
	s.log.Info("stream loop stopped")
}
