package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/seaoverlay/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Water.GridResolution = 16
	cfg.Water.Backend = "cpu"
	cfg.Water.Workers = 1
	cfg.AutoWave.Enabled = false
	cfg.Stream.FrameIntervalMS = 5
	return cfg
}

func startServer(t *testing.T, cfg *config.Config) (*Server, string) {
	t.Helper()
	s, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		<-done
		ts.Close()
	})
	return s, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

// next reads messages until one of the wanted type arrives.
func next(t *testing.T, conn *websocket.Conn, typ string, v any) {
	t.Helper()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &head); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if head.Type != typ {
			continue
		}
		if err := json.Unmarshal(data, v); err != nil {
			t.Fatalf("decode %s: %v", typ, err)
		}
		return
	}
}

func TestHandshake(t *testing.T) {
	_, url := startServer(t, testConfig())
	conn := dial(t, url)

	var cfg ConfigMessage
	next(t, conn, TypeConfig, &cfg)
	if cfg.Size != 16 || cfg.Width != 165000 || cfg.Height != 110000 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Backend != "cpu" || cfg.Speed != 6 || cfg.AutoWave {
		t.Errorf("config = %+v, want cpu, speed 6, no auto wave", cfg)
	}

	var frame FrameMessage
	next(t, conn, TypeFrame, &frame)
	if frame.Size != 16 || len(frame.Heights) != 16*16 {
		t.Errorf("frame size %d with %d heights", frame.Size, len(frame.Heights))
	}
}

func TestFramesAdvance(t *testing.T) {
	_, url := startServer(t, testConfig())
	conn := dial(t, url)

	var first, later FrameMessage
	next(t, conn, TypeFrame, &first)
	for later.Step <= first.Step {
		next(t, conn, TypeFrame, &later)
	}
}

func TestDisturbReachesSimulation(t *testing.T) {
	_, url := startServer(t, testConfig())
	conn := dial(t, url)

	var frame FrameMessage
	next(t, conn, TypeFrame, &frame)

	radius, strength := 20000.0, 300.0
	msg := ClientMessage{Type: TypeDisturb, X: 0, Y: 0, Radius: &radius, Strength: &strength}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatal(err)
	}

	// The center cell sinks once a step has consumed the disturbance
	center := 8*16 + 8
	deadline := time.Now().Add(3 * time.Second)
	for frame.Heights[center] > -100 {
		if time.Now().After(deadline) {
			t.Fatalf("center height %g, want a depression", frame.Heights[center])
		}
		next(t, conn, TypeFrame, &frame)
	}
}

func TestSpeedChangeBroadcastsConfig(t *testing.T) {
	_, url := startServer(t, testConfig())
	conn := dial(t, url)

	var cfg ConfigMessage
	next(t, conn, TypeConfig, &cfg)

	if err := conn.WriteJSON(ClientMessage{Type: TypeSpeed, Speed: 2}); err != nil {
		t.Fatal(err)
	}
	next(t, conn, TypeConfig, &cfg)
	if cfg.Speed != 2 {
		t.Errorf("speed = %d, want 2", cfg.Speed)
	}
}

func TestApplyRejectsBadMessages(t *testing.T) {
	s, err := New(testConfig(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.rt.Close()

	before := s.rt.Simulation().Disturbance()
	s.apply(ClientMessage{Type: "teleport"})
	s.apply(ClientMessage{Type: TypeSpeed, Speed: 9})
	zero := 0.0
	s.apply(ClientMessage{Type: TypeDisturb, Radius: &zero})

	if s.rt.Simulation().Disturbance() != before {
		t.Error("rejected message changed the disturbance")
	}
	if s.cfg.Water.PropagationSpeed != 6 {
		t.Errorf("speed = %d, want unchanged 6", s.cfg.Water.PropagationSpeed)
	}

	s.apply(ClientMessage{Type: TypeDisturb, X: 10, Y: 20})
	d := s.rt.Simulation().Disturbance()
	if d.X != 10 || d.Y != 20 || d.Radius != 5 || d.Strength != 0.05 {
		t.Errorf("disturbance = %+v, want configured pointer radius and strength", d)
	}
	s.apply(ClientMessage{Type: TypeRelease})
	if !s.rt.Simulation().Disturbance().Parked() {
		t.Error("release did not park")
	}
}

func TestHealthz(t *testing.T) {
	s, err := New(testConfig(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.rt.Close()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

// stalledClient registers a connected client whose writer never runs, so
// its queue fills the way a slow reader's would.
func stalledClient(t *testing.T, s *Server) *client {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conns <- conn
	}))
	t.Cleanup(ts.Close)
	dial(t, "ws"+strings.TrimPrefix(ts.URL, "http"))

	c := newClient(<-conns)
	t.Cleanup(c.close)
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	return c
}

func TestSlowClientDoesNotBlockBroadcast(t *testing.T) {
	s, err := New(testConfig(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.rt.Close()
	c := stalledClient(t, s)

	start := time.Now()
	for i := 0; i < 3*sendQueue; i++ {
		s.broadcast()
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("broadcast to a stalled client took %v", elapsed)
	}
	if len(c.send) != sendQueue {
		t.Errorf("queued %d frames, want a full queue of %d", len(c.send), sendQueue)
	}
	if s.Clients() != 1 {
		t.Fatalf("clients = %d, want the stalled client kept", s.Clients())
	}

	// A settings change that cannot be queued drops the client.
	s.settingsChanged()
	if s.Clients() != 0 {
		t.Errorf("clients = %d, want the stalled client dropped", s.Clients())
	}
	select {
	case <-c.done:
	default:
		t.Error("dropped client not closed")
	}
}
