//go:build !opencl

package overlay

import (
	"errors"
	"testing"
	"time"
)

func TestStaticSurfaceWithoutBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Water.Backend = "opencl"
	h := newHarness(t, cfg)

	st := h.rt.Stats()
	if !st.Static || st.Backend != "static" {
		t.Fatalf("stats = %+v, want static surface", st)
	}
	if st.MaxAbsHeight == 0 {
		t.Error("static surface is flat, want the noise seed")
	}
	if h.drawable.uploads != 1 {
		t.Errorf("uploads = %d, want 1", h.drawable.uploads)
	}

	for i := 1; i <= 10; i++ {
		h.rt.Tick(t0.Add(time.Duration(i) * time.Second))
	}
	if h.drawable.uploads != 1 {
		t.Error("static surface was re-uploaded")
	}
	if st := h.rt.Stats(); st.Ticks != 10 || st.Steps != 0 {
		t.Errorf("ticks=%d steps=%d, want 10 and 0", st.Ticks, st.Steps)
	}

	if err := h.rt.PointerDisturb(0, 0); !errors.Is(err, ErrStatic) {
		t.Errorf("PointerDisturb = %v, want ErrStatic", err)
	}
	if err := h.rt.SetAutoWave(true); !errors.Is(err, ErrStatic) {
		t.Errorf("SetAutoWave = %v, want ErrStatic", err)
	}
}
