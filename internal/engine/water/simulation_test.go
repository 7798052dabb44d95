package water

import (
	"errors"
	"math"
	"testing"
)

func testParams(resolution int) Params {
	p := DefaultParams()
	p.Resolution = resolution
	p.Backend = BackendCPU
	p.Workers = 2
	return p
}

func newTestSim(t *testing.T, p Params) *Simulation {
	t.Helper()
	s, err := New(p, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestFullDamping(t *testing.T) {
	p := testParams(32)
	p.Viscosity = 0
	s := newTestSim(t, p)

	before := s.Snapshot(nil)
	if before.MaxAbs() == 0 {
		t.Fatal("seeded grid is flat")
	}
	if err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	g := s.Grid()
	for idx, h := range g.Height {
		if h != 0 {
			t.Fatalf("height[%d] = %g, want 0", idx, h)
		}
		if g.Previous[idx] != before.Height[idx] {
			t.Fatalf("previous[%d] = %g, want %g", idx, g.Previous[idx], before.Height[idx])
		}
	}
}

func TestRestIsFixedPoint(t *testing.T) {
	s := newTestSim(t, testParams(32))
	if err := s.Load(NewGrid(32)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for i := 0; i < 50; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if m := s.MaxAbsHeight(); m != 0 {
		t.Errorf("flat surface drifted to %g", m)
	}
	if s.Steps() != 50 {
		t.Errorf("Steps() = %d, want 50", s.Steps())
	}
}

func TestDisturbanceLocality(t *testing.T) {
	p := testParams(64)
	disturbed := newTestSim(t, p)
	quiet := newTestSim(t, p)

	d := Disturbance{X: 20000, Y: -10000, Radius: 15000, Strength: 1}
	if err := disturbed.Disturb(d); err != nil {
		t.Fatalf("Disturb: %v", err)
	}
	if err := disturbed.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if err := quiet.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	a, b := disturbed.Grid(), quiet.Grid()
	inside := 0
	for j := 0; j < p.Resolution; j++ {
		for i := 0; i < p.Resolution; i++ {
			x, y := CellPosition(i, j, p.Resolution, p.Width, p.Height)
			dist := math.Hypot(x-d.X, y-d.Y)
			idx := a.Index(i, j)
			if dist >= d.Radius {
				if a.Height[idx] != b.Height[idx] {
					t.Fatalf("cell (%d,%d) at %.0fm changed: %g vs %g", i, j, dist, a.Height[idx], b.Height[idx])
				}
				continue
			}
			inside++
			if dist < d.Radius/2 && a.Height[idx] >= b.Height[idx] {
				t.Errorf("cell (%d,%d) at %.0fm not pushed down", i, j, dist)
			}
		}
	}
	if inside == 0 {
		t.Fatal("no cells inside the disturbance radius")
	}
}

func TestEdgesClampWithoutWrap(t *testing.T) {
	const n = 32
	t.Run("single step", func(t *testing.T) {
		p := testParams(n)
		s := newTestSim(t, p)
		g := NewGrid(n)
		g.Height[g.Index(0, n/2)] = 1
		if err := s.Load(g); err != nil {
			t.Fatalf("Load: %v", err)
		}
		if err := s.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}

		// The missing west neighbour reads the edge cell itself.
		got := s.Grid()
		want := 0.5 * float32(p.Viscosity)
		if h := got.At(0, n/2); math.Abs(float64(h-want)) > 1e-6 {
			t.Errorf("edge cell = %g, want %g", h, want)
		}
		for j := 0; j < n; j++ {
			if h := got.At(n-1, j); h != 0 {
				t.Errorf("opposite edge cell (%d,%d) = %g, want 0", n-1, j, h)
			}
		}
	})

	t.Run("several steps", func(t *testing.T) {
		p := testParams(n)
		disturbed := newTestSim(t, p)
		quiet := newTestSim(t, p)

		x, y := CellPosition(0, n/2, n, p.Width, p.Height)
		if err := disturbed.Disturb(Disturbance{X: x, Y: y, Radius: 1000, Strength: 1}); err != nil {
			t.Fatalf("Disturb: %v", err)
		}
		for i := 0; i < 5; i++ {
			if err := disturbed.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
			if err := quiet.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
		}

		a, b := disturbed.Grid(), quiet.Grid()
		if a.At(0, n/2) == b.At(0, n/2) {
			t.Fatal("disturbed edge cell did not move")
		}
		for j := 0; j < n; j++ {
			if a.At(n-1, j) != b.At(n-1, j) {
				t.Errorf("column %d row %d = %g, want undisturbed %g", n-1, j, a.At(n-1, j), b.At(n-1, j))
			}
		}
	})
}

func TestEndToEndDepression(t *testing.T) {
	p := testParams(128)
	p.Width = 110000
	p.Height = 165000
	p.Viscosity = 0.93
	s := newTestSim(t, p)

	if err := s.Disturb(Disturbance{X: 0, Y: 0, Radius: 5000, Strength: 300}); err != nil {
		t.Fatalf("Disturb: %v", err)
	}
	if err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	g := s.Grid()
	center := g.At(64, 64)
	if center > -500 {
		t.Fatalf("center height = %g, want a deep depression", center)
	}
	n := p.Resolution
	for k := 0; k < n; k++ {
		for _, h := range []float32{g.At(k, 0), g.At(k, n-1), g.At(0, k), g.At(n-1, k)} {
			if math.Abs(float64(h)) >= math.Abs(float64(center)) {
				t.Fatalf("edge height %g rivals center %g", h, center)
			}
		}
	}
}

func TestWorkerCountDoesNotChangeResult(t *testing.T) {
	single := testParams(48)
	single.Workers = 1
	many := testParams(48)
	many.Workers = 5

	a := newTestSim(t, single)
	b := newTestSim(t, many)
	d := Disturbance{X: -30000, Y: 12000, Radius: 20000, Strength: 0.5}
	for _, s := range []*Simulation{a, b} {
		if err := s.Disturb(d); err != nil {
			t.Fatalf("Disturb: %v", err)
		}
		for i := 0; i < 20; i++ {
			if err := s.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
		}
	}

	ga, gb := a.Grid(), b.Grid()
	for idx := range ga.Height {
		if ga.Height[idx] != gb.Height[idx] || ga.Previous[idx] != gb.Previous[idx] {
			t.Fatalf("cell %d differs: %g/%g vs %g/%g", idx, ga.Height[idx], ga.Previous[idx], gb.Height[idx], gb.Previous[idx])
		}
	}
}

func TestParkedDisturbanceContributesNothing(t *testing.T) {
	d := NoDisturbance(5, 0.05)
	if !d.Parked() {
		t.Fatal("NoDisturbance not parked")
	}
	for _, c := range [][2]int{{0, 0}, {64, 64}, {127, 0}} {
		x, y := CellPosition(c[0], c[1], 128, 165000, 110000)
		if got := d.Contribution(math.Hypot(x-d.X, y-d.Y)); got != 0 {
			t.Errorf("cell %v contribution = %g, want 0", c, got)
		}
	}

	centre := Disturbance{Radius: 10, Strength: 3}
	if got := centre.Contribution(0); got != 6 {
		t.Errorf("contribution at centre = %g, want 6", got)
	}
	if got := centre.Contribution(10.5); got != 0 {
		t.Errorf("contribution outside radius = %g, want 0", got)
	}
}

func TestDisturbRejectsInvalid(t *testing.T) {
	s := newTestSim(t, testParams(8))
	before := s.Disturbance()

	tests := []struct {
		name string
		d    Disturbance
	}{
		{"zero radius", Disturbance{Radius: 0, Strength: 1}},
		{"negative radius", Disturbance{Radius: -1, Strength: 1}},
		{"infinite radius", Disturbance{Radius: math.Inf(1), Strength: 1}},
		{"nan position", Disturbance{X: math.NaN(), Radius: 1, Strength: 1}},
		{"infinite strength", Disturbance{Radius: 1, Strength: math.Inf(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Disturb(tt.d); err == nil {
				t.Error("expected error")
			}
			if s.Disturbance() != before {
				t.Error("rejected disturbance was applied")
			}
		})
	}
}

func TestClosedSimulation(t *testing.T) {
	s, err := New(testParams(8), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Close()
	s.Close()

	if err := s.Step(); !errors.Is(err, ErrClosed) {
		t.Errorf("Step after Close: %v", err)
	}
	if err := s.Disturb(Disturbance{Radius: 1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Disturb after Close: %v", err)
	}
	if s.Steps() != 0 {
		t.Errorf("Steps() = %d after closed Step", s.Steps())
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{"defaults", func(*Params) {}, false},
		{"zero viscosity", func(p *Params) { p.Viscosity = 0 }, false},
		{"viscosity one", func(p *Params) { p.Viscosity = 1 }, true},
		{"negative viscosity", func(p *Params) { p.Viscosity = -0.1 }, true},
		{"zero resolution", func(p *Params) { p.Resolution = 0 }, true},
		{"zero width", func(p *Params) { p.Width = 0 }, true},
		{"zero radius", func(p *Params) { p.Radius = 0 }, true},
		{"negative workers", func(p *Params) { p.Workers = -1 }, true},
		{"unknown backend", func(p *Params) { p.Backend = "vulkan" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetViscosity(t *testing.T) {
	s := newTestSim(t, testParams(8))
	if err := s.SetViscosity(0.5); err != nil {
		t.Fatalf("SetViscosity: %v", err)
	}
	if s.Params().Viscosity != 0.5 {
		t.Errorf("viscosity = %g", s.Params().Viscosity)
	}
	if err := s.SetViscosity(1.5); err == nil {
		t.Error("expected error for viscosity 1.5")
	}
	if s.Params().Viscosity != 0.5 {
		t.Error("rejected viscosity was applied")
	}
}

func TestLoadRejectsWrongSize(t *testing.T) {
	s := newTestSim(t, testParams(8))
	if err := s.Load(NewGrid(16)); err == nil {
		t.Error("expected error loading 16x16 grid into 8x8 simulation")
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    BackendKind
		wantErr bool
	}{
		{"", BackendAuto, false},
		{"auto", BackendAuto, false},
		{"cpu", BackendCPU, false},
		{"opencl", BackendOpenCL, false},
		{"metal", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseBackend(%q) = %q, %v", tt.in, got, err)
		}
	}
}
