// Package overlay wires the bridge, the heightfield simulation, the wave
// trigger and the water surface into one runtime driven by the host's
// frame loop.
package overlay

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/seaoverlay/internal/bridge"
	"github.com/Faultbox/seaoverlay/internal/config"
	"github.com/Faultbox/seaoverlay/internal/engine/picking"
	"github.com/Faultbox/seaoverlay/internal/engine/scene"
	"github.com/Faultbox/seaoverlay/internal/engine/schedule"
	"github.com/Faultbox/seaoverlay/internal/engine/surface"
	"github.com/Faultbox/seaoverlay/internal/engine/water"
	"github.com/Faultbox/seaoverlay/internal/logger"
	"github.com/Faultbox/seaoverlay/pkg/geo"
)

// RunawayHeight is the absolute height above which the surface is
// reported as diverging.
const RunawayHeight = 1e6

var (
	// ErrStatic is returned by operations that need a live simulation when
	// the runtime fell back to a static surface.
	ErrStatic = errors.New("overlay: static surface, no simulation")
	// ErrHeadless is returned by Attach on a runtime built without a host.
	ErrHeadless = errors.New("overlay: no host camera")
)

// SurfaceDrawable draws the water surface from an uploaded heightmap.
type SurfaceDrawable interface {
	scene.Drawable
	UploadHeights(g *water.Grid) error
	Destroy()
}

// DrawableFactory builds the drawable for a mesh. It runs once, in New.
type DrawableFactory func(mesh *surface.Mesh) (SurfaceDrawable, error)

// Options configure a Runtime.
type Options struct {
	Config   *config.Config
	Host     bridge.HostCamera // nil: headless, simulation only
	Surfaces bridge.SurfaceFactory
	Drawable DrawableFactory // nil: mesh only, nothing is drawn
	Start    time.Time       // scheduler clock origin
	Log      *zap.Logger
}

// Stats is a snapshot of the runtime counters.
type Stats struct {
	Ticks        uint64
	Steps        uint64
	Syncs        uint64
	Backend      string
	MaxAbsHeight float64
	Wave         water.TriggerState
	Static       bool
}

// Runtime holds every piece of overlay state. The host calls Tick before
// it renders and AfterHostRender once its own frame is drawn.
type Runtime struct {
	cfg config.Config
	log *zap.Logger

	bridge   *bridge.Bridge    // nil when headless
	sim      *water.Simulation // nil on a static surface
	throttle *water.Throttle
	mesh     *surface.Mesh
	drawable SurfaceDrawable
	hit      surface.HitPlane
	node     *scene.Node
	toLocal  mgl64.Mat4

	sched   *schedule.Scheduler
	trigger *water.Trigger

	static  *water.Grid
	ticks   uint64
	runaway bool
	closed  bool
}

// New builds the runtime. A water backend that cannot be initialised
// leaves the runtime on a static, noise-seeded surface; any other error
// is returned.
func New(opts Options) (*Runtime, error) {
	if opts.Config == nil {
		return nil, errors.New("overlay: no configuration")
	}
	if opts.Host != nil && opts.Surfaces == nil {
		return nil, errors.New("overlay: host camera without a surface factory")
	}
	cfg := *opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = logger.Named("overlay")
	}

	params, err := WaterParams(cfg.Water)
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}
	throttle, err := water.NewThrottle(cfg.Water.PropagationSpeed)
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}
	mesh, err := surface.NewMesh(params.Resolution, params.Width, params.Height)
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}

	r := &Runtime{
		cfg:      cfg,
		log:      log,
		throttle: throttle,
		mesh:     mesh,
		hit:      surface.HitPlane{Width: params.Width, Height: params.Height},
		sched:    schedule.New(opts.Start),
	}

	sim, err := water.New(params, log.Named("water"))
	var initErr *water.InitError
	switch {
	case errors.As(err, &initErr):
		log.Warn("water backend unavailable, surface is static",
			zap.String("backend", string(initErr.Backend)), zap.Error(initErr.Err))
		r.static = water.NewGrid(params.Resolution)
		water.Seed(r.static, params.Seed, params.MaxHeight)
	case err != nil:
		return nil, fmt.Errorf("overlay: %w", err)
	default:
		r.sim = sim
	}

	if opts.Drawable != nil {
		d, err := opts.Drawable(mesh)
		if err != nil {
			r.closeSim()
			return nil, fmt.Errorf("overlay: surface drawable: %w", err)
		}
		r.drawable = d
	}

	anchor := Anchor(cfg.Bridge)
	r.toLocal = geo.EastNorthUpToFixedFrame(anchor).Inverse().Matrix()
	if opts.Host != nil {
		r.bridge = bridge.New(opts.Host, opts.Surfaces, BridgeOptions(cfg.Bridge), log.Named("bridge"))
		if r.drawable != nil {
			r.node = r.bridge.AddAnchored("water", r.drawable, &anchor)
		}
	}

	r.refreshSurface(r.currentGrid())

	if r.sim != nil && cfg.AutoWave.Enabled {
		r.trigger = water.NewTrigger(r.sim, r.sched, params.Width, params.Height,
			TriggerConfig(cfg.AutoWave), log.Named("wave"))
		if err := r.trigger.Start(); err != nil {
			r.Close()
			return nil, fmt.Errorf("overlay: auto wave: %w", err)
		}
	}
	return r, nil
}

// Attach mounts the overlay into the host container.
func (r *Runtime) Attach(c bridge.HostContainer) error {
	if r.bridge == nil {
		return ErrHeadless
	}
	return r.bridge.Attach(c)
}

// Detach unmounts the overlay. The simulation keeps running.
func (r *Runtime) Detach() {
	if r.bridge != nil {
		r.bridge.Detach()
	}
}

// Tick runs scheduled tasks due by now and, when the throttle allows,
// advances the simulation and refreshes the surface. Failures are logged
// and skip only the failing part of this tick.
func (r *Runtime) Tick(now time.Time) {
	if r.closed {
		return
	}
	r.ticks++
	r.sched.Advance(now)

	if r.sim == nil || !r.throttle.Tick() {
		return
	}
	if err := r.sim.Step(); err != nil {
		r.log.Warn("simulation step failed", zap.Error(err))
		return
	}
	r.checkRunaway()
	r.refreshSurface(r.sim.Grid())
}

// AfterHostRender mirrors the host camera and renders the overlay. It
// must be called once per host frame, after the host camera moved.
func (r *Runtime) AfterHostRender() {
	if r.closed || r.bridge == nil {
		return
	}
	err := r.bridge.Sync()
	switch {
	case errors.Is(err, bridge.ErrDetached):
	case err != nil:
		r.log.Warn("overlay sync failed", zap.Error(err))
	}
}

// Resize follows a host container resize.
func (r *Runtime) Resize() {
	if r.bridge != nil {
		r.bridge.Resize()
	}
}

func (r *Runtime) currentGrid() *water.Grid {
	if r.sim != nil {
		return r.sim.Grid()
	}
	return r.static
}

func (r *Runtime) refreshSurface(g *water.Grid) {
	if err := r.mesh.UpdateDisplacement(g); err != nil {
		r.log.Warn("surface displacement failed", zap.Error(err))
	}
	if r.drawable == nil {
		return
	}
	if err := r.drawable.UploadHeights(g); err != nil {
		r.log.Warn("heightmap upload failed", zap.Error(err))
	}
}

func (r *Runtime) checkRunaway() {
	h := r.sim.MaxAbsHeight()
	over := h > RunawayHeight
	if over && !r.runaway {
		r.log.Warn("surface is diverging, lower the viscosity",
			zap.Float64("max_abs_height", h),
			zap.Float64("viscosity", r.sim.Params().Viscosity))
	}
	r.runaway = over
}

// Disturb applies a disturbance in surface-local coordinates.
func (r *Runtime) Disturb(d water.Disturbance) error {
	if r.sim == nil {
		return ErrStatic
	}
	return r.sim.Disturb(d)
}

// PointerDisturb pushes the surface at local (x, y) with the configured
// pointer radius and strength.
func (r *Runtime) PointerDisturb(x, y float64) error {
	return r.Disturb(water.Disturbance{
		X:        x,
		Y:        y,
		Radius:   r.cfg.Water.DisturbanceRadius,
		Strength: r.cfg.Water.DisturbanceStrength,
	})
}

// PointerRelease parks the pointer disturbance.
func (r *Runtime) PointerRelease() error {
	return r.Disturb(water.NoDisturbance(r.cfg.Water.DisturbanceRadius, r.cfg.Water.DisturbanceStrength))
}

// Pick casts a ray through a pixel of the overlay camera and returns the
// surface-local point it hits on the undisplaced footprint.
func (r *Runtime) Pick(screenX, screenY float64, viewportW, viewportH int) (x, y float64, ok bool) {
	if r.bridge == nil || viewportW <= 0 || viewportH <= 0 {
		return 0, 0, false
	}
	cam := r.bridge.Camera()
	ray := picking.ScreenToRay(screenX, screenY, float64(viewportW), float64(viewportH), cam.FovY, cam.WorldMatrix())
	return r.hit.Pick(ray.Transform(r.toLocal))
}

// SetSpeed changes the propagation speed.
func (r *Runtime) SetSpeed(speed int) error {
	if err := r.throttle.SetSpeed(speed); err != nil {
		return err
	}
	r.cfg.Water.PropagationSpeed = speed
	return nil
}

// SetViscosity changes the damping. The range is (0,1), as in configuration.
func (r *Runtime) SetViscosity(v float64) error {
	if r.sim == nil {
		return ErrStatic
	}
	if v <= 0 || v >= 1 {
		return &config.ConfigError{Field: "water.viscosity", Reason: fmt.Sprintf("must be in (0,1), got %g", v)}
	}
	if err := r.sim.SetViscosity(v); err != nil {
		return err
	}
	r.cfg.Water.Viscosity = v
	return nil
}

// SetAutoWave starts or stops the periodic pulses.
func (r *Runtime) SetAutoWave(on bool) error {
	if r.sim == nil {
		return ErrStatic
	}
	if r.trigger == nil {
		r.trigger = water.NewTrigger(r.sim, r.sched, r.cfg.Water.BoundsWidth, r.cfg.Water.BoundsHeight,
			TriggerConfig(r.cfg.AutoWave), r.log.Named("wave"))
	}
	if on {
		return r.trigger.Start()
	}
	r.trigger.Stop()
	return nil
}

// Reseed refills the surface with noise from seed.
func (r *Runtime) Reseed(seed int64) error {
	if r.sim == nil {
		return ErrStatic
	}
	if err := r.sim.Reseed(seed); err != nil {
		return err
	}
	r.refreshSurface(r.sim.Grid())
	return nil
}

// Stats returns the current counters.
func (r *Runtime) Stats() Stats {
	s := Stats{
		Ticks:  r.ticks,
		Static: r.sim == nil,
	}
	if r.bridge != nil {
		s.Syncs = r.bridge.Syncs()
	}
	if r.sim != nil {
		s.Steps = r.sim.Steps()
		s.Backend = r.sim.BackendName()
		s.MaxAbsHeight = r.sim.MaxAbsHeight()
	} else {
		s.Backend = "static"
		s.MaxAbsHeight = r.static.MaxAbs()
	}
	if r.trigger != nil {
		s.Wave = r.trigger.State()
	}
	return s
}

// Bridge returns the coordinate bridge, or nil when headless.
func (r *Runtime) Bridge() *bridge.Bridge {
	return r.bridge
}

// Mesh returns the CPU-side surface mesh.
func (r *Runtime) Mesh() *surface.Mesh {
	return r.mesh
}

// Simulation returns the simulation, or nil on a static surface.
func (r *Runtime) Simulation() *water.Simulation {
	return r.sim
}

// Close stops the auto wave, cancels every scheduled task, closes the
// simulation and detaches the overlay. Closing twice is a no-op.
func (r *Runtime) Close() {
	if r.closed {
		return
	}
	r.closed = true
	if r.trigger != nil {
		r.trigger.Stop()
	}
	r.sched.Close()
	r.closeSim()
	if r.bridge != nil {
		if r.node != nil {
			_ = r.bridge.Remove(r.node)
		}
		r.bridge.Destroy()
	}
	if r.drawable != nil {
		r.drawable.Destroy()
	}
	r.log.Info("overlay closed", zap.Uint64("ticks", r.ticks))
}

func (r *Runtime) closeSim() {
	if r.sim != nil {
		r.sim.Close()
	}
}
