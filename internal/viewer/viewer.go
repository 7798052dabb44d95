// Package viewer runs the overlay over a stand-in globe renderer in an
// SDL2 window. The window plays the host page: it owns the frame loop,
// the globe camera and the container the overlay mounts into.
package viewer

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/seaoverlay/internal/bridge"
	"github.com/Faultbox/seaoverlay/internal/config"
	"github.com/Faultbox/seaoverlay/internal/engine/camera"
	"github.com/Faultbox/seaoverlay/internal/engine/debug"
	"github.com/Faultbox/seaoverlay/internal/engine/framebuffer"
	"github.com/Faultbox/seaoverlay/internal/engine/input"
	"github.com/Faultbox/seaoverlay/internal/engine/renderer"
	"github.com/Faultbox/seaoverlay/internal/engine/surface"
	"github.com/Faultbox/seaoverlay/internal/engine/window"
	"github.com/Faultbox/seaoverlay/internal/logger"
	"github.com/Faultbox/seaoverlay/internal/overlay"
)

// Viewer is the windowed host.
type Viewer struct {
	cfg     *config.Config
	log     *zap.Logger
	running bool

	window    *window.Window
	renderer  *renderer.Renderer
	input     *input.Input
	orbit     *camera.GlobeOrbit
	container *container
	runtime   *overlay.Runtime
	shots     *debug.Screenshot

	disturbing bool
	capture    bool
}

// New opens the window and builds the overlay runtime.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg: cfg,
		log: logger.Named("viewer"),
	}
	v.log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	var err error
	v.window, err = window.New(window.Config{
		Title:      "Sea Overlay",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w, h := v.window.Size()
	v.renderer, err = renderer.New(renderer.Config{
		Width:     w,
		Height:    h,
		Graticule: renderer.DefaultGraticule(cfg.Bridge.AnchorLon, cfg.Bridge.AnchorLat),
	})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	v.renderer.Resize(w, h)

	v.input = input.New()
	v.shots = debug.NewScreenshot("screenshots", "seaoverlay")
	v.orbit = camera.NewGlobeOrbit(overlay.Anchor(cfg.Bridge))
	v.container = newContainer(v.window.Size)

	v.runtime, err = overlay.New(overlay.Options{
		Config: cfg,
		Host:   v.orbit,
		Surfaces: func(width, height int) (bridge.RenderSurface, error) {
			return framebuffer.NewOverlay(width, height)
		},
		Drawable: func(mesh *surface.Mesh) (overlay.SurfaceDrawable, error) {
			return surface.NewGLRenderer(mesh, surface.DefaultShaderParams())
		},
		Start: time.Now(),
		Log:   logger.Named("overlay"),
	})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create overlay: %w", err)
	}
	if err := v.runtime.Attach(v.container); err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to attach overlay: %w", err)
	}

	v.log.Info("viewer initialized", zap.String("backend", v.runtime.Stats().Backend))
	return v, nil
}

// Run drives the frame loop until the window closes.
func (v *Viewer) Run() error {
	v.running = true

	frameCount := 0
	fpsTimer := time.Now()
	var minFrame time.Duration
	if v.cfg.Graphics.FPSLimit > 0 {
		minFrame = time.Second / time.Duration(v.cfg.Graphics.FPSLimit)
	}

	v.log.Info("starting frame loop")

	for v.running {
		frameStart := time.Now()

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()
		v.handleKeys()

		// Overlay state first, so the surface drawn this frame is current
		v.runtime.Tick(frameStart)

		v.renderer.Begin()
		if err := v.renderer.DrawGlobe(v.orbit); err != nil {
			v.log.Warn("globe draw failed", zap.Error(err))
		}

		// The host camera is final for this frame; mirror it and draw
		v.runtime.AfterHostRender()
		v.container.Composite()

		if v.capture {
			v.capture = false
			v.saveScreenshot()
		}

		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			st := v.runtime.Stats()
			v.window.SetTitle(fmt.Sprintf("Sea Overlay | %d fps | %s | step %d", frameCount, st.Backend, st.Steps))
			v.log.Debug("frame stats",
				zap.Int("fps", frameCount),
				zap.Uint64("steps", st.Steps),
				zap.Float64("max_abs_height", st.MaxAbsHeight),
				zap.Bool("wave_active", st.Wave.Active))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if minFrame > 0 {
			if spare := minFrame - time.Since(frameStart); spare > 0 {
				time.Sleep(spare)
			}
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			w, h := v.window.Size()
			v.renderer.Resize(w, h)
			v.runtime.Resize()

		case input.EventMouseMove:
			if v.disturbing {
				v.disturbAt(event.MouseX, event.MouseY)
			} else if v.input.Dragging() && v.container.PointerTargets() == 0 {
				v.orbit.HandleDrag(float64(event.DeltaX), float64(event.DeltaY))
			}

		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_RIGHT {
				v.disturbing = true
				v.disturbAt(event.MouseX, event.MouseY)
			}

		case input.EventMouseUp:
			if event.Button == sdl.BUTTON_RIGHT && v.disturbing {
				v.disturbing = false
				if err := v.runtime.PointerRelease(); err != nil {
					v.log.Debug("pointer release", zap.Error(err))
				}
			}

		case input.EventMouseWheel:
			v.orbit.HandleZoom(event.Wheel)
		}
	}
}

var speedKeys = [...]sdl.Scancode{
	sdl.SCANCODE_1, sdl.SCANCODE_2, sdl.SCANCODE_3,
	sdl.SCANCODE_4, sdl.SCANCODE_5, sdl.SCANCODE_6,
}

func (v *Viewer) handleKeys() {
	if v.input.IsKeyPressed(sdl.SCANCODE_ESCAPE) {
		v.running = false
	}
	for i, key := range speedKeys {
		if !v.input.IsKeyPressed(key) {
			continue
		}
		speed := i + 1
		if err := v.runtime.SetSpeed(speed); err != nil {
			v.log.Warn("speed change rejected", zap.Error(err))
			continue
		}
		v.cfg.Water.PropagationSpeed = speed
		v.log.Info("propagation speed", zap.Int("speed", speed))
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_A) {
		on := !v.cfg.AutoWave.Enabled
		if err := v.runtime.SetAutoWave(on); err != nil {
			v.log.Warn("auto wave toggle failed", zap.Error(err))
		} else {
			v.cfg.AutoWave.Enabled = on
			v.log.Info("auto wave", zap.Bool("enabled", on))
		}
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_R) {
		if err := v.runtime.Reseed(time.Now().UnixNano()); err != nil {
			v.log.Warn("reseed failed", zap.Error(err))
		}
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_S) {
		v.saveSettings()
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_F12) {
		v.capture = true
	}
}

// saveSettings writes the current speed and auto-wave choice back to the
// config file given on the command line, or to the user config directory.
func (v *Viewer) saveSettings() {
	var err error
	path := config.ConfigPath()
	if path != "" {
		err = v.cfg.SaveTo(path)
	} else {
		path = filepath.Join(config.ConfigDir(), "config.yaml")
		err = v.cfg.Save()
	}
	if err != nil {
		v.log.Warn("saving settings failed", zap.Error(err))
		return
	}
	v.log.Info("settings saved", zap.String("path", path))
}

func (v *Viewer) saveScreenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	path, err := v.shots.SavePixels(pixels, w, h)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// disturbAt picks the surface under a window point. Mouse coordinates are
// in window units, which differ from pixels on high-DPI displays.
func (v *Viewer) disturbAt(mx, my int) {
	w, h := v.window.LogicalSize()
	x, y, ok := v.runtime.Pick(float64(mx), float64(my), w, h)
	if !ok {
		return
	}
	if err := v.runtime.PointerDisturb(x, y); err != nil {
		v.log.Debug("pointer disturb", zap.Error(err))
	}
}

// Close releases the overlay, the renderer and the window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.runtime != nil {
		v.runtime.Close()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
