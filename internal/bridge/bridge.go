// Package bridge keeps a locally rendered scene aligned with a globe
// renderer's camera. The bridge owns a secondary scene and camera, mounts
// a transparent render surface over the host, and mirrors the host camera
// once per host frame.
package bridge

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/seaoverlay/internal/engine/camera"
	"github.com/Faultbox/seaoverlay/internal/engine/scene"
	"github.com/Faultbox/seaoverlay/internal/logger"
	"github.com/Faultbox/seaoverlay/pkg/geo"
	"github.com/Faultbox/seaoverlay/pkg/math"
)

var (
	// ErrDetached is returned by Sync when no surface is mounted.
	ErrDetached = errors.New("bridge: not attached")
	// ErrDestroyed is returned by Attach after Destroy.
	ErrDestroyed = errors.New("bridge: destroyed")
)

// HostCamera is the read-only view of the globe renderer's camera.
// Matrices are column-major and rigid.
type HostCamera interface {
	FovY() float64 // degrees
	Near() float64
	Far() float64
	ViewMatrix() []float64
	InverseViewMatrix() []float64
}

// RenderSurface is where the secondary scene is drawn.
type RenderSurface interface {
	SetSize(width, height int)
	Render(s *scene.Scene, cam *camera.Perspective) error
	Dispose()
}

// SurfaceFactory creates a render surface of the given size.
type SurfaceFactory func(width, height int) (RenderSurface, error)

// MountOptions describe how a surface sits in the host container.
type MountOptions struct {
	Overlay            bool // full viewport, above the host
	PointerPassthrough bool // pointer events reach the host
}

// HostContainer is the host element the surface is mounted into.
type HostContainer interface {
	Size() (width, height int)
	Mount(s RenderSurface, opts MountOptions) error
	Unmount(s RenderSurface)
}

// State is the attachment state of a Bridge.
type State int

const (
	Detached State = iota
	Attached
)

func (s State) String() string {
	switch s {
	case Detached:
		return "detached"
	case Attached:
		return "attached"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configure the secondary camera.
type Options struct {
	Near float64
	Far  float64
}

// DefaultOptions returns the clip planes used when none are configured.
func DefaultOptions() Options {
	return Options{Near: 0.1, Far: 10000}
}

// Bridge mirrors a HostCamera onto a secondary scene.
type Bridge struct {
	host       HostCamera
	newSurface SurfaceFactory
	log        *zap.Logger

	scene  *scene.Scene
	camera *camera.Perspective

	state     State
	container HostContainer
	surface   RenderSurface
	destroyed bool
	syncs     uint64
}

// New creates a detached bridge. The scene and camera live as long as the
// bridge, so objects added while detached are drawn once attached.
func New(host HostCamera, factory SurfaceFactory, opts Options, log *zap.Logger) *Bridge {
	if log == nil {
		log = logger.Named("bridge")
	}
	return &Bridge{
		host:       host,
		newSurface: factory,
		log:        log,
		scene:      scene.New(),
		camera:     camera.NewPerspective(host.FovY(), 1, opts.Near, opts.Far),
	}
}

// Attach creates a render surface sized to container and mounts it as a
// pointer-transparent overlay. Attaching an attached bridge is a no-op.
func (b *Bridge) Attach(container HostContainer) error {
	if b.destroyed {
		return ErrDestroyed
	}
	if b.state == Attached {
		return nil
	}

	w, h := container.Size()
	surface, err := b.newSurface(w, h)
	if err != nil {
		return fmt.Errorf("creating render surface: %w", err)
	}
	if err := container.Mount(surface, MountOptions{Overlay: true, PointerPassthrough: true}); err != nil {
		surface.Dispose()
		return fmt.Errorf("mounting render surface: %w", err)
	}

	b.container = container
	b.surface = surface
	b.state = Attached
	b.camera.Aspect = aspect(w, h)
	b.camera.UpdateProjection()

	b.log.Info("attached", zap.Int("width", w), zap.Int("height", h))
	return nil
}

// Detach disposes and unmounts the render surface. Detaching a detached
// bridge is a no-op.
func (b *Bridge) Detach() {
	if b.state == Detached {
		return
	}
	b.surface.Dispose()
	b.container.Unmount(b.surface)
	b.surface = nil
	b.container = nil
	b.state = Detached
	b.log.Info("detached", zap.Uint64("syncs", b.syncs))
}

// Destroy detaches and refuses any further Attach.
func (b *Bridge) Destroy() {
	b.Detach()
	b.destroyed = true
}

// Destroyed reports whether Destroy was called.
func (b *Bridge) Destroyed() bool {
	return b.destroyed
}

// State returns the attachment state.
func (b *Bridge) State() State {
	return b.state
}

// Sync copies the host camera onto the secondary camera, resizes the
// surface and renders the scene. It must run after the host has updated
// its camera for the frame. Errors are returned for the caller to log;
// Sync never panics into the host frame.
func (b *Bridge) Sync() error {
	if b.state != Attached {
		b.log.Debug("sync while detached")
		return ErrDetached
	}

	view, err := math.ToRowMajor(b.host.ViewMatrix())
	if err != nil {
		return fmt.Errorf("host view matrix: %w", err)
	}
	inverse, err := math.ToRowMajor(b.host.InverseViewMatrix())
	if err != nil {
		return fmt.Errorf("host inverse view matrix: %w", err)
	}

	// Both matrices are taken as given; the camera never re-derives one
	// from the other.
	b.camera.SetWorldMatrixRowMajor(inverse)
	b.camera.SetViewMatrixRowMajor(view)

	w, h := b.container.Size()
	b.camera.FovY = b.host.FovY()
	b.camera.Aspect = aspect(w, h)
	b.camera.UpdateProjection()

	b.surface.SetSize(w, h)
	b.syncs++

	if err := b.surface.Render(b.scene, b.camera); err != nil {
		return fmt.Errorf("rendering overlay: %w", err)
	}
	return nil
}

// Resize matches the surface to the container outside of Sync, for host
// resize events.
func (b *Bridge) Resize() {
	if b.state != Attached {
		return
	}
	w, h := b.container.Size()
	b.camera.Aspect = aspect(w, h)
	b.camera.UpdateProjection()
	b.surface.SetSize(w, h)
}

// AddAnchored wraps obj in a group and adds it to the scene. With a
// non-nil anchor the group is placed in the anchor's East-North-Up frame,
// so obj can be authored in local meters. The returned group is the
// handle for Remove.
func (b *Bridge) AddAnchored(name string, obj scene.Drawable, anchor *mgl64.Vec3) *scene.Node {
	group := scene.NewGroup(name)
	group.Add(scene.NewNode(name, obj))
	if anchor != nil {
		group.SetLocal(geo.EastNorthUpToFixedFrame(*anchor).Matrix())
	}
	b.scene.Add(group)
	return group
}

// Remove takes a group returned by AddAnchored out of the scene.
func (b *Bridge) Remove(group *scene.Node) error {
	return b.scene.Remove(group)
}

// Scene returns the secondary scene.
func (b *Bridge) Scene() *scene.Scene {
	return b.scene
}

// Camera returns the secondary camera.
func (b *Bridge) Camera() *camera.Perspective {
	return b.camera
}

// Syncs returns the number of completed camera syncs.
func (b *Bridge) Syncs() uint64 {
	return b.syncs
}

func aspect(w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 1
	}
	return float64(w) / float64(h)
}
