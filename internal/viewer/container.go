package viewer

import (
	"errors"

	"github.com/Faultbox/seaoverlay/internal/bridge"
)

// ErrMounted is returned when a surface is mounted twice.
var ErrMounted = errors.New("viewer: surface already mounted")

// Compositor is a mounted surface that can blend itself onto the window.
type Compositor interface {
	Composite()
}

// container is the window seen as the host element overlays mount into.
type container struct {
	size    func() (int, int)
	mounted []mount
}

type mount struct {
	surface bridge.RenderSurface
	opts    bridge.MountOptions
}

func newContainer(size func() (int, int)) *container {
	return &container{size: size}
}

// Size returns the window's drawable size.
func (c *container) Size() (int, int) {
	return c.size()
}

// Mount adds s on top of everything mounted so far.
func (c *container) Mount(s bridge.RenderSurface, opts bridge.MountOptions) error {
	for _, m := range c.mounted {
		if m.surface == s {
			return ErrMounted
		}
	}
	c.mounted = append(c.mounted, mount{surface: s, opts: opts})
	return nil
}

// Unmount removes s. Unknown surfaces are ignored.
func (c *container) Unmount(s bridge.RenderSurface) {
	for i, m := range c.mounted {
		if m.surface == s {
			c.mounted = append(c.mounted[:i], c.mounted[i+1:]...)
			return
		}
	}
}

// Composite blends overlay surfaces in mount order.
func (c *container) Composite() {
	for _, m := range c.mounted {
		if !m.opts.Overlay {
			continue
		}
		if comp, ok := m.surface.(Compositor); ok {
			comp.Composite()
		}
	}
}

// PointerTargets reports how many mounted surfaces take pointer input.
// The viewer routes pointer events to the globe only when this is zero.
func (c *container) PointerTargets() int {
	n := 0
	for _, m := range c.mounted {
		if !m.opts.PointerPassthrough {
			n++
		}
	}
	return n
}
