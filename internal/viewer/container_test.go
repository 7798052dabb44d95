package viewer

import (
	"errors"
	"testing"

	"github.com/Faultbox/seaoverlay/internal/bridge"
	"github.com/Faultbox/seaoverlay/internal/engine/camera"
	"github.com/Faultbox/seaoverlay/internal/engine/scene"
)

type surface struct {
	name  string
	order *[]string
}

func (s *surface) SetSize(int, int)                               {}
func (s *surface) Dispose()                                       {}
func (s *surface) Render(*scene.Scene, *camera.Perspective) error { return nil }
func (s *surface) Composite()                                     { *s.order = append(*s.order, s.name) }

func TestContainerComposite(t *testing.T) {
	var order []string
	c := newContainer(func() (int, int) { return 640, 480 })

	a := &surface{name: "a", order: &order}
	b := &surface{name: "b", order: &order}
	inline := &surface{name: "inline", order: &order}
	overlay := bridge.MountOptions{Overlay: true, PointerPassthrough: true}

	if err := c.Mount(a, overlay); err != nil {
		t.Fatal(err)
	}
	if err := c.Mount(b, overlay); err != nil {
		t.Fatal(err)
	}
	if err := c.Mount(inline, bridge.MountOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := c.Mount(a, overlay); !errors.Is(err, ErrMounted) {
		t.Errorf("second Mount = %v, want ErrMounted", err)
	}

	c.Composite()
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("composite order = %v, want [a b]", order)
	}
	if c.PointerTargets() != 1 {
		t.Errorf("pointer targets = %d, want 1", c.PointerTargets())
	}

	c.Unmount(a)
	c.Unmount(a)
	order = order[:0]
	c.Composite()
	if len(order) != 1 || order[0] != "b" {
		t.Errorf("after unmount = %v, want [b]", order)
	}

	if w, h := c.Size(); w != 640 || h != 480 {
		t.Errorf("size = %dx%d", w, h)
	}
}
