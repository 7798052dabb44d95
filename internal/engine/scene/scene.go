// Package scene provides the overlay's scene graph: a tree of nodes with
// float64 world transforms, some of which carry drawable objects.
package scene

import "github.com/go-gl/mathgl/mgl64"

// Scene is the root of an overlay scene graph.
type Scene struct {
	Root *Node
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{Root: NewGroup("root")}
}

// Add attaches n to the scene root.
func (s *Scene) Add(n *Node) {
	s.Root.Add(n)
}

// Remove detaches n from its parent if that parent belongs to this scene.
func (s *Scene) Remove(n *Node) error {
	if !s.Contains(n) || n.parent == nil {
		return ErrNotChild
	}
	return n.parent.Remove(n)
}

// Contains reports whether n is attached to this scene.
func (s *Scene) Contains(n *Node) bool {
	for p := n; p != nil; p = p.parent {
		if p == s.Root {
			return true
		}
	}
	return false
}

// Drawables calls fn for every visible node that has an object.
func (s *Scene) Drawables(fn func(obj Drawable, world mgl64.Mat4) error) error {
	return s.Root.Walk(func(n *Node, world mgl64.Mat4) error {
		if n.Object == nil {
			return nil
		}
		return fn(n.Object, world)
	})
}

// Clear detaches every node from the root.
func (s *Scene) Clear() {
	for len(s.Root.children) > 0 {
		_ = s.Root.Remove(s.Root.children[0])
	}
}

// Render draws every visible object with the given camera matrices.
// ModelView is view * world, computed in float64.
func (s *Scene) Render(view, projection mgl64.Mat4, width, height int) error {
	return s.Drawables(func(obj Drawable, world mgl64.Mat4) error {
		return obj.Draw(DrawContext{
			Model:      world,
			ModelView:  view.Mul4(world),
			Projection: projection,
			Width:      width,
			Height:     height,
		})
	})
}
