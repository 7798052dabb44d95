package scene

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrNotChild is returned when removing a node from a parent it is not
// attached to.
var ErrNotChild = errors.New("scene: node is not a child")

// Drawable is an object the render surface can draw.
type Drawable interface {
	Draw(ctx DrawContext) error
}

// DrawContext carries the per-object matrices for one draw call.
// ModelView is computed in float64 so large geocentric translations cancel
// before narrowing to float32.
type DrawContext struct {
	Model      mgl64.Mat4
	ModelView  mgl64.Mat4
	Projection mgl64.Mat4
	Width      int
	Height     int
}

// Node is an element of the scene graph. A node with a nil Object is a
// plain group.
type Node struct {
	Name    string
	Object  Drawable
	Visible bool

	local    mgl64.Mat4
	parent   *Node
	children []*Node
}

// NewNode creates a visible node with an identity transform.
func NewNode(name string, obj Drawable) *Node {
	return &Node{
		Name:    name,
		Object:  obj,
		Visible: true,
		local:   mgl64.Ident4(),
	}
}

// NewGroup creates an empty group node.
func NewGroup(name string) *Node {
	return NewNode(name, nil)
}

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.parent != nil {
		_ = child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n.
func (n *Node) Remove(child *Node) error {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return nil
		}
	}
	return ErrNotChild
}

// Parent returns the parent node, or nil for a root or detached node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the child nodes. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// SetLocal sets the node's transform relative to its parent.
func (n *Node) SetLocal(m mgl64.Mat4) {
	n.local = m
}

// Local returns the node's transform relative to its parent.
func (n *Node) Local() mgl64.Mat4 {
	return n.local
}

// World returns the node's transform relative to the root.
func (n *Node) World() mgl64.Mat4 {
	m := n.local
	for p := n.parent; p != nil; p = p.parent {
		m = p.local.Mul4(m)
	}
	return m
}

// Walk visits n and its visible descendants depth first, passing each
// node's world transform. A hidden node hides its subtree. Walking stops
// at the first error.
func (n *Node) Walk(fn func(node *Node, world mgl64.Mat4) error) error {
	var parentWorld mgl64.Mat4
	if n.parent != nil {
		parentWorld = n.parent.World()
	} else {
		parentWorld = mgl64.Ident4()
	}
	return n.walk(parentWorld, fn)
}

func (n *Node) walk(parentWorld mgl64.Mat4, fn func(*Node, mgl64.Mat4) error) error {
	if !n.Visible {
		return nil
	}
	world := parentWorld.Mul4(n.local)
	if err := fn(n, world); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.walk(world, fn); err != nil {
			return err
		}
	}
	return nil
}
