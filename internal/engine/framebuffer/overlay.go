package framebuffer

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/seaoverlay/internal/engine/camera"
	"github.com/Faultbox/seaoverlay/internal/engine/scene"
	"github.com/Faultbox/seaoverlay/internal/engine/shader"
)

// ErrDisposed is returned when rendering into a disposed overlay.
var ErrDisposed = errors.New("framebuffer: overlay disposed")

const compositeVertexShader = `#version 410 core
out vec2 vUV;
void main() {
    // Fullscreen triangle from gl_VertexID
    vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    vUV = pos;
    gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
`

const compositeFragmentShader = `#version 410 core
in vec2 vUV;
uniform sampler2D uOverlay;
out vec4 FragColor;
void main() {
    FragColor = texture(uOverlay, vUV);
}
`

// Overlay is a transparent render surface layered over the host's frame.
// The scene is drawn into an offscreen target; Composite blends it onto
// whatever framebuffer is bound.
type Overlay struct {
	fb        *Framebuffer
	composite *shader.Program
	vao       uint32
	width     int
	height    int
}

// NewOverlay creates an overlay sized width × height. It must be called
// with a current GL context.
func NewOverlay(width, height int) (*Overlay, error) {
	fb, err := New(int32(width), int32(height))
	if err != nil {
		return nil, err
	}
	prog, err := shader.New(compositeVertexShader, compositeFragmentShader, "uOverlay")
	if err != nil {
		fb.Destroy()
		return nil, fmt.Errorf("composite shader: %w", err)
	}
	o := &Overlay{fb: fb, composite: prog, width: width, height: height}
	// Core profile needs a bound VAO even for attribute-less draws
	gl.GenVertexArrays(1, &o.vao)
	return o, nil
}

// SetSize resizes the offscreen target.
func (o *Overlay) SetSize(width, height int) {
	if o.fb == nil {
		return
	}
	o.width, o.height = width, height
	o.fb.Resize(int32(width), int32(height))
}

// Size returns the overlay size in pixels.
func (o *Overlay) Size() (int, int) {
	return o.width, o.height
}

// Render draws the scene from cam into the offscreen target, cleared to
// fully transparent.
func (o *Overlay) Render(s *scene.Scene, cam *camera.Perspective) error {
	if o.fb == nil {
		return ErrDisposed
	}
	restore := o.fb.BindWithViewport()
	defer restore()

	o.fb.Clear(0, 0, 0, 0)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	return s.Render(cam.ViewMatrix(), cam.Projection(), o.width, o.height)
}

// Composite blends the last rendered frame over the bound framebuffer.
func (o *Overlay) Composite() {
	if o.fb == nil {
		return
	}
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	// The offscreen target holds premultiplied color
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)

	o.composite.Use()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, o.fb.ColorTexture())
	gl.Uniform1i(o.composite.Loc("uOverlay"), 0)

	gl.BindVertexArray(o.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.Enable(gl.DEPTH_TEST)
}

// Dispose releases all GPU resources. Disposing twice is a no-op.
func (o *Overlay) Dispose() {
	if o.fb == nil {
		return
	}
	o.fb.Destroy()
	o.fb = nil
	o.composite.Delete()
	if o.vao != 0 {
		gl.DeleteVertexArrays(1, &o.vao)
		o.vao = 0
	}
}
