// Package renderer draws the viewer's stand-in for the host globe: a
// graticule patch around the anchor, seen through the globe camera.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/seaoverlay/internal/engine/shader"
	"github.com/Faultbox/seaoverlay/internal/logger"
	"github.com/Faultbox/seaoverlay/pkg/geo"
	"github.com/Faultbox/seaoverlay/pkg/math"
)

const globeVertexShader = `#version 410 core
layout (location = 0) in vec3 aPos;
uniform mat4 uModelView;
uniform mat4 uProjection;
out float vDepth;
void main() {
    vec4 viewPos = uModelView * vec4(aPos, 1.0);
    vDepth = -viewPos.z;
    gl_Position = uProjection * viewPos;
}
`

const globeFragmentShader = `#version 410 core
in float vDepth;
uniform vec3 uLineColor;
uniform float uFadeDistance;
out vec4 FragColor;
void main() {
    float fade = clamp(1.0 - vDepth / uFadeDistance, 0.15, 1.0);
    FragColor = vec4(uLineColor * fade, 1.0);
}
`

// Config holds renderer configuration.
type Config struct {
	Width     int
	Height    int
	Graticule Graticule
}

// View is the host camera state the renderer draws with.
type View interface {
	FovY() float64
	Near() float64
	Far() float64
	ViewMatrix() []float64
}

// Renderer handles the host-side OpenGL rendering.
type Renderer struct {
	config Config
	log    *zap.Logger

	program *shader.Program
	frame   geo.Frame

	lineVAO   uint32
	lineVBO   uint32
	lineCount int32
}

// New creates a new renderer.
// Must be called after the OpenGL context is created.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		log:    logger.Named("renderer"),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.02, 0.04, 0.08, 1.0)

	var err error
	r.program, err = shader.New(globeVertexShader, globeFragmentShader,
		"uModelView", "uProjection", "uLineColor", "uFadeDistance")
	if err != nil {
		return nil, fmt.Errorf("failed to create globe shader: %w", err)
	}

	if err := r.createGraticule(); err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to create graticule: %w", err)
	}

	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.lineVAO != 0 {
		gl.DeleteVertexArrays(1, &r.lineVAO)
		r.lineVAO = 0
	}
	if r.lineVBO != 0 {
		gl.DeleteBuffers(1, &r.lineVBO)
		r.lineVBO = 0
	}
	if r.program != nil {
		r.program.Delete()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.ClearColor(0.02, 0.04, 0.08, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// DrawGlobe draws the graticule as seen by v.
func (r *Renderer) DrawGlobe(v View) error {
	src := v.ViewMatrix()
	if len(src) != 16 {
		return fmt.Errorf("globe view: %w", math.ErrMatrixLength)
	}
	var view mgl64.Mat4
	copy(view[:], src)

	aspect := 1.0
	if r.config.Height > 0 {
		aspect = float64(r.config.Width) / float64(r.config.Height)
	}
	proj := mgl64.Perspective(mgl64.DegToRad(v.FovY()), aspect, v.Near(), v.Far())
	modelView := view.Mul4(r.frame.Matrix())

	mv := math.Mat4FromFloat64(modelView)
	p := math.Mat4FromFloat64(proj)

	r.program.Use()
	gl.UniformMatrix4fv(r.program.Loc("uModelView"), 1, false, mv.Ptr())
	gl.UniformMatrix4fv(r.program.Loc("uProjection"), 1, false, p.Ptr())
	gl.Uniform3f(r.program.Loc("uLineColor"), 0.35, 0.55, 0.45)
	gl.Uniform1f(r.program.Loc("uFadeDistance"), float32(v.Far()*0.05))

	gl.BindVertexArray(r.lineVAO)
	gl.DrawArrays(gl.LINES, 0, r.lineCount)
	gl.BindVertexArray(0)
	return nil
}

// ReadPixels returns the bound framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

func (r *Renderer) createGraticule() error {
	segs, frame, err := r.config.Graticule.Lines()
	if err != nil {
		return err
	}
	r.frame = frame

	vertices := make([]float32, 0, len(segs)*3)
	for _, p := range segs {
		vertices = append(vertices, float32(p[0]), float32(p[1]), float32(p[2]))
	}
	r.lineCount = int32(len(segs))

	gl.GenVertexArrays(1, &r.lineVAO)
	gl.BindVertexArray(r.lineVAO)

	gl.GenBuffers(1, &r.lineVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	r.log.Debug("graticule created",
		zap.Int32("vertices", r.lineCount),
		zap.Uint32("vao", r.lineVAO),
	)
	return nil
}
