package surface

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/seaoverlay/internal/engine/lighting"
	"github.com/Faultbox/seaoverlay/internal/engine/scene"
	"github.com/Faultbox/seaoverlay/internal/engine/shader"
	"github.com/Faultbox/seaoverlay/internal/engine/water"
	"github.com/Faultbox/seaoverlay/pkg/math"
)

// ShaderParams are the material settings bound on every draw.
type ShaderParams struct {
	Color     [3]float32
	Opacity   float32
	Specular  [3]float32
	Shininess float32
	LightDir  [3]float32 // in the surface's local frame
	Ambient   float32
}

// DefaultShaderParams returns a dark blue, slightly glossy sea material
// lit by a low south-eastern sun.
func DefaultShaderParams() ShaderParams {
	return ShaderParams{
		Color:     [3]float32{0.0, 0.25, 0.45},
		Opacity:   0.85,
		Specular:  [3]float32{0.4, 0.4, 0.4},
		Shininess: 60,
		LightDir:  lighting.SunDirection(135, 25),
		Ambient:   0.35,
	}
}

var surfaceUniforms = []string{
	"uModelView", "uProjection", "uNormalMatrix",
	"uBounds", "uCellScale", "uSize", "uHeightmap",
	"uColor", "uOpacity", "uSpecular", "uShininess", "uLightDir", "uAmbient",
}

// GLRenderer draws a Mesh displaced on the GPU. Per step only the heightmap
// texture is uploaded; the vertex buffer holds cell indices and never
// changes.
type GLRenderer struct {
	Params ShaderParams

	program *shader.Program
	vao     uint32
	vbo     uint32
	ebo     uint32
	heights uint32

	n          int
	bounds     [2]float32
	cellScale  [2]float32
	indexCount int32
}

// NewGLRenderer uploads the mesh topology. It must be called with a
// current GL context.
func NewGLRenderer(mesh *Mesh, params ShaderParams) (*GLRenderer, error) {
	program, err := shader.New(surfaceVertexShader, surfaceFragmentShader, surfaceUniforms...)
	if err != nil {
		return nil, fmt.Errorf("surface shader: %w", err)
	}

	r := &GLRenderer{
		Params:     params,
		program:    program,
		n:          mesh.N,
		bounds:     [2]float32{float32(mesh.Width), float32(mesh.Height)},
		cellScale:  [2]float32{float32(float64(mesh.N) / mesh.Width), float32(float64(mesh.N) / mesh.Height)},
		indexCount: int32(len(mesh.Indices)),
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Cells)*4, gl.Ptr(mesh.Cells), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 2*4, 0)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &r.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	// Single-channel float heightmap, sampled with texelFetch only
	gl.GenTextures(1, &r.heights)
	gl.BindTexture(gl.TEXTURE_2D, r.heights)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R32F, int32(mesh.N), int32(mesh.N), 0, gl.RED, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return r, nil
}

// UploadHeights replaces the heightmap texture with the grid's heights.
func (r *GLRenderer) UploadHeights(g *water.Grid) error {
	if g.Size != r.n {
		return fmt.Errorf("surface: grid size %d does not match renderer %d", g.Size, r.n)
	}
	gl.BindTexture(gl.TEXTURE_2D, r.heights)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(r.n), int32(r.n), gl.RED, gl.FLOAT, gl.Ptr(g.Height))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// Draw renders the surface with the given matrices.
func (r *GLRenderer) Draw(ctx scene.DrawContext) error {
	if r.vao == 0 {
		return errors.New("surface: renderer destroyed")
	}
	modelView := math.Mat4FromFloat64(ctx.ModelView)
	projection := math.Mat4FromFloat64(ctx.Projection)
	normal := modelView.Mat3x3()

	// Light direction follows the surface: rotate it into view space.
	ld := ctx.ModelView.Mul4x1(mgl64.Vec4{
		float64(r.Params.LightDir[0]), float64(r.Params.LightDir[1]), float64(r.Params.LightDir[2]), 0,
	})

	p := r.program
	p.Use()
	gl.UniformMatrix4fv(p.Loc("uModelView"), 1, false, modelView.Ptr())
	gl.UniformMatrix4fv(p.Loc("uProjection"), 1, false, projection.Ptr())
	gl.UniformMatrix3fv(p.Loc("uNormalMatrix"), 1, false, &normal[0])
	gl.Uniform2f(p.Loc("uBounds"), r.bounds[0], r.bounds[1])
	gl.Uniform2f(p.Loc("uCellScale"), r.cellScale[0], r.cellScale[1])
	gl.Uniform1i(p.Loc("uSize"), int32(r.n))

	gl.Uniform3fv(p.Loc("uColor"), 1, &r.Params.Color[0])
	gl.Uniform1f(p.Loc("uOpacity"), r.Params.Opacity)
	gl.Uniform3fv(p.Loc("uSpecular"), 1, &r.Params.Specular[0])
	gl.Uniform1f(p.Loc("uShininess"), r.Params.Shininess)
	gl.Uniform3f(p.Loc("uLightDir"), float32(ld[0]), float32(ld[1]), float32(ld[2]))
	gl.Uniform1f(p.Loc("uAmbient"), r.Params.Ambient)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.heights)
	gl.Uniform1i(p.Loc("uHeightmap"), 0)

	// Premultiplied color, straight coverage in alpha
	gl.Enable(gl.BLEND)
	gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)

	gl.BindVertexArray(r.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, r.indexCount, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// Destroy releases all GPU resources.
func (r *GLRenderer) Destroy() {
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
		r.vbo = 0
	}
	if r.ebo != 0 {
		gl.DeleteBuffers(1, &r.ebo)
		r.ebo = 0
	}
	if r.heights != 0 {
		gl.DeleteTextures(1, &r.heights)
		r.heights = 0
	}
	if r.program != nil {
		r.program.Delete()
	}
}
