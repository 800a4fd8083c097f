// Package glbackend paints UI primitives with OpenGL 3.3 core.
// One painter is shared by all viewports; the context ownership cell decides
// which surface its draw calls land in.
package glbackend

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/mirador-engine/mirador/engine/colors"
	"github.com/mirador-engine/mirador/engine/profiler"
	"github.com/mirador-engine/mirador/engine/ui"
)

// Renderable is the capability a primitive resolves to: prepared once, then
// painted with the context current against the target surface.
type Renderable interface {
	Prepare(p *Painter) error
	Paint(p *Painter, screenW, screenH int)
}

type Painter struct {
	logger *slog.Logger

	program uint32
	vao     uint32
	vbo     uint32
	ebo     uint32

	uScreen  int32
	textures map[ui.TextureID]uint32
}

// New compiles the UI pipeline. The shared context must be current against
// some surface when this and every other method runs.
func New(logger *slog.Logger) (*Painter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Painter{logger: logger, textures: map[ui.TextureID]uint32{}}

	var err error
	p.program, err = makeProgram(vertexSource, fragmentSource)
	if err != nil {
		return nil, err
	}
	p.uScreen = gl.GetUniformLocation(p.program, gl.Str("uScreenSize\x00"))

	gl.GenVertexArrays(1, &p.vao)
	gl.BindVertexArray(p.vao)
	gl.GenBuffers(1, &p.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vbo)
	gl.GenBuffers(1, &p.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, p.ebo)

	// layout: pos2 + uv2 + color4, tightly packed float32
	const stride = 8 * 4
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, stride, gl.PtrOffset(4*4))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)

	// The always-present 1x1 white texture untextured meshes sample.
	p.setTexture(ui.WhiteTexture, ui.Image{Width: 1, Height: 1, Pixels: []byte{255, 255, 255, 255}})

	return p, nil
}

func (p *Painter) Destroy() {
	for _, tex := range p.textures {
		gl.DeleteTextures(1, &tex)
	}
	p.textures = map[ui.TextureID]uint32{}
	if p.ebo != 0 {
		gl.DeleteBuffers(1, &p.ebo)
	}
	if p.vbo != 0 {
		gl.DeleteBuffers(1, &p.vbo)
	}
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
	}
	if p.program != 0 {
		gl.DeleteProgram(p.program)
	}
}

func (p *Painter) Clear(size [2]int, c colors.Color) {
	gl.Viewport(0, 0, int32(size[0]), int32(size[1]))
	gl.Disable(gl.SCISSOR_TEST)
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// UpdateTextures applies the UI layer's texture delta before a paint.
func (p *Painter) UpdateTextures(delta ui.TexturesDelta) {
	for id, img := range delta.Set {
		p.setTexture(id, img)
	}
	for _, id := range delta.Free {
		if id == ui.WhiteTexture {
			continue
		}
		if tex, ok := p.textures[id]; ok {
			gl.DeleteTextures(1, &tex)
			delete(p.textures, id)
		}
	}
}

// Paint resolves each primitive to its renderable once and draws it.
func (p *Painter) Paint(size [2]int, prims []ui.Primitive) {
	defer profiler.Start("painter.Paint")()

	gl.Viewport(0, 0, int32(size[0]), int32(size[1]))
	for _, prim := range prims {
		r, err := p.renderableFor(prim)
		if err != nil {
			p.logger.Error("skipping primitive", "error", err)
			continue
		}
		if err := r.Prepare(p); err != nil {
			p.logger.Error("prepare failed", "error", err)
			continue
		}
		r.Paint(p, size[0], size[1])
	}
	gl.Disable(gl.SCISSOR_TEST)
}

func (p *Painter) renderableFor(prim ui.Primitive) (Renderable, error) {
	switch v := prim.(type) {
	case ui.Mesh:
		return &meshRenderable{mesh: v}, nil
	case ui.Callback:
		return &callbackRenderable{cb: v}, nil
	default:
		return nil, fmt.Errorf("glbackend: unknown primitive %T", prim)
	}
}

// ReadScreen reads back the presented surface (front buffer), row-flipped to
// top-left origin.
func (p *Painter) ReadScreen(size [2]int) ui.Image {
	defer profiler.Start("painter.ReadScreen")()

	w, h := size[0], size[1]
	pix := make([]byte, w*h*4)
	gl.ReadBuffer(gl.FRONT)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.ReadBuffer(gl.BACK)

	// GL reads bottom-up; flip rows in place.
	row := make([]byte, w*4)
	for y := 0; y < h/2; y++ {
		top := pix[y*w*4 : (y+1)*w*4]
		bot := pix[(h-1-y)*w*4 : (h-y)*w*4]
		copy(row, top)
		copy(top, bot)
		copy(bot, row)
	}
	return ui.Image{Width: w, Height: h, Pixels: pix}
}

func (p *Painter) setTexture(id ui.TextureID, img ui.Image) {
	tex, ok := p.textures[id]
	if !ok {
		gl.GenTextures(1, &tex)
		p.textures[id] = tex
	}
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(img.Width), int32(img.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pixels))
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// --- renderables ---

type meshRenderable struct {
	mesh  ui.Mesh
	verts []float32
}

func (m *meshRenderable) Prepare(p *Painter) error {
	if len(m.mesh.Indices)%3 != 0 {
		return fmt.Errorf("glbackend: mesh index count %d not a multiple of 3", len(m.mesh.Indices))
	}
	if _, ok := p.textures[m.mesh.Texture]; !ok {
		return fmt.Errorf("glbackend: mesh references unknown texture %d", m.mesh.Texture)
	}
	m.verts = m.verts[:0]
	for _, v := range m.mesh.Vertices {
		m.verts = append(m.verts,
			v.Pos[0], v.Pos[1],
			v.UV[0], v.UV[1],
			v.Color[0], v.Color[1], v.Color[2], v.Color[3],
		)
	}
	return nil
}

func (m *meshRenderable) Paint(p *Painter, screenW, screenH int) {
	if len(m.mesh.Indices) == 0 {
		return
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)
	applyScissor(m.mesh.Clip, screenH)

	gl.UseProgram(p.program)
	gl.Uniform2f(p.uScreen, float32(screenW), float32(screenH))

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, p.textures[m.mesh.Texture])

	gl.BindVertexArray(p.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.verts)*4, gl.Ptr(m.verts), gl.STREAM_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, p.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.mesh.Indices)*4, gl.Ptr(m.mesh.Indices), gl.STREAM_DRAW)

	gl.DrawElements(gl.TRIANGLES, int32(len(m.mesh.Indices)), gl.UNSIGNED_INT, nil)

	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

type callbackRenderable struct{ cb ui.Callback }

func (c *callbackRenderable) Prepare(*Painter) error { return nil }

func (c *callbackRenderable) Paint(_ *Painter, screenW, screenH int) {
	if c.cb.Fn == nil {
		return
	}
	applyScissor(c.cb.Clip, screenH)
	c.cb.Fn(screenW, screenH)
}

// applyScissor converts a top-left-origin clip rect to GL's bottom-left
// scissor box. A zero rect disables clipping.
func applyScissor(clip ui.Rect, screenH int) {
	w := clip.Max[0] - clip.Min[0]
	h := clip.Max[1] - clip.Min[1]
	if w <= 0 || h <= 0 {
		gl.Disable(gl.SCISSOR_TEST)
		return
	}
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(int32(clip.Min[0]), int32(float32(screenH)-clip.Max[1]), int32(w), int32(h))
}

// --- shader utilities ---

const vertexSource = `
#version 330 core
layout(location=0) in vec2 aPos;
layout(location=1) in vec2 aUV;
layout(location=2) in vec4 aColor;
uniform vec2 uScreenSize;
out vec2 vUV;
out vec4 vColor;
void main() {
    vUV = aUV;
    vColor = aColor;
    gl_Position = vec4(
        2.0 * aPos.x / uScreenSize.x - 1.0,
        1.0 - 2.0 * aPos.y / uScreenSize.y,
        0.0, 1.0);
}
` + "\x00"

const fragmentSource = `
#version 330 core
in vec2 vUV;
in vec4 vColor;
uniform sampler2D uTex;
out vec4 FragColor;
void main() {
    FragColor = vColor * texture(uTex, vUV);
}
` + "\x00"

func makeShader(src string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	defer free()
	gl.ShaderSource(sh, 1, csrc, nil)
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := make([]byte, logLen+1)
		gl.GetShaderInfoLog(sh, logLen, nil, &infoLog[0])
		return 0, fmt.Errorf("shader compile error: %s", infoLog)
	}
	return sh, nil
}

func makeProgram(vsSrc, fsSrc string) (uint32, error) {
	vs, err := makeShader(vsSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := makeShader(fsSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := make([]byte, logLen+1)
		gl.GetProgramInfoLog(prog, logLen, nil, &infoLog[0])
		return 0, fmt.Errorf("program link error: %s", infoLog)
	}
	return prog, nil
}
