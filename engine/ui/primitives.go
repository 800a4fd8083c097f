package ui

// TextureID names a texture managed by the painter on behalf of the UI layer.
type TextureID uint64

// WhiteTexture is always present: a 1x1 opaque white texture used by
// untextured primitives.
const WhiteTexture TextureID = 0

// Image is tightly packed RGBA8, row-major, top-left origin.
type Image struct {
	Width, Height int
	Pixels        []byte
}

// TexturesDelta is applied by the painter before painting a pass.
type TexturesDelta struct {
	Set  map[TextureID]Image
	Free []TextureID
}

// Vertex is one corner of a UI triangle: position in physical pixels from
// the top-left, texture coordinates, and straight-alpha color.
type Vertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

// Rect is a clip rectangle in physical pixels.
type Rect struct {
	Min, Max [2]float32
}

// Primitive is one drawable produced by a UI pass. Concrete kinds are
// resolved by the painter into renderables once per primitive.
type Primitive interface{ isPrimitive() }

// Mesh is a clipped, indexed triangle list sampling one texture.
type Mesh struct {
	Clip     Rect
	Texture  TextureID
	Vertices []Vertex
	Indices  []uint32
}

func (Mesh) isPrimitive() {}

// Callback defers to user GL code between host-painted primitives. The host
// guarantees the context is current against the target surface when Fn runs.
type Callback struct {
	Clip Rect
	Fn   func(screenW, screenH int)
}

func (Callback) isPrimitive() {}
