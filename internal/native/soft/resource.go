package soft

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/native"
	"github.com/gogpu/webgpunative/internal/shader"
)

type buffer struct {
	label string
	data  []byte
	heap  native.HeapType
	usage gputypes.BufferUsage
	maps  int
}

func (b *buffer) Size() uint64          { return uint64(len(b.data)) }
func (b *buffer) Heap() native.HeapType { return b.heap }
func (b *buffer) Destroy()              { b.data = nil }

type texture struct {
	label  string
	width  uint32
	height uint32
	format gputypes.TextureFormat
	bpp    uint32
	state  native.ResourceState
	data   []byte
}

func (t *texture) Width() uint32                  { return t.width }
func (t *texture) Height() uint32                 { return t.height }
func (t *texture) Format() gputypes.TextureFormat { return t.format }
func (t *texture) Destroy()                       { t.data = nil }

func (t *texture) rowBytes() uint32 { return t.width * t.bpp }

type view struct {
	tex *texture
}

func (v *view) Texture() native.Texture { return v.tex }
func (v *view) Destroy()                {}

type allocator struct{}

func (allocator) Destroy() {}

type shaderBlob struct {
	stage      shader.Stage
	entryPoint string
	profile    string
	code       []byte
	inputs     []shader.VertexInput
	flow       *shader.Flow
}

func (s *shaderBlob) Stage() shader.Stage { return s.stage }
func (s *shaderBlob) EntryPoint() string  { return s.entryPoint }
func (s *shaderBlob) Destroy()            { s.code = nil }

// pipeline is the resolved pipeline state used by the rasterizer.
type pipeline struct {
	label        string
	vertex       *shaderBlob
	fragment     *shaderBlob
	buffers      []gputypes.VertexBufferLayout
	primitive    gputypes.PrimitiveState
	depthStencil *gputypes.DepthStencilState
	writeMask    gputypes.ColorWriteMask

	// position and color locate the pass-through attributes.
	position attribRef
	color    attribRef
	hasColor bool
}

func (p *pipeline) Destroy() {}

// attribRef addresses one vertex attribute inside the bound buffers.
type attribRef struct {
	slot   uint32
	offset uint64
	stride uint64
	format gputypes.VertexFormat
}
