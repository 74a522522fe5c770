//go:build !nogpu

package halnative

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/webgpunative/internal/native"
	"github.com/gogpu/webgpunative/internal/shader"
)

var (
	errForeign     = errors.New("halnative: object belongs to another backend")
	errNotMappable = errors.New("halnative: buffer in default heap is not mappable")
)

type device struct {
	info   native.AdapterInfo
	target shader.Target
	dev    hal.Device
	queue  *queue
}

func (d *device) Info() native.AdapterInfo { return d.info }

func (d *device) ShaderTarget() shader.Target { return d.target }

func (d *device) wrap(op string, err error) error {
	return fmt.Errorf("%s: %s: %w", d.info.Backend, op, err)
}

// CreateCommandQueue returns the device queue. hal exposes a single queue
// per device, so every call shares it.
func (d *device) CreateCommandQueue() (native.Queue, error) {
	return d.queue, nil
}

// CreateCommandAllocator returns a placeholder; hal encoders own their memory.
func (d *device) CreateCommandAllocator() (native.CommandAllocator, error) {
	return allocator{}, nil
}

func (d *device) CreateCommandList(alloc native.CommandAllocator) (native.CommandList, error) {
	if _, ok := alloc.(allocator); !ok {
		return nil, errForeign
	}
	enc, err := d.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "webgpunative"})
	if err != nil {
		return nil, d.wrap("create command encoder", err)
	}
	if err := enc.BeginEncoding("webgpunative"); err != nil {
		enc.Destroy()
		return nil, d.wrap("begin encoding", err)
	}
	return &commandList{dev: d, enc: enc}, nil
}

func (d *device) CreateFence(initial uint64) (native.Fence, error) {
	return &fence{completed: initial}, nil
}

func (d *device) CreateBuffer(desc *native.BufferDescriptor) (native.Buffer, error) {
	usage := desc.Usage
	switch desc.Heap {
	case native.HeapUpload:
		usage |= gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc
	case native.HeapReadback:
		usage |= gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst
	default:
		usage |= gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc
	}
	raw, err := d.dev.CreateBuffer(&hal.BufferDescriptor{Label: desc.Label, Size: desc.Size, Usage: usage})
	if err != nil {
		return nil, d.wrap("create buffer", err)
	}
	return &buffer{dev: d.dev, raw: raw, size: desc.Size, heap: desc.Heap}, nil
}

func (d *device) CreateTexture(desc *native.TextureDescriptor) (native.Texture, error) {
	usage := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc |
		gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding
	raw, err := d.dev.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         usage,
	})
	if err != nil {
		return nil, d.wrap("create texture", err)
	}
	return &texture{dev: d.dev, raw: raw, width: desc.Width, height: desc.Height, format: desc.Format}, nil
}

func (d *device) CreateView(tex native.Texture) (native.View, error) {
	t, ok := tex.(*texture)
	if !ok {
		return nil, errForeign
	}
	raw, err := d.dev.CreateTextureView(t.raw, &hal.TextureViewDescriptor{
		Format:          t.format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return nil, d.wrap("create texture view", err)
	}
	return &view{dev: d.dev, raw: raw, tex: t}, nil
}

func (d *device) Footprint(tex native.Texture) native.Footprint {
	return native.TextureFootprint(tex.Width(), tex.Height(), native.BytesPerPixel(tex.Format()))
}

func (d *device) Map(buf native.Buffer) ([]byte, error) {
	b, ok := buf.(*buffer)
	if !ok {
		return nil, errForeign
	}
	if b.heap == native.HeapDefault {
		return nil, errNotMappable
	}
	m, err := d.dev.MapBuffer(b.raw, 0, b.size)
	if err != nil {
		return nil, d.wrap("map buffer", err)
	}
	return unsafe.Slice((*byte)(m.Ptr), b.size), nil
}

func (d *device) Unmap(buf native.Buffer) {
	if b, ok := buf.(*buffer); ok {
		if err := d.dev.UnmapBuffer(b.raw); err != nil {
			hal.Logger().Warn("halnative: unmap failed", "err", err)
		}
	}
}

// CompileShader creates a hal shader module. Vulkan consumes the SPIR-V
// words; the other backends translate WGSL themselves.
func (d *device) CompileShader(u *shader.Unit) (native.ShaderBlob, error) {
	src := hal.ShaderSource{WGSL: u.WGSL}
	if u.Target == shader.TargetSPIRV && len(u.SPIRV) > 0 {
		src = hal.ShaderSource{SPIRV: u.SPIRV}
	}
	mod, err := d.dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  u.Stage.String() + ":" + u.EntryPoint,
		Source: src,
	})
	if err != nil {
		return nil, d.wrap("create shader module", err)
	}
	return &shaderBlob{dev: d.dev, raw: mod, stage: u.Stage, entryPoint: u.EntryPoint}, nil
}

func (d *device) CreatePipeline(desc *native.PipelineDescriptor) (native.Pipeline, error) {
	vs, ok := desc.Vertex.(*shaderBlob)
	if !ok || vs == nil {
		return nil, errForeign
	}
	layout, err := d.dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{Label: desc.Label})
	if err != nil {
		return nil, d.wrap("create pipeline layout", err)
	}

	ms := gputypes.DefaultMultisampleState()
	if desc.SampleCount > 0 {
		ms.Count = desc.SampleCount
	}
	hd := &hal.RenderPipelineDescriptor{
		Label:       desc.Label,
		Layout:      layout,
		Vertex:      hal.VertexState{Module: vs.raw, EntryPoint: vs.entryPoint, Buffers: desc.Buffers},
		Primitive:   desc.Primitive,
		Multisample: ms,
	}
	if ds := desc.DepthStencil; ds != nil {
		hd.DepthStencil = &hal.DepthStencilState{
			Format:            ds.Format,
			DepthWriteEnabled: ds.DepthWriteEnabled,
			DepthCompare:      ds.DepthCompare,
			StencilReadMask:   ds.StencilReadMask,
			StencilWriteMask:  ds.StencilWriteMask,
		}
	}
	if desc.Fragment != nil {
		fs, ok := desc.Fragment.(*shaderBlob)
		if !ok {
			d.dev.DestroyPipelineLayout(layout)
			return nil, errForeign
		}
		hd.Fragment = &hal.FragmentState{Module: fs.raw, EntryPoint: fs.entryPoint, Targets: desc.Targets}
	}

	raw, err := d.dev.CreateRenderPipeline(hd)
	if err != nil {
		d.dev.DestroyPipelineLayout(layout)
		return nil, d.wrap("create render pipeline", err)
	}
	return &pipeline{dev: d.dev, raw: raw, layout: layout}, nil
}

// DrainMessages returns nothing. hal reports validation output through its
// slog logger.
func (d *device) DrainMessages() []string { return nil }

func (d *device) Destroy() { d.dev.Destroy() }

type allocator struct{}

func (allocator) Destroy() {}

type buffer struct {
	dev  hal.Device
	raw  hal.Buffer
	size uint64
	heap native.HeapType
}

func (b *buffer) Size() uint64          { return b.size }
func (b *buffer) Heap() native.HeapType { return b.heap }
func (b *buffer) Destroy()              { b.dev.DestroyBuffer(b.raw) }

type texture struct {
	dev    hal.Device
	raw    hal.Texture
	width  uint32
	height uint32
	format gputypes.TextureFormat
}

func (t *texture) Width() uint32                  { return t.width }
func (t *texture) Height() uint32                 { return t.height }
func (t *texture) Format() gputypes.TextureFormat { return t.format }
func (t *texture) Destroy()                       { t.dev.DestroyTexture(t.raw) }

type view struct {
	dev hal.Device
	raw hal.TextureView
	tex *texture
}

func (v *view) Texture() native.Texture { return v.tex }
func (v *view) Destroy()                { v.dev.DestroyTextureView(v.raw) }

type shaderBlob struct {
	dev        hal.Device
	raw        hal.ShaderModule
	stage      shader.Stage
	entryPoint string
}

func (s *shaderBlob) Stage() shader.Stage { return s.stage }
func (s *shaderBlob) EntryPoint() string  { return s.entryPoint }
func (s *shaderBlob) Destroy()            { s.dev.DestroyShaderModule(s.raw) }

type pipeline struct {
	dev    hal.Device
	raw    hal.RenderPipeline
	layout hal.PipelineLayout
}

func (p *pipeline) Destroy() {
	p.dev.DestroyRenderPipeline(p.raw)
	p.dev.DestroyPipelineLayout(p.layout)
}
