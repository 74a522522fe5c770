package soft

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/native"
	"github.com/gogpu/webgpunative/internal/parallel"
	"github.com/gogpu/webgpunative/internal/shader"
)

var (
	errNotMappable = errors.New("soft: buffer in default heap is not mappable")
	errForeign     = errors.New("soft: object belongs to another backend")
)

const (
	// maxDimension is the largest supported texture edge.
	maxDimension  = 16384
	// maxBufferSize is the largest supported buffer allocation.
	maxBufferSize = 256 << 20
)

// Device is a soft logical device.
type Device struct {
	info  native.AdapterInfo
	debug bool
	// pool shades row bands; nil rasterizes serially.
	pool *parallel.Pool

	faults map[string]error

	msgMu    sync.Mutex
	messages []string
}

func newDevice(info native.AdapterInfo, debug bool, workers int, faults map[string]error) *Device {
	d := &Device{info: info, debug: debug, faults: faults}
	if workers != 1 {
		d.pool = parallel.NewPool(workers)
	}
	return d
}

// Info returns the adapter description.
func (d *Device) Info() native.AdapterInfo { return d.info }

// ShaderTarget returns shader.TargetHLSL; units compile with vs_5_0/ps_5_0.
func (d *Device) ShaderTarget() shader.Target { return shader.TargetHLSL }

// report queues a debug message when the debug layer is enabled.
func (d *Device) report(format string, args ...any) {
	if !d.debug {
		return
	}
	d.msgMu.Lock()
	d.messages = append(d.messages, fmt.Sprintf(format, args...))
	d.msgMu.Unlock()
}

// DrainMessages returns and clears queued debug messages.
// fault returns the configured error for the first matching key.
func (d *Device) fault(keys ...string) error {
	for _, k := range keys {
		if err, ok := d.faults[k]; ok {
			return fmt.Errorf("soft: %s: %w", k, err)
		}
	}
	return nil
}

func (d *Device) DrainMessages() []string {
	d.msgMu.Lock()
	defer d.msgMu.Unlock()
	msgs := d.messages
	d.messages = nil
	return msgs
}

func (d *Device) CreateCommandQueue() (native.Queue, error) {
	if err := d.fault("CreateCommandQueue"); err != nil {
		return nil, err
	}
	return newQueue(d), nil
}

func (d *Device) CreateCommandAllocator() (native.CommandAllocator, error) {
	if err := d.fault("CreateCommandAllocator"); err != nil {
		return nil, err
	}
	return allocator{}, nil
}

func (d *Device) CreateCommandList(alloc native.CommandAllocator) (native.CommandList, error) {
	if _, ok := alloc.(allocator); !ok {
		return nil, errForeign
	}
	if err := d.fault("CreateCommandList"); err != nil {
		return nil, err
	}
	return &commandList{dev: d}, nil
}

func (d *Device) CreateFence(initial uint64) (native.Fence, error) {
	if err := d.fault("CreateFence"); err != nil {
		return nil, err
	}
	return newFence(initial), nil
}

func (d *Device) CreateBuffer(desc *native.BufferDescriptor) (native.Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("soft: buffer %q has zero size", desc.Label)
	}
	if desc.Size > maxBufferSize {
		return nil, fmt.Errorf("soft: buffer %q size %d exceeds %d", desc.Label, desc.Size, maxBufferSize)
	}
	if err := d.fault("CreateBuffer/"+desc.Heap.String(), "CreateBuffer"); err != nil {
		return nil, err
	}
	return &buffer{
		label: desc.Label,
		data:  make([]byte, desc.Size),
		heap:  desc.Heap,
		usage: desc.Usage,
	}, nil
}

func (d *Device) CreateTexture(desc *native.TextureDescriptor) (native.Texture, error) {
	bpp := native.BytesPerPixel(desc.Format)
	if bpp == 0 {
		return nil, fmt.Errorf("soft: unsupported texture format %v", desc.Format)
	}
	if desc.Width == 0 || desc.Height == 0 || desc.Width > maxDimension || desc.Height > maxDimension {
		return nil, fmt.Errorf("soft: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	return &texture{
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
		bpp:    bpp,
		state:  desc.InitialState,
		data:   make([]byte, int(desc.Width)*int(desc.Height)*int(bpp)),
	}, nil
}

func (d *Device) CreateView(tex native.Texture) (native.View, error) {
	t, ok := tex.(*texture)
	if !ok {
		return nil, errForeign
	}
	return &view{tex: t}, nil
}

func (d *Device) Footprint(tex native.Texture) native.Footprint {
	t, ok := tex.(*texture)
	if !ok {
		return native.Footprint{}
	}
	return native.TextureFootprint(t.width, t.height, t.bpp)
}

func (d *Device) Map(buf native.Buffer) ([]byte, error) {
	b, ok := buf.(*buffer)
	if !ok {
		return nil, errForeign
	}
	if b.heap == native.HeapDefault {
		return nil, errNotMappable
	}
	if err := d.fault("Map"); err != nil {
		return nil, err
	}
	b.maps++
	return b.data, nil
}

func (d *Device) Unmap(buf native.Buffer) {
	if b, ok := buf.(*buffer); ok && b.maps > 0 {
		b.maps--
	}
}

// CompileShader checks an HLSL unit and captures its reflection.
func (d *Device) CompileShader(u *shader.Unit) (native.ShaderBlob, error) {
	if u.Target != shader.TargetHLSL {
		return nil, fmt.Errorf("soft: cannot compile %v source", u.Target)
	}
	if u.Profile == "" || !strings.Contains(u.Source, u.NativeEntryPoint) {
		return nil, fmt.Errorf("soft: %s: entry point %q not found in source", u.Profile, u.NativeEntryPoint)
	}
	blob := &shaderBlob{
		stage:      u.Stage,
		entryPoint: u.EntryPoint,
		profile:    u.Profile,
		code:       []byte(u.Source),
		flow:       u.Flow,
	}
	if u.Stage == shader.StageVertex {
		blob.inputs = append([]shader.VertexInput(nil), u.Inputs...)
	}
	return blob, nil
}

func (d *Device) CreatePipeline(desc *native.PipelineDescriptor) (native.Pipeline, error) {
	p, err := d.buildPipeline(desc)
	if err != nil {
		d.report("CreateGraphicsPipelineState %q: %v", desc.Label, err)
		return nil, err
	}
	return p, nil
}

func (d *Device) buildPipeline(desc *native.PipelineDescriptor) (*pipeline, error) {
	if err := d.fault("CreatePipeline"); err != nil {
		return nil, err
	}
	vs, ok := desc.Vertex.(*shaderBlob)
	if !ok || vs == nil || vs.stage != shader.StageVertex {
		return nil, errors.New("soft: pipeline needs a vertex shader")
	}
	p := &pipeline{
		label:     desc.Label,
		vertex:    vs,
		buffers:   desc.Buffers,
		primitive: desc.Primitive,
		writeMask: gputypes.ColorWriteMaskAll,
	}
	if desc.Fragment != nil {
		fs, ok := desc.Fragment.(*shaderBlob)
		if !ok || fs.stage != shader.StageFragment {
			return nil, errors.New("soft: fragment blob is not a fragment shader")
		}
		p.fragment = fs
	}
	if desc.SampleCount > 1 {
		return nil, fmt.Errorf("soft: sample count %d not supported", desc.SampleCount)
	}
	if desc.Primitive.Topology != gputypes.PrimitiveTopologyTriangleList {
		return nil, fmt.Errorf("soft: topology %v not supported", desc.Primitive.Topology)
	}
	for _, t := range desc.Targets {
		if t.Format != gputypes.TextureFormatRGBA8Unorm {
			return nil, fmt.Errorf("soft: render target format %v not supported", t.Format)
		}
	}
	if len(desc.Targets) > 0 {
		p.writeMask = desc.Targets[0].WriteMask
	}
	if ds := desc.DepthStencil; ds != nil {
		if ds.Format != gputypes.TextureFormatDepth32Float {
			return nil, fmt.Errorf("soft: depth format %v not supported", ds.Format)
		}
		cp := *ds
		p.depthStencil = &cp
	}

	pos, ok := findAttrib(desc.Buffers, 0)
	if !ok {
		return nil, errors.New("soft: vertex layout has no attribute at location 0")
	}
	if !isFloatFormat(pos.format) {
		return nil, fmt.Errorf("soft: position format %v is not float", pos.format)
	}
	p.position = pos
	if col, ok := findAttrib(desc.Buffers, 1); ok && isFloatFormat(col.format) {
		p.color, p.hasColor = col, true
	}

	if vs.flow == nil || vs.flow.Position != 0 {
		return nil, fmt.Errorf("soft: vertex stage %q must copy location 0 to the position", vs.entryPoint)
	}
	if p.fragment != nil {
		if !p.hasColor || !copiesColor(vs.flow, p.fragment.flow) {
			return nil, fmt.Errorf("soft: fragment stage %q must return the color copied from vertex location 1", p.fragment.entryPoint)
		}
	}
	return p, nil
}

// copiesColor reports whether the fragment output is the varying the
// vertex stage fills from location 1.
func copiesColor(vs, fs *shader.Flow) bool {
	if fs == nil {
		return false
	}
	in, ok := fs.Outputs[0]
	if !ok {
		return false
	}
	src, ok := vs.Outputs[in]
	return ok && src == 1
}

func findAttrib(layouts []gputypes.VertexBufferLayout, location uint32) (attribRef, bool) {
	for slot, l := range layouts {
		for _, a := range l.Attributes {
			if a.ShaderLocation == location {
				return attribRef{slot: uint32(slot), offset: a.Offset, stride: l.ArrayStride, format: a.Format}, true
			}
		}
	}
	return attribRef{}, false
}

func isFloatFormat(f gputypes.VertexFormat) bool {
	switch f {
	case gputypes.VertexFormatFloat32, gputypes.VertexFormatFloat32x2,
		gputypes.VertexFormatFloat32x3, gputypes.VertexFormatFloat32x4:
		return true
	default:
		return false
	}
}

// Destroy releases the device. Queues must be destroyed first.
func (d *Device) Destroy() {
	if d.pool != nil {
		d.pool.Close()
	}
}
