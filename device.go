package webgpunative

import (
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/handle"
	"github.com/gogpu/webgpunative/internal/native"
)

// Device is a logical GPU context. It owns the command queue and one
// command allocator. Resources created through a Device do not keep it
// alive.
type Device struct {
	adapter *Adapter
	native  native.Device
	opts    *options

	queue *Queue
	alloc handle.Owned[native.CommandAllocator]
}

// Initialize creates the command queue and the command allocator.
func (d *Device) Initialize() error {
	if d.alloc.Valid() {
		return usageErr("Device.Initialize", "already initialized")
	}
	nq, err := d.native.CreateCommandQueue()
	if err != nil {
		return d.backendErr("create_command_queue", err)
	}
	alloc, err := d.native.CreateCommandAllocator()
	if err != nil {
		nq.Destroy()
		return d.backendErr("create_command_allocator", err)
	}
	d.queue = &Queue{dev: d, h: handle.New(nq, native.Queue.Destroy)}
	d.alloc = handle.New(alloc, native.CommandAllocator.Destroy)
	d.log().Debug("webgpunative: device initialized", "adapter", d.adapter.info.Name)
	return nil
}

// Queue returns the device queue, or nil before Initialize.
func (d *Device) Queue() *Queue { return d.queue }

// Adapter returns the adapter the device was created on.
func (d *Device) Adapter() *Adapter { return d.adapter }

// Release destroys the queue and the command allocator. Resources created
// from the device must be released first.
func (d *Device) Release() {
	if d.queue != nil {
		d.queue.Release()
	}
	d.alloc.Release()
}

func (d *Device) log() *slog.Logger { return d.opts.log() }

func (d *Device) ready(op string) error {
	if !d.alloc.Valid() {
		return usageErr(op, "device not initialized")
	}
	return nil
}

// backendErr wraps a native failure and logs the queued debug messages.
func (d *Device) backendErr(op string, err error) error {
	backend := d.adapter.info.Backend
	for _, msg := range d.native.DrainMessages() {
		d.log().Debug("webgpunative: backend message", "backend", backend, "op", op, "message", msg)
	}
	return &BackendError{Backend: backend, Op: op, Message: err.Error(), Err: err}
}

// CreateBuffer allocates a buffer of exactly desc.Size bytes.
func (d *Device) CreateBuffer(desc *BufferDescriptor) (*Buffer, error) {
	if err := d.ready("Device.CreateBuffer"); err != nil {
		return nil, err
	}
	if desc == nil || desc.Size == 0 {
		return nil, usageErr("Device.CreateBuffer", "buffer size must be non-zero")
	}
	usage := desc.Usage
	if usage == gputypes.BufferUsageNone {
		usage = gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
	}
	if usage&gputypes.BufferUsageMapRead != 0 && usage&gputypes.BufferUsageMapWrite != 0 {
		return nil, usageErr("Device.CreateBuffer", "MapRead and MapWrite are exclusive")
	}
	heap := native.HeapDefault
	switch {
	case usage&gputypes.BufferUsageMapRead != 0:
		heap = native.HeapReadback
	case usage&gputypes.BufferUsageMapWrite != 0:
		heap = native.HeapUpload
	}

	nb, err := d.native.CreateBuffer(&native.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Heap:  heap,
		Usage: usage,
	})
	if err != nil {
		return nil, d.backendErr("create_buffer", err)
	}
	d.log().Debug("webgpunative: buffer created", "label", desc.Label, "size", desc.Size, "heap", heap)
	return &Buffer{
		dev:   d,
		h:     handle.New(nb, native.Buffer.Destroy),
		label: desc.Label,
		size:  desc.Size,
		usage: usage,
	}, nil
}

// CreateTexture allocates a 2-D render target. Its contents are whatever
// the backend provides.
func (d *Device) CreateTexture(desc *TextureDescriptor) (*Texture, error) {
	if err := d.ready("Device.CreateTexture"); err != nil {
		return nil, err
	}
	if desc == nil || desc.Width == 0 || desc.Height == 0 {
		return nil, usageErr("Device.CreateTexture", "texture size must be non-zero")
	}
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = DefaultColorFormat
	}
	state := native.StateRenderTarget
	switch format {
	case DefaultColorFormat:
	case DefaultDepthFormat:
		state = native.StateDepthWrite
	default:
		return nil, usageErr("Device.CreateTexture", "unsupported format %v", format)
	}

	nt, err := d.native.CreateTexture(&native.TextureDescriptor{
		Label:        desc.Label,
		Width:        desc.Width,
		Height:       desc.Height,
		Format:       format,
		InitialState: state,
	})
	if err != nil {
		return nil, d.backendErr("create_texture", err)
	}
	d.log().Debug("webgpunative: texture created", "label", desc.Label,
		"width", desc.Width, "height", desc.Height, "format", format)
	return &Texture{
		dev:    d,
		h:      handle.New(nt, native.Texture.Destroy),
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
		format: format,
		state:  state,
	}, nil
}

// CreateCommandEncoder opens a command list in the Recording state.
func (d *Device) CreateCommandEncoder(desc *CommandEncoderDescriptor) (*CommandEncoder, error) {
	if err := d.ready("Device.CreateCommandEncoder"); err != nil {
		return nil, err
	}
	l, err := d.native.CreateCommandList(d.alloc.Value())
	if err != nil {
		return nil, d.backendErr("create_command_list", err)
	}
	e := &CommandEncoder{dev: d, h: handle.New(l, native.CommandList.Destroy)}
	if desc != nil {
		e.label = desc.Label
	}
	return e, nil
}

// NewShaderModule stores WGSL source without compiling it.
func (d *Device) NewShaderModule(desc *ShaderModuleDescriptor) *ShaderModule {
	m := &ShaderModule{dev: d}
	if desc != nil {
		m.label, m.code = desc.Label, desc.Code
	}
	return m
}

// CreateShaderModule stores and compiles WGSL source.
func (d *Device) CreateShaderModule(desc *ShaderModuleDescriptor) (*ShaderModule, error) {
	m := d.NewShaderModule(desc)
	if err := m.Initialize(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewRenderPipeline stores a pipeline descriptor without creating the
// native pipeline.
func (d *Device) NewRenderPipeline(desc *RenderPipelineDescriptor) *RenderPipeline {
	p := &RenderPipeline{dev: d}
	if desc != nil {
		p.desc = *desc
	}
	return p
}

// CreateRenderPipeline creates and initializes a render pipeline.
func (d *Device) CreateRenderPipeline(desc *RenderPipelineDescriptor) (*RenderPipeline, error) {
	p := d.NewRenderPipeline(desc)
	if err := p.Initialize(); err != nil {
		return nil, err
	}
	return p, nil
}

// runOneShot records into a fresh command list, executes it on the device
// queue and blocks until a dedicated fence reaches 1.
func (d *Device) runOneShot(record func(native.CommandList)) error {
	nq, ok := d.queue.h.Get()
	if !ok {
		return ErrNotInitialized
	}
	l, err := d.native.CreateCommandList(d.alloc.Value())
	if err != nil {
		return d.backendErr("create_command_list", err)
	}
	defer l.Destroy()

	record(l)
	if err := l.Close(); err != nil {
		return d.backendErr("close_command_list", err)
	}
	if err := nq.Execute([]native.CommandList{l}); err != nil {
		return d.backendErr("execute_command_lists", err)
	}
	return d.waitQueue(nq)
}

// waitQueue signals a fresh fence to 1 on nq and blocks until it is reached.
func (d *Device) waitQueue(nq native.Queue) error {
	f, err := d.native.CreateFence(0)
	if err != nil {
		return d.backendErr("create_fence", err)
	}
	defer f.Destroy()
	if err := nq.Signal(f, 1); err != nil {
		return d.backendErr("signal_fence", err)
	}
	if err := f.Wait(1); err != nil {
		return d.backendErr("wait_fence", err)
	}
	return nil
}

// Provider exposes the device to gogpu consumers.
func (d *Device) Provider() gpucontext.DeviceProvider {
	return deviceProvider{d}
}

type deviceProvider struct {
	d *Device
}

func (p deviceProvider) Device() gpucontext.Device   { return p.d }
func (p deviceProvider) Queue() gpucontext.Queue     { return p.d.queue }
func (p deviceProvider) Adapter() gpucontext.Adapter { return p.d.adapter }

func (p deviceProvider) SurfaceFormat() gputypes.TextureFormat { return DefaultColorFormat }

func (p deviceProvider) AdapterInfo() gpucontext.AdapterInfo {
	return p.d.adapter.info.contextInfo()
}
