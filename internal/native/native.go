// Package native defines the capability boundary between the public
// webgpunative object model and a concrete graphics backend.
//
// Every component of the object model talks to exactly one of the
// interfaces below. The interfaces follow explicit-state APIs: resources
// live in heaps, textures carry resource states that callers transition
// with barriers, command lists are recorded against an allocator and
// closed before execution, and the CPU observes completion through fences.
//
// Backends register themselves with Register from an init function.
package native

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/shader"
)

// ErrNotSupported is returned by backends for operations they cannot perform.
var ErrNotSupported = errors.New("native: not supported")

// Backend creates native instances. One Backend is registered per native API.
type Backend interface {
	// Name returns the registry name ("dx12", "metal", "vulkan", "soft").
	Name() string

	// CreateInstance opens the backend factory.
	CreateInstance(desc *InstanceDescriptor) (Instance, error)
}

// InstanceDescriptor configures a native instance.
type InstanceDescriptor struct {
	// Debug enables backend validation and message capture.
	Debug bool
}

// Instance enumerates physical adapters.
type Instance interface {
	// EnumerateAdapters returns adapters in backend-defined order.
	EnumerateAdapters() []Adapter
	Destroy()
}

// AdapterInfo describes a physical adapter.
type AdapterInfo struct {
	Name     string
	Vendor   string
	VendorID uint32
	DeviceID uint32
	Driver   string
	Backend  string

	// Software is set for CPU rasterizers and other non-hardware adapters.
	Software bool
	// DeviceType is the gputypes classification where the backend knows it.
	DeviceType gputypes.DeviceType
}

// Adapter is one physical GPU.
type Adapter interface {
	Info() AdapterInfo

	// CreateDevice opens a logical device on the adapter.
	CreateDevice() (Device, error)
}

// HeapType selects the memory pool of a buffer.
type HeapType uint8

const (
	// HeapDefault is device-local memory.
	HeapDefault HeapType = iota
	// HeapUpload is host-visible memory written by the CPU.
	HeapUpload
	// HeapReadback is host-visible memory read by the CPU.
	HeapReadback
)

func (h HeapType) String() string {
	switch h {
	case HeapDefault:
		return "default"
	case HeapUpload:
		return "upload"
	case HeapReadback:
		return "readback"
	default:
		return "unknown"
	}
}

// ResourceState is the usage state of a texture between barriers.
type ResourceState uint8

const (
	StateCommon ResourceState = iota
	StateRenderTarget
	StateDepthWrite
	StateCopySource
	StateCopyDest
)

func (s ResourceState) String() string {
	switch s {
	case StateCommon:
		return "common"
	case StateRenderTarget:
		return "render_target"
	case StateDepthWrite:
		return "depth_write"
	case StateCopySource:
		return "copy_source"
	case StateCopyDest:
		return "copy_dest"
	default:
		return "unknown"
	}
}

// BufferDescriptor describes a buffer allocation.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Heap  HeapType
	Usage gputypes.BufferUsage
}

// TextureDescriptor describes a 2-D texture.
type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat
	// InitialState is the state the texture is created in.
	InitialState ResourceState
}

// Footprint is the copyable layout of a texture in a buffer.
type Footprint struct {
	Offset   uint64
	Width    uint32
	Height   uint32
	RowPitch uint32
	// TotalSize is the buffer size needed to hold the footprint.
	TotalSize uint64
}

// Device is a logical GPU device.
type Device interface {
	Info() AdapterInfo

	// ShaderTarget is the dialect CompileShader accepts.
	ShaderTarget() shader.Target

	CreateCommandQueue() (Queue, error)
	CreateCommandAllocator() (CommandAllocator, error)
	CreateCommandList(alloc CommandAllocator) (CommandList, error)
	CreateFence(initial uint64) (Fence, error)

	CreateBuffer(desc *BufferDescriptor) (Buffer, error)
	CreateTexture(desc *TextureDescriptor) (Texture, error)
	CreateView(tex Texture) (View, error)

	// Footprint reports the copyable layout of tex.
	Footprint(tex Texture) Footprint

	// Map returns CPU-visible memory for an upload or readback buffer.
	Map(buf Buffer) ([]byte, error)
	Unmap(buf Buffer)

	// CompileShader compiles a translated unit into a native shader blob.
	CompileShader(unit *shader.Unit) (ShaderBlob, error)
	CreatePipeline(desc *PipelineDescriptor) (Pipeline, error)

	// DrainMessages returns and clears queued debug messages.
	DrainMessages() []string

	Destroy()
}

// Queue executes closed command lists.
type Queue interface {
	// Execute submits lists as one batch, in order.
	Execute(lists []CommandList) error
	// Signal sets fence to value once all previously executed work completes.
	Signal(fence Fence, value uint64) error
	Destroy()
}

// CommandAllocator backs the memory of command lists.
type CommandAllocator interface {
	Destroy()
}

// Fence is a GPU to CPU synchronization primitive.
type Fence interface {
	// Completed returns the last value the fence reached.
	Completed() uint64
	// Wait blocks until the fence reaches value.
	Wait(value uint64) error
	Destroy()
}

// Buffer is a native buffer allocation.
type Buffer interface {
	Size() uint64
	Heap() HeapType
	Destroy()
}

// Texture is a native 2-D texture.
type Texture interface {
	Width() uint32
	Height() uint32
	Format() gputypes.TextureFormat
	Destroy()
}

// View is a render-target or depth-stencil view of a texture.
type View interface {
	Texture() Texture
	Destroy()
}

// ShaderBlob is a compiled shader stage.
type ShaderBlob interface {
	Stage() shader.Stage
	EntryPoint() string
	Destroy()
}

// PipelineDescriptor is the full state of a render pipeline.
type PipelineDescriptor struct {
	Label        string
	Vertex       ShaderBlob
	Fragment     ShaderBlob
	Buffers      []gputypes.VertexBufferLayout
	Primitive    gputypes.PrimitiveState
	DepthStencil *gputypes.DepthStencilState
	SampleCount  uint32
	Targets      []gputypes.ColorTargetState
}

// Pipeline is an immutable pipeline state object.
type Pipeline interface {
	Destroy()
}

// Barrier transitions a texture between states.
type Barrier struct {
	Texture Texture
	Before  ResourceState
	After   ResourceState
}

// ColorAttachment is one color target of a render pass.
type ColorAttachment struct {
	View View
	// Clear is the clear value. Nil keeps the existing contents.
	Clear *gputypes.Color
}

// DepthAttachment is the depth target of a render pass.
type DepthAttachment struct {
	View View
	// Clear is the depth clear value. Nil keeps the existing contents.
	Clear *float32
}

// RenderPassDescriptor describes the attachments of a render pass.
type RenderPassDescriptor struct {
	Label            string
	ColorAttachments []ColorAttachment
	Depth            *DepthAttachment
}

// Viewport is a viewport rectangle in pixels with a depth range.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Rect is a scissor rectangle in pixels.
type Rect struct {
	X, Y, Width, Height uint32
}

// CommandList records GPU commands.
//
// Draw state commands are only valid between BeginRenderPass and
// EndRenderPass.
type CommandList interface {
	ResourceBarrier(barriers ...Barrier)
	CopyTextureToBuffer(dst Buffer, src Texture, fp Footprint)
	CopyBufferToBuffer(dst Buffer, dstOffset uint64, src Buffer, srcOffset, size uint64)

	BeginRenderPass(desc *RenderPassDescriptor)
	SetViewport(vp Viewport)
	SetScissorRect(r Rect)
	SetPipeline(p Pipeline)
	SetVertexBuffer(slot uint32, buf Buffer, offset uint64)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	EndRenderPass()

	// Close finishes recording. The list may then be executed.
	Close() error
	Destroy()
}

// RowPitchAlignment is the required row pitch alignment of texture copies.
const RowPitchAlignment = 256

// AlignRowPitch rounds a tightly packed row size up to RowPitchAlignment.
func AlignRowPitch(bytesPerRow uint32) uint32 {
	return (bytesPerRow + RowPitchAlignment - 1) &^ (RowPitchAlignment - 1)
}

// BytesPerPixel returns the texel size of the formats the core uses.
func BytesPerPixel(f gputypes.TextureFormat) uint32 {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth32Float:
		return 4
	default:
		return 0
	}
}

// TextureFootprint computes the footprint of a w×h texture with the given
// texel size.
func TextureFootprint(w, h, bpp uint32) Footprint {
	pitch := AlignRowPitch(w * bpp)
	if w == 0 || h == 0 {
		return Footprint{Width: w, Height: h, RowPitch: pitch}
	}
	return Footprint{
		Width:     w,
		Height:    h,
		RowPitch:  pitch,
		TotalSize: uint64(pitch)*uint64(h-1) + uint64(w*bpp),
	}
}
