package webgpunative

import (
	"image/color"

	"github.com/gogpu/gputypes"
)

// Default texture and depth formats.
const (
	DefaultColorFormat = gputypes.TextureFormatRGBA8Unorm
	DefaultDepthFormat = gputypes.TextureFormatDepth32Float
)

// Pixel is one texel of a mapped texture.
type Pixel struct {
	Color color.RGBA
	X, Y  int
}

// BufferDescriptor describes a buffer.
//
// A zero Usage means Vertex|CopyDst. MapRead buffers live in host-visible
// readback memory and MapWrite buffers in upload memory.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// TextureDescriptor describes a 2-D texture. A zero Format means
// RGBA8Unorm; Depth32Float creates a depth attachment.
type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat
}

// ShaderModuleDescriptor holds WGSL source.
type ShaderModuleDescriptor struct {
	Label string
	Code  string
}

// CommandEncoderDescriptor describes a command encoder.
type CommandEncoderDescriptor struct {
	Label string
}

// ColorAttachment is one color target of a render pass.
type ColorAttachment struct {
	View *TextureView
	// ClearValue clears the attachment when the pass begins. Nil keeps the
	// existing contents.
	ClearValue *gputypes.Color
}

// DepthStencilAttachment is the depth target of a render pass.
type DepthStencilAttachment struct {
	View *TextureView
	// DepthClearValue clears depth when the pass begins. Nil keeps the
	// existing contents.
	DepthClearValue *float32
}

// RenderPassDescriptor describes the attachments of a render pass.
type RenderPassDescriptor struct {
	Label                  string
	ColorAttachments       []ColorAttachment
	DepthStencilAttachment *DepthStencilAttachment
}

// VertexState selects the vertex entry point of a pipeline.
type VertexState struct {
	Module     *ShaderModule
	EntryPoint string
	// Buffers is the vertex input layout. Empty derives one tightly packed
	// buffer from the entry point's location-bound inputs.
	Buffers []gputypes.VertexBufferLayout
}

// FragmentState selects the fragment entry point of a pipeline.
type FragmentState struct {
	Module     *ShaderModule
	EntryPoint string
	// Targets defaults to one RGBA8Unorm target writing all channels.
	Targets []gputypes.ColorTargetState
}

// RenderPipelineDescriptor describes a render pipeline.
type RenderPipelineDescriptor struct {
	Label    string
	Vertex   VertexState
	Fragment *FragmentState
	// Primitive defaults to DefaultPrimitiveState.
	Primitive *gputypes.PrimitiveState
	// DepthStencil enables depth testing. Unlike the other fields, nil does
	// not select the default state: it disables the depth test so that
	// color-only passes need no depth attachment. Pass
	// DefaultDepthStencilState (depth test on, write all, compare less) to
	// reproduce the reference configuration.
	DepthStencil *gputypes.DepthStencilState
	// SampleCount defaults to 1.
	SampleCount uint32
}

// DefaultPrimitiveState is the baseline rasterizer state: triangle lists,
// clockwise front faces, back faces culled.
func DefaultPrimitiveState() gputypes.PrimitiveState {
	return gputypes.PrimitiveState{
		Topology:  gputypes.PrimitiveTopologyTriangleList,
		FrontFace: gputypes.FrontFaceCW,
		CullMode:  gputypes.CullModeBack,
	}
}

// DefaultDepthStencilState is the baseline depth test: Depth32Float,
// writes enabled, less-than comparison.
func DefaultDepthStencilState() gputypes.DepthStencilState {
	return gputypes.DepthStencilState{
		Format:            DefaultDepthFormat,
		DepthWriteEnabled: true,
		DepthCompare:      gputypes.CompareFunctionLess,
		StencilReadMask:   0xFF,
		StencilWriteMask:  0xFF,
	}
}

// defaultTargets is the fragment target list used when none is given.
func defaultTargets() []gputypes.ColorTargetState {
	return []gputypes.ColorTargetState{{
		Format:    DefaultColorFormat,
		WriteMask: gputypes.ColorWriteMaskAll,
	}}
}

// MapMode selects the access of Buffer.MapAsync.
type MapMode uint8

const (
	MapModeRead MapMode = iota + 1
	MapModeWrite
)

func (m MapMode) String() string {
	switch m {
	case MapModeRead:
		return "read"
	case MapModeWrite:
		return "write"
	default:
		return "unknown"
	}
}
