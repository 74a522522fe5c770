package webgpunative

import (
	"github.com/gogpu/webgpunative/internal/handle"
	"github.com/gogpu/webgpunative/internal/native"
)

// encoderState is the recording state of a CommandEncoder.
type encoderState uint8

const (
	stateRecording encoderState = iota
	stateInRenderPass
	stateFinished
)

func (s encoderState) String() string {
	switch s {
	case stateRecording:
		return "recording"
	case stateInRenderPass:
		return "in render pass"
	case stateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// CommandEncoder records commands into one native command list.
//
// It moves Recording → InRenderPass → Recording → Finished. At most one
// RenderPassEncoder is open at a time.
type CommandEncoder struct {
	dev   *Device
	label string
	h     handle.Owned[native.CommandList]
	state encoderState

	// passDesc is the descriptor of the most recent render pass.
	passDesc *RenderPassDescriptor
	// err is the first recording error. Finish returns it.
	err error
}

func (e *CommandEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// BeginRenderPass opens a render pass. Color attachments with a clear
// value, and the depth attachment with a depth clear value, are cleared.
// The viewport and scissor cover the first attachment.
func (e *CommandEncoder) BeginRenderPass(desc *RenderPassDescriptor) (*RenderPassEncoder, error) {
	const op = "CommandEncoder.BeginRenderPass"
	if e.state != stateRecording {
		return nil, usageErr(op, "encoder is %v", e.state)
	}
	l, ok := e.h.Get()
	if !ok {
		return nil, ErrNotInitialized
	}
	if desc == nil || (len(desc.ColorAttachments) == 0 && desc.DepthStencilAttachment == nil) {
		return nil, usageErr(op, "render pass has no attachments")
	}

	nd := &native.RenderPassDescriptor{Label: desc.Label}
	var first *Texture
	for i, ca := range desc.ColorAttachments {
		if ca.View == nil || !ca.View.h.Valid() {
			return nil, usageErr(op, "color attachment %d has no view", i)
		}
		if ca.View.tex.format != DefaultColorFormat {
			return nil, usageErr(op, "color attachment %d is not a color view", i)
		}
		if first == nil {
			first = ca.View.tex
		}
		nd.ColorAttachments = append(nd.ColorAttachments, native.ColorAttachment{
			View:  ca.View.h.Value(),
			Clear: ca.ClearValue,
		})
	}
	if da := desc.DepthStencilAttachment; da != nil {
		if da.View == nil || !da.View.h.Valid() {
			return nil, usageErr(op, "depth attachment has no view")
		}
		if da.View.tex.format != DefaultDepthFormat {
			return nil, usageErr(op, "depth attachment is not a depth view")
		}
		if first == nil {
			first = da.View.tex
		}
		nd.Depth = &native.DepthAttachment{View: da.View.h.Value(), Clear: da.DepthClearValue}
	}

	l.BeginRenderPass(nd)
	l.SetViewport(native.Viewport{Width: float32(first.width), Height: float32(first.height), MaxDepth: 1})
	l.SetScissorRect(native.Rect{Width: first.width, Height: first.height})

	e.state = stateInRenderPass
	e.passDesc = desc
	return &RenderPassEncoder{enc: e}, nil
}

// Finish closes the command list and returns it as a CommandBuffer. The
// encoder cannot be used afterwards.
func (e *CommandEncoder) Finish() (*CommandBuffer, error) {
	const op = "CommandEncoder.Finish"
	if e.state != stateRecording {
		return nil, usageErr(op, "encoder is %v", e.state)
	}
	l, ok := e.h.Get()
	if !ok {
		return nil, ErrNotInitialized
	}
	e.state = stateFinished
	if e.err != nil {
		return nil, e.err
	}
	if err := l.Close(); err != nil {
		return nil, e.dev.backendErr("close_command_list", err)
	}
	return &CommandBuffer{label: e.label, h: e.h.Move()}, nil
}

// Label returns the debug label.
func (e *CommandEncoder) Label() string { return e.label }

// Release frees the command list if Finish did not take it.
func (e *CommandEncoder) Release() {
	e.h.Release()
}

// Move transfers the encoder to the returned value and empties e.
func (e *CommandEncoder) Move() *CommandEncoder {
	return &CommandEncoder{
		dev:      e.dev,
		label:    e.label,
		h:        e.h.Move(),
		state:    e.state,
		passDesc: e.passDesc,
		err:      e.err,
	}
}
