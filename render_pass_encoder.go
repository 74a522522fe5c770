package webgpunative

import (
	"github.com/gogpu/webgpunative/internal/native"
)

// RenderPassEncoder records draw commands into its encoder's command list.
//
// Misuse is recorded on the encoder and returned by Finish.
type RenderPassEncoder struct {
	enc   *CommandEncoder
	ended bool
}

func (p *RenderPassEncoder) list(op string) (native.CommandList, bool) {
	if p.ended {
		p.enc.fail(usageErr(op, "render pass already ended"))
		return nil, false
	}
	l, ok := p.enc.h.Get()
	if !ok {
		return nil, false
	}
	return l, true
}

// SetPipeline binds a render pipeline.
func (p *RenderPassEncoder) SetPipeline(pipeline *RenderPipeline) {
	const op = "RenderPassEncoder.SetPipeline"
	l, ok := p.list(op)
	if !ok {
		return
	}
	if pipeline == nil || !pipeline.h.Valid() {
		p.enc.fail(usageErr(op, "pipeline is not initialized"))
		return
	}
	l.SetPipeline(pipeline.h.Value())
}

// SetVertexBuffer binds buf at slot.
func (p *RenderPassEncoder) SetVertexBuffer(slot uint32, buf *Buffer, offset uint64) {
	const op = "RenderPassEncoder.SetVertexBuffer"
	l, ok := p.list(op)
	if !ok {
		return
	}
	if buf == nil || !buf.h.Valid() {
		p.enc.fail(usageErr(op, "buffer is not valid"))
		return
	}
	if offset > buf.size {
		p.enc.fail(usageErr(op, "offset %d exceeds size %d", offset, buf.size))
		return
	}
	l.SetVertexBuffer(slot, buf.h.Value(), offset)
}

// SetViewport overrides the viewport set by BeginRenderPass.
func (p *RenderPassEncoder) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	if l, ok := p.list("RenderPassEncoder.SetViewport"); ok {
		l.SetViewport(native.Viewport{X: x, Y: y, Width: width, Height: height, MinDepth: minDepth, MaxDepth: maxDepth})
	}
}

// SetScissorRect overrides the scissor set by BeginRenderPass.
func (p *RenderPassEncoder) SetScissorRect(x, y, width, height uint32) {
	if l, ok := p.list("RenderPassEncoder.SetScissorRect"); ok {
		l.SetScissorRect(native.Rect{X: x, Y: y, Width: width, Height: height})
	}
}

// Draw issues one non-indexed draw of vertexCount vertices.
func (p *RenderPassEncoder) Draw(vertexCount uint32) {
	if l, ok := p.list("RenderPassEncoder.Draw"); ok {
		l.Draw(vertexCount, 1, 0, 0)
	}
}

// End closes the pass and returns the encoder to recording. Calling End
// again does nothing.
func (p *RenderPassEncoder) End() {
	if p.ended {
		return
	}
	p.ended = true
	if l, ok := p.enc.h.Get(); ok {
		l.EndRenderPass()
	}
	if p.enc.state == stateInRenderPass {
		p.enc.state = stateRecording
	}
}
