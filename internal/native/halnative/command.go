//go:build !nogpu

package halnative

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/webgpunative/internal/native"
)

// commandList records into a hal command encoder.
type commandList struct {
	dev  *device
	enc  hal.CommandEncoder
	pass hal.RenderPassEncoder
	buf  hal.CommandBuffer
	err  error
}

func (l *commandList) fail(format string, args ...any) {
	if l.err == nil {
		l.err = fmt.Errorf("halnative: "+format, args...)
	}
}

// recording reports whether commands may be recorded outside a pass.
func (l *commandList) recording(op string) bool {
	switch {
	case l.buf != nil:
		l.fail("%s on a closed list", op)
		return false
	case l.pass != nil:
		l.fail("%s inside a render pass", op)
		return false
	}
	return true
}

func (l *commandList) inPass(op string) bool {
	if l.pass == nil {
		l.fail("%s outside a render pass", op)
		return false
	}
	return true
}

func usageOf(s native.ResourceState) gputypes.TextureUsage {
	switch s {
	case native.StateRenderTarget, native.StateDepthWrite:
		return gputypes.TextureUsageRenderAttachment
	case native.StateCopySource:
		return gputypes.TextureUsageCopySrc
	case native.StateCopyDest:
		return gputypes.TextureUsageCopyDst
	default:
		return gputypes.TextureUsageNone
	}
}

func (l *commandList) ResourceBarrier(barriers ...native.Barrier) {
	if !l.recording("ResourceBarrier") {
		return
	}
	hb := make([]hal.TextureBarrier, 0, len(barriers))
	for _, b := range barriers {
		t, ok := b.Texture.(*texture)
		if !ok {
			l.fail("barrier on foreign texture")
			return
		}
		hb = append(hb, hal.TextureBarrier{
			Texture: t.raw,
			Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll, MipLevelCount: 1, ArrayLayerCount: 1},
			Usage:   hal.TextureUsageTransition{OldUsage: usageOf(b.Before), NewUsage: usageOf(b.After)},
		})
	}
	l.enc.TransitionTextures(hb)
}

func (l *commandList) CopyTextureToBuffer(dst native.Buffer, src native.Texture, fp native.Footprint) {
	if !l.recording("CopyTextureToBuffer") {
		return
	}
	b, okb := dst.(*buffer)
	t, okt := src.(*texture)
	if !okb || !okt {
		l.fail("copy with foreign resources")
		return
	}
	l.enc.CopyTextureToBuffer(t.raw, b.raw, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: fp.Offset, BytesPerRow: fp.RowPitch, RowsPerImage: fp.Height},
		TextureBase:  hal.ImageCopyTexture{Texture: t.raw, Aspect: gputypes.TextureAspectAll},
		Size:         hal.Extent3D{Width: fp.Width, Height: fp.Height, DepthOrArrayLayers: 1},
	}})
}

func (l *commandList) CopyBufferToBuffer(dst native.Buffer, dstOffset uint64, src native.Buffer, srcOffset, size uint64) {
	if !l.recording("CopyBufferToBuffer") {
		return
	}
	d, okd := dst.(*buffer)
	s, oks := src.(*buffer)
	if !okd || !oks {
		l.fail("copy with foreign buffers")
		return
	}
	l.enc.CopyBufferToBuffer(s.raw, d.raw, []hal.BufferCopy{{SrcOffset: srcOffset, DstOffset: dstOffset, Size: size}})
}

func (l *commandList) BeginRenderPass(desc *native.RenderPassDescriptor) {
	if !l.recording("BeginRenderPass") {
		return
	}
	hd := &hal.RenderPassDescriptor{Label: desc.Label}
	for _, ca := range desc.ColorAttachments {
		v, ok := ca.View.(*view)
		if !ok {
			l.fail("color attachment with foreign view")
			return
		}
		att := hal.RenderPassColorAttachment{View: v.raw, LoadOp: gputypes.LoadOpLoad, StoreOp: gputypes.StoreOpStore}
		if ca.Clear != nil {
			att.LoadOp = gputypes.LoadOpClear
			att.ClearValue = *ca.Clear
		}
		hd.ColorAttachments = append(hd.ColorAttachments, att)
	}
	if da := desc.Depth; da != nil {
		v, ok := da.View.(*view)
		if !ok {
			l.fail("depth attachment with foreign view")
			return
		}
		att := &hal.RenderPassDepthStencilAttachment{View: v.raw, DepthLoadOp: gputypes.LoadOpLoad, DepthStoreOp: gputypes.StoreOpStore}
		if da.Clear != nil {
			att.DepthLoadOp = gputypes.LoadOpClear
			att.DepthClearValue = *da.Clear
		}
		hd.DepthStencilAttachment = att
	}
	l.pass = l.enc.BeginRenderPass(hd)
}

func (l *commandList) SetViewport(vp native.Viewport) {
	if l.inPass("SetViewport") {
		l.pass.SetViewport(vp.X, vp.Y, vp.Width, vp.Height, vp.MinDepth, vp.MaxDepth)
	}
}

func (l *commandList) SetScissorRect(r native.Rect) {
	if l.inPass("SetScissorRect") {
		l.pass.SetScissorRect(r.X, r.Y, r.Width, r.Height)
	}
}

func (l *commandList) SetPipeline(p native.Pipeline) {
	if !l.inPass("SetPipeline") {
		return
	}
	pp, ok := p.(*pipeline)
	if !ok {
		l.fail("SetPipeline with foreign pipeline")
		return
	}
	l.pass.SetPipeline(pp.raw)
}

func (l *commandList) SetVertexBuffer(slot uint32, buf native.Buffer, offset uint64) {
	if !l.inPass("SetVertexBuffer") {
		return
	}
	b, ok := buf.(*buffer)
	if !ok {
		l.fail("SetVertexBuffer with foreign buffer")
		return
	}
	l.pass.SetVertexBuffer(slot, b.raw, offset)
}

func (l *commandList) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if l.inPass("Draw") {
		l.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
	}
}

func (l *commandList) EndRenderPass() {
	if l.inPass("EndRenderPass") {
		l.pass.End()
		l.pass = nil
	}
}

// Close ends encoding. The first recording error discards the encoding.
func (l *commandList) Close() error {
	if l.buf != nil {
		return fmt.Errorf("halnative: list already closed")
	}
	if l.pass != nil {
		l.fail("list closed inside a render pass")
		l.pass.End()
		l.pass = nil
	}
	if l.err != nil {
		l.enc.DiscardEncoding()
		return l.err
	}
	buf, err := l.enc.EndEncoding()
	if err != nil {
		return l.dev.wrap("end encoding", err)
	}
	l.buf = buf
	return nil
}

func (l *commandList) Destroy() {
	if l.buf != nil {
		l.dev.dev.FreeCommandBuffer(l.buf)
		l.buf = nil
	}
	l.enc.Destroy()
}

// queue submits to the device's hal queue.
type queue struct {
	raw hal.Queue
	dev hal.Device

	mu   sync.Mutex
	last uint64
}

func (q *queue) Execute(lists []native.CommandList) error {
	bufs := make([]hal.CommandBuffer, 0, len(lists))
	for i, l := range lists {
		cl, ok := l.(*commandList)
		if !ok || cl == nil {
			return fmt.Errorf("halnative: command list %d: %w", i, errForeign)
		}
		if cl.buf == nil {
			return fmt.Errorf("halnative: command list %d is not closed", i)
		}
		bufs = append(bufs, cl.buf)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	idx, err := q.raw.Submit(bufs)
	if err != nil {
		return fmt.Errorf("halnative: submit: %w", err)
	}
	q.last = idx
	return nil
}

// Signal arms fence to reach value when the last executed batch completes.
func (q *queue) Signal(f native.Fence, value uint64) error {
	hf, ok := f.(*fence)
	if !ok || hf == nil {
		return errForeign
	}
	q.mu.Lock()
	idx := q.last
	q.mu.Unlock()
	hf.arm(q, value, idx)
	return nil
}

func (q *queue) Destroy() {}

type pendingSignal struct {
	value uint64
	index uint64
}

// fence emulates a monotonic fence on top of submission indices.
type fence struct {
	mu        sync.Mutex
	q         *queue
	completed uint64
	pending   []pendingSignal
}

func (f *fence) arm(q *queue, value, index uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.q = q
	f.pending = append(f.pending, pendingSignal{value: value, index: index})
}

// poll retires pending signals whose submission has completed.
func (f *fence) poll() {
	if f.q == nil || len(f.pending) == 0 {
		return
	}
	done := f.q.raw.PollCompleted()
	keep := f.pending[:0]
	for _, p := range f.pending {
		if p.index <= done {
			if p.value > f.completed {
				f.completed = p.value
			}
			continue
		}
		keep = append(keep, p)
	}
	f.pending = keep
}

func (f *fence) Completed() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.poll()
	return f.completed
}

func (f *fence) Wait(value uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.poll()
	if f.completed >= value {
		return nil
	}
	armed := false
	for _, p := range f.pending {
		if p.value >= value {
			armed = true
			break
		}
	}
	if !armed {
		return fmt.Errorf("halnative: fence value %d was never signalled", value)
	}
	if err := f.q.dev.WaitIdle(); err != nil {
		return fmt.Errorf("halnative: wait idle: %w", err)
	}
	f.poll()
	if f.completed < value {
		return fmt.Errorf("halnative: fence value %d not reached after idle", value)
	}
	return nil
}

func (f *fence) Destroy() {}
