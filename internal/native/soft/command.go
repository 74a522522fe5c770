package soft

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/native"
)

// paddingByte fills the gap between rows of a copied footprint.
const paddingByte = 0xCD

// commandList records commands for later execution on a queue.
type commandList struct {
	dev    *Device
	cmds   []func(*execState)
	inPass bool
	closed bool
	err    error
}

// execState is the draw state while a list executes.
type execState struct {
	dev      *Device
	colors   []*texture
	depth    *texture
	viewport native.Viewport
	scissor  native.Rect
	pipeline *pipeline
	vbufs    map[uint32]vertexBinding
}

type vertexBinding struct {
	buf    *buffer
	offset uint64
}

// fail records the first recording error. Close reports it.
func (l *commandList) fail(format string, args ...any) {
	if l.err == nil {
		l.err = fmt.Errorf("soft: "+format, args...)
	}
}

func (l *commandList) record(fn func(*execState)) {
	if l.closed {
		l.fail("command recorded on a closed list")
		return
	}
	l.cmds = append(l.cmds, fn)
}

func (l *commandList) ResourceBarrier(barriers ...native.Barrier) {
	if l.inPass {
		l.fail("resource barrier inside a render pass")
		return
	}
	type transition struct {
		tex           *texture
		before, after native.ResourceState
	}
	ts := make([]transition, 0, len(barriers))
	for _, b := range barriers {
		t, ok := b.Texture.(*texture)
		if !ok {
			l.fail("barrier on foreign texture")
			return
		}
		ts = append(ts, transition{tex: t, before: b.Before, after: b.After})
	}
	l.record(func(s *execState) {
		for _, tr := range ts {
			if tr.tex.state != tr.before {
				s.dev.report("ResourceBarrier: texture %q is in state %v, barrier expects %v",
					tr.tex.label, tr.tex.state, tr.before)
			}
			tr.tex.state = tr.after
		}
	})
}

func (l *commandList) CopyTextureToBuffer(dst native.Buffer, src native.Texture, fp native.Footprint) {
	b, okb := dst.(*buffer)
	t, okt := src.(*texture)
	if !okb || !okt {
		l.fail("copy with foreign resources")
		return
	}
	if l.inPass {
		l.fail("copy inside a render pass")
		return
	}
	if fp.Width > t.width || fp.Height > t.height || fp.RowPitch < fp.Width*t.bpp {
		l.fail("copy footprint %dx%d pitch %d does not fit texture %dx%d",
			fp.Width, fp.Height, fp.RowPitch, t.width, t.height)
		return
	}
	if fp.Height > 0 && fp.Offset+uint64(fp.RowPitch)*uint64(fp.Height-1)+uint64(fp.Width*t.bpp) > b.Size() {
		l.fail("copy destination %q too small", b.label)
		return
	}
	l.record(func(s *execState) {
		if t.state != native.StateCopySource {
			s.dev.report("CopyTextureRegion: source %q is in state %v, want %v", t.label, t.state, native.StateCopySource)
		}
		row := int(fp.Width * t.bpp)
		for y := 0; y < int(fp.Height); y++ {
			off := int(fp.Offset) + y*int(fp.RowPitch)
			copy(b.data[off:off+row], t.data[y*int(t.rowBytes()):])
			end := off + int(fp.RowPitch)
			if end > len(b.data) {
				end = len(b.data)
			}
			for i := off + row; i < end; i++ {
				b.data[i] = paddingByte
			}
		}
	})
}

func (l *commandList) CopyBufferToBuffer(dst native.Buffer, dstOffset uint64, src native.Buffer, srcOffset, size uint64) {
	d, okd := dst.(*buffer)
	s, oks := src.(*buffer)
	if !okd || !oks {
		l.fail("copy with foreign buffers")
		return
	}
	if dstOffset+size > d.Size() || srcOffset+size > s.Size() {
		l.fail("buffer copy of %d bytes out of range", size)
		return
	}
	l.record(func(*execState) {
		copy(d.data[dstOffset:dstOffset+size], s.data[srcOffset:srcOffset+size])
	})
}

func (l *commandList) BeginRenderPass(desc *native.RenderPassDescriptor) {
	if l.inPass {
		l.fail("render pass begun inside a render pass")
		return
	}
	l.inPass = true

	type colorTarget struct {
		tex   *texture
		clear *gputypes.Color
	}
	colors := make([]colorTarget, 0, len(desc.ColorAttachments))
	for _, a := range desc.ColorAttachments {
		v, ok := a.View.(*view)
		if !ok {
			l.fail("color attachment with foreign view")
			return
		}
		ct := colorTarget{tex: v.tex}
		if a.Clear != nil {
			c := *a.Clear
			ct.clear = &c
		}
		colors = append(colors, ct)
	}
	var (
		depth      *texture
		depthClear *float32
	)
	if desc.Depth != nil {
		v, ok := desc.Depth.View.(*view)
		if !ok || v.tex.format != gputypes.TextureFormatDepth32Float {
			l.fail("depth attachment is not a Depth32Float view")
			return
		}
		depth = v.tex
		if desc.Depth.Clear != nil {
			d := *desc.Depth.Clear
			depthClear = &d
		}
	}

	l.record(func(s *execState) {
		s.colors = s.colors[:0]
		for _, ct := range colors {
			if ct.tex.state != native.StateRenderTarget {
				s.dev.report("OMSetRenderTargets: %q is in state %v, want %v", ct.tex.label, ct.tex.state, native.StateRenderTarget)
			}
			if ct.clear != nil {
				clearColor(ct.tex, *ct.clear)
			}
			s.colors = append(s.colors, ct.tex)
		}
		s.depth = depth
		if depth != nil && depthClear != nil {
			clearDepth(depth, *depthClear)
		}
		s.pipeline = nil
		s.vbufs = make(map[uint32]vertexBinding)
		if len(colors) > 0 {
			t := colors[0].tex
			s.viewport = native.Viewport{Width: float32(t.width), Height: float32(t.height), MaxDepth: 1}
			s.scissor = native.Rect{Width: t.width, Height: t.height}
		}
	})
}

func (l *commandList) requirePass(op string) bool {
	if !l.inPass {
		l.fail("%s outside a render pass", op)
		return false
	}
	return true
}

func (l *commandList) SetViewport(vp native.Viewport) {
	if l.requirePass("SetViewport") {
		l.record(func(s *execState) { s.viewport = vp })
	}
}

func (l *commandList) SetScissorRect(r native.Rect) {
	if l.requirePass("SetScissorRect") {
		l.record(func(s *execState) { s.scissor = r })
	}
}

func (l *commandList) SetPipeline(p native.Pipeline) {
	if !l.requirePass("SetPipeline") {
		return
	}
	pp, ok := p.(*pipeline)
	if !ok {
		l.fail("SetPipeline with foreign pipeline")
		return
	}
	l.record(func(s *execState) { s.pipeline = pp })
}

func (l *commandList) SetVertexBuffer(slot uint32, buf native.Buffer, offset uint64) {
	if !l.requirePass("SetVertexBuffer") {
		return
	}
	b, ok := buf.(*buffer)
	if !ok {
		l.fail("SetVertexBuffer with foreign buffer")
		return
	}
	l.record(func(s *execState) { s.vbufs[slot] = vertexBinding{buf: b, offset: offset} })
}

func (l *commandList) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !l.requirePass("Draw") {
		return
	}
	l.record(func(s *execState) {
		if s.pipeline == nil {
			s.dev.report("DrawInstanced: no pipeline state set")
			return
		}
		for inst := uint32(0); inst < instanceCount; inst++ {
			s.drawTriangles(firstVertex, vertexCount)
		}
	})
}

func (l *commandList) EndRenderPass() {
	if !l.requirePass("EndRenderPass") {
		return
	}
	l.inPass = false
	l.record(func(s *execState) {
		s.colors, s.depth, s.pipeline = nil, nil, nil
	})
}

var errEmptyClose = errors.New("soft: list already closed")

// Close finishes recording and reports the first recording error.
func (l *commandList) Close() error {
	if l.closed {
		return errEmptyClose
	}
	if l.inPass {
		l.fail("list closed inside a render pass")
	}
	if err := l.dev.fault("Close"); err != nil && l.err == nil {
		l.err = err
	}
	l.closed = true
	if l.err != nil {
		l.dev.report("Close: %v", l.err)
	}
	return l.err
}

func (l *commandList) Destroy() { l.cmds = nil }

// execute runs on the queue worker.
func (l *commandList) execute() {
	s := &execState{dev: l.dev}
	for _, cmd := range l.cmds {
		cmd(s)
	}
}

// quantize converts a normalized float to an 8-bit UNORM value.
func quantize(c float64) uint8 {
	if math.IsNaN(c) || c <= 0 {
		return 0
	}
	if c >= 1 {
		return 255
	}
	return uint8(math.Round(c * 255))
}

func clearColor(t *texture, c gputypes.Color) {
	px := [4]byte{quantize(c.R), quantize(c.G), quantize(c.B), quantize(c.A)}
	for i := 0; i+4 <= len(t.data); i += 4 {
		copy(t.data[i:i+4], px[:])
	}
}

func clearDepth(t *texture, d float32) {
	bits := math.Float32bits(d)
	for i := 0; i+4 <= len(t.data); i += 4 {
		binary.LittleEndian.PutUint32(t.data[i:], bits)
	}
}
