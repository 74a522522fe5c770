package webgpunative

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/handle"
	"github.com/gogpu/webgpunative/internal/native"
)

// Texture is a 2-D GPU image of fixed size.
type Texture struct {
	dev    *Device
	h      handle.Owned[native.Texture]
	label  string
	width  uint32
	height uint32
	format gputypes.TextureFormat
	// state is the resource state between command lists.
	state native.ResourceState

	mapped *MappedTextureBuffer
}

// Width returns the width in pixels.
func (t *Texture) Width() uint32 { return t.width }

// Height returns the height in pixels.
func (t *Texture) Height() uint32 { return t.height }

// Format returns the pixel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// CreateView creates a render-target or depth view of the texture.
func (t *Texture) CreateView() (*TextureView, error) {
	nt, ok := t.h.Get()
	if !ok {
		return nil, ErrNotInitialized
	}
	nv, err := t.dev.native.CreateView(nt)
	if err != nil {
		return nil, t.dev.backendErr("create_view", err)
	}
	return &TextureView{tex: t, h: handle.New(nv, native.View.Destroy)}, nil
}

// MapBuffer copies the texture into a readback buffer and maps it. It
// blocks until the copy has finished.
//
// Only one mapping may exist at a time; release it before mapping again.
func (t *Texture) MapBuffer() (*MappedTextureBuffer, error) {
	const op = "Texture.MapBuffer"
	nt, ok := t.h.Get()
	if !ok {
		return nil, ErrNotInitialized
	}
	if t.mapped != nil {
		return nil, usageErr(op, "texture %q is already mapped", t.label)
	}
	if t.format != DefaultColorFormat {
		return nil, usageErr(op, "texture %q has format %v, want %v", t.label, t.format, DefaultColorFormat)
	}
	d := t.dev

	fp := d.native.Footprint(nt)
	rb, err := d.native.CreateBuffer(&native.BufferDescriptor{
		Label: "webgpunative readback",
		Size:  fp.TotalSize,
		Heap:  native.HeapReadback,
	})
	if err != nil {
		return nil, d.backendErr("create_readback_buffer", err)
	}
	d.log().Debug("webgpunative: texture readback", "label", t.label,
		"width", fp.Width, "height", fp.Height, "row_pitch", fp.RowPitch, "size", fp.TotalSize)

	err = d.runOneShot(func(l native.CommandList) {
		l.ResourceBarrier(native.Barrier{Texture: nt, Before: t.state, After: native.StateCopySource})
		l.CopyTextureToBuffer(rb, nt, fp)
		l.ResourceBarrier(native.Barrier{Texture: nt, Before: native.StateCopySource, After: t.state})
	})
	if err != nil {
		rb.Destroy()
		return nil, err
	}

	data, err := d.native.Map(rb)
	if err != nil {
		rb.Destroy()
		return nil, d.backendErr("map_readback_buffer", err)
	}
	m := &MappedTextureBuffer{tex: t, buf: rb, data: data, fp: fp}
	t.mapped = m
	return m, nil
}

// Release frees the texture. Views must be released first.
func (t *Texture) Release() {
	if t.mapped != nil {
		t.mapped.Release()
	}
	t.h.Release()
}

// Move transfers the texture to the returned value and empties t.
func (t *Texture) Move() *Texture {
	m := &Texture{
		dev:    t.dev,
		h:      t.h.Move(),
		label:  t.label,
		width:  t.width,
		height: t.height,
		format: t.format,
		state:  t.state,
		mapped: t.mapped,
	}
	if m.mapped != nil {
		m.mapped.tex = m
	}
	t.mapped = nil
	return m
}
