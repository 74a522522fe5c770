package webgpunative

import (
	"image"
	"image/color"
	"iter"

	"github.com/gogpu/webgpunative/internal/native"
)

// MappedTextureBuffer is a CPU view of a texture readback. Release must be
// called when done; the pixel data is invalid afterwards.
type MappedTextureBuffer struct {
	tex  *Texture
	buf  native.Buffer
	data []byte
	fp   native.Footprint
}

// Width returns the width in pixels.
func (m *MappedTextureBuffer) Width() int { return int(m.fp.Width) }

// Height returns the height in pixels.
func (m *MappedTextureBuffer) Height() int { return int(m.fp.Height) }

// RowPitch returns the byte stride between rows, which may exceed
// Width*4.
func (m *MappedTextureBuffer) RowPitch() int { return int(m.fp.RowPitch) }

// At returns the pixel at (x, y). Out-of-range coordinates and released
// buffers return the zero color.
func (m *MappedTextureBuffer) At(x, y int) color.RGBA {
	if m.data == nil || x < 0 || y < 0 || x >= m.Width() || y >= m.Height() {
		return color.RGBA{}
	}
	i := int(m.fp.Offset) + y*m.RowPitch() + x*4
	return color.RGBA{R: m.data[i], G: m.data[i+1], B: m.data[i+2], A: m.data[i+3]}
}

// Pixels yields every pixel in row-major order, skipping row padding.
func (m *MappedTextureBuffer) Pixels() iter.Seq[Pixel] {
	return func(yield func(Pixel) bool) {
		w, h := m.Width(), m.Height()
		for y := 0; y < h && m.data != nil; y++ {
			for x := 0; x < w; x++ {
				if !yield(Pixel{Color: m.At(x, y), X: x, Y: y}) {
					return
				}
			}
		}
	}
}

// Image copies the pixels into a new image.
func (m *MappedTextureBuffer) Image() *image.RGBA {
	w, h := m.Width(), m.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if m.data == nil {
		return img
	}
	for y := 0; y < h; y++ {
		src := m.data[int(m.fp.Offset)+y*m.RowPitch():][:w*4]
		copy(img.Pix[y*img.Stride:], src)
	}
	return img
}

// Release unmaps and frees the readback buffer. Later calls do nothing.
func (m *MappedTextureBuffer) Release() {
	if m.buf == nil {
		return
	}
	d := m.tex.dev
	d.native.Unmap(m.buf)
	m.buf.Destroy()
	m.buf, m.data = nil, nil
	if m.tex.mapped == m {
		m.tex.mapped = nil
	}
}
