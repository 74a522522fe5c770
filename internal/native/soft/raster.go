package soft

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// screenVertex is a vertex after the viewport transform.
type screenVertex struct {
	x, y, z float64
	invW    float64
	color   [4]float64
}

// fetch reads one float attribute of vertex index. Missing components
// default to (0, 0, 0, 1).
func (s *execState) fetch(ref attribRef, index uint32) ([4]float64, bool) {
	out := [4]float64{0, 0, 0, 1}
	vb, ok := s.vbufs[ref.slot]
	if !ok || vb.buf == nil {
		return out, false
	}
	n := uint64(ref.format.Size() / 4)
	off := vb.offset + uint64(index)*ref.stride + ref.offset
	if off+n*4 > uint64(len(vb.buf.data)) {
		return out, false
	}
	for i := uint64(0); i < n; i++ {
		bits := binary.LittleEndian.Uint32(vb.buf.data[off+i*4:])
		out[i] = float64(math.Float32frombits(bits))
	}
	return out, true
}

func (s *execState) drawTriangles(first, count uint32) {
	p := s.pipeline
	for v := first; v+3 <= first+count; v += 3 {
		var tri [3]screenVertex
		visible := true
		for i := uint32(0); i < 3; i++ {
			pos, ok := s.fetch(p.position, v+i)
			if !ok {
				s.dev.report("DrawInstanced: vertex %d out of range of bound buffers", v+i)
				return
			}
			col := [4]float64{1, 1, 1, 1}
			if p.hasColor {
				if c, ok := s.fetch(p.color, v+i); ok {
					col = c
				}
			}
			sv, ok := s.project(pos, col)
			if !ok {
				visible = false
				break
			}
			tri[i] = sv
		}
		if visible {
			s.rasterize(&tri)
		}
	}
}

// project applies the perspective divide and viewport transform.
// Vertices behind the eye (w <= 0) are rejected; there is no clipper.
func (s *execState) project(pos, col [4]float64) (screenVertex, bool) {
	w := pos[3]
	if w <= 0 || math.IsNaN(w) {
		return screenVertex{}, false
	}
	vp := s.viewport
	nx, ny, nz := pos[0]/w, pos[1]/w, pos[2]/w
	return screenVertex{
		x:     float64(vp.X) + (nx+1)*0.5*float64(vp.Width),
		y:     float64(vp.Y) + (1-ny)*0.5*float64(vp.Height),
		z:     float64(vp.MinDepth) + nz*float64(vp.MaxDepth-vp.MinDepth),
		invW:  1 / w,
		color: col,
	}, true
}

func edge(a, b *screenVertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// facesFront reports whether the triangle is front facing. Screen space
// has y pointing down, so a visually counter-clockwise triangle has
// negative signed area.
func facesFront(area float64, ff gputypes.FrontFace) bool {
	ccw := area < 0
	if ff == gputypes.FrontFaceCW {
		return !ccw
	}
	return ccw
}

// rowsPerBand is the smallest row band handed to the pool.
const rowsPerBand = 16

func (s *execState) rasterize(tri *[3]screenVertex) {
	p := s.pipeline
	a, b, c := &tri[0], &tri[1], &tri[2]
	area := edge(a, b, c.x, c.y)
	if area == 0 {
		return
	}
	front := facesFront(area, p.primitive.FrontFace)
	switch p.primitive.CullMode {
	case gputypes.CullModeBack:
		if !front {
			return
		}
	case gputypes.CullModeFront:
		if front {
			return
		}
	}

	minX := math.Floor(math.Min(a.x, math.Min(b.x, c.x)))
	maxX := math.Ceil(math.Max(a.x, math.Max(b.x, c.x)))
	minY := math.Floor(math.Min(a.y, math.Min(b.y, c.y)))
	maxY := math.Ceil(math.Max(a.y, math.Max(b.y, c.y)))

	x0, y0, x1, y1 := s.bounds()
	minX, minY = math.Max(minX, x0), math.Max(minY, y0)
	maxX, maxY = math.Min(maxX, x1), math.Min(maxY, y1)

	sign := 1.0
	if area < 0 {
		sign = -1
	}
	if maxY <= minY || maxX <= minX {
		return
	}
	// Rows are independent, so bands write disjoint pixels.
	s.dev.pool.Bands(int(maxY-minY), rowsPerBand, func(lo, hi int) {
		for py := minY + float64(lo); py < minY+float64(hi); py++ {
			for px := minX; px < maxX; px++ {
				cx, cy := px+0.5, py+0.5
				w0 := sign * edge(b, c, cx, cy)
				w1 := sign * edge(c, a, cx, cy)
				w2 := sign * edge(a, b, cx, cy)
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}
				sum := w0 + w1 + w2
				l0, l1, l2 := w0/sum, w1/sum, w2/sum
				s.shade(int(px), int(py), l0, l1, l2, a, b, c)
			}
		}
	})
}

// bounds returns the scissor rectangle clipped to the first attachment.
func (s *execState) bounds() (x0, y0, x1, y1 float64) {
	r := s.scissor
	x0, y0 = float64(r.X), float64(r.Y)
	x1, y1 = float64(r.X+r.Width), float64(r.Y+r.Height)
	if len(s.colors) > 0 {
		x1 = math.Min(x1, float64(s.colors[0].width))
		y1 = math.Min(y1, float64(s.colors[0].height))
	}
	return x0, y0, x1, y1
}

func (s *execState) shade(x, y int, l0, l1, l2 float64, a, b, c *screenVertex) {
	p := s.pipeline
	z := l0*a.z + l1*b.z + l2*c.z

	if ds := p.depthStencil; ds != nil && s.depth != nil {
		d := s.depth
		if x >= int(d.width) || y >= int(d.height) {
			return
		}
		i := (y*int(d.width) + x) * 4
		stored := float64(math.Float32frombits(binary.LittleEndian.Uint32(d.data[i:])))
		if !depthPasses(ds.DepthCompare, z, stored) {
			return
		}
		if ds.DepthWriteEnabled {
			binary.LittleEndian.PutUint32(d.data[i:], math.Float32bits(float32(z)))
		}
	}

	if p.fragment == nil {
		return
	}
	iw := l0*a.invW + l1*b.invW + l2*c.invW
	var col [4]float64
	for k := range col {
		col[k] = (l0*a.color[k]*a.invW + l1*b.color[k]*b.invW + l2*c.color[k]*c.invW) / iw
	}
	masks := [4]gputypes.ColorWriteMask{
		gputypes.ColorWriteMaskRed, gputypes.ColorWriteMaskGreen,
		gputypes.ColorWriteMaskBlue, gputypes.ColorWriteMaskAlpha,
	}
	for _, t := range s.colors {
		if x >= int(t.width) || y >= int(t.height) {
			continue
		}
		i := (y*int(t.width) + x) * 4
		for k := range col {
			if p.writeMask&masks[k] != 0 {
				t.data[i+k] = quantize(col[k])
			}
		}
	}
}

func depthPasses(fn gputypes.CompareFunction, z, stored float64) bool {
	switch fn {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionLess:
		return z < stored
	case gputypes.CompareFunctionEqual:
		return z == stored
	case gputypes.CompareFunctionLessEqual:
		return z <= stored
	case gputypes.CompareFunctionGreater:
		return z > stored
	case gputypes.CompareFunctionNotEqual:
		return z != stored
	case gputypes.CompareFunctionGreaterEqual:
		return z >= stored
	default:
		return true
	}
}
