package shader

import (
	"fmt"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
)

// vertexInputs collects the location-bound inputs of a vertex entry point.
// Struct arguments contribute their location-bound members.
func vertexInputs(m *ir.Module, fn *ir.Function) ([]VertexInput, error) {
	var inputs []VertexInput
	add := func(name string, binding *ir.Binding, th ir.TypeHandle) error {
		loc, ok := location(binding)
		if !ok {
			return nil
		}
		format, err := vertexFormat(m, th)
		if err != nil {
			return fmt.Errorf("input %q at location %d: %w", name, loc, err)
		}
		inputs = append(inputs, VertexInput{Location: loc, Format: format})
		return nil
	}

	for _, arg := range fn.Arguments {
		if arg.Binding != nil {
			if err := add(arg.Name, arg.Binding, arg.Type); err != nil {
				return nil, err
			}
			continue
		}
		st, ok := typeInner(m, arg.Type).(ir.StructType)
		if !ok {
			continue
		}
		for _, member := range st.Members {
			if err := add(member.Name, member.Binding, member.Type); err != nil {
				return nil, err
			}
		}
	}

	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Location < inputs[j].Location })
	return inputs, nil
}

// fragmentOutputs returns the sorted color output locations of a fragment
// entry point.
func fragmentOutputs(m *ir.Module, fn *ir.Function) []uint32 {
	if fn.Result == nil {
		return nil
	}
	if loc, ok := location(fn.Result.Binding); ok {
		return []uint32{loc}
	}
	st, ok := typeInner(m, fn.Result.Type).(ir.StructType)
	if !ok {
		return nil
	}
	var outs []uint32
	for _, member := range st.Members {
		if loc, ok := location(member.Binding); ok {
			outs = append(outs, loc)
		}
	}
	sort.Slice(outs, func(i, j int) bool { return outs[i] < outs[j] })
	return outs
}

func location(b *ir.Binding) (uint32, bool) {
	if b == nil || *b == nil {
		return 0, false
	}
	switch lb := (*b).(type) {
	case ir.LocationBinding:
		return lb.Location, true
	case *ir.LocationBinding:
		return lb.Location, true
	default:
		return 0, false
	}
}

func typeInner(m *ir.Module, th ir.TypeHandle) ir.TypeInner {
	if int(th) >= len(m.Types) {
		return nil
	}
	return m.Types[th].Inner
}

// vertexFormat maps a 32-bit scalar or vector IR type to a vertex format.
func vertexFormat(m *ir.Module, th ir.TypeHandle) (gputypes.VertexFormat, error) {
	var (
		scalar ir.ScalarType
		size   = 1
	)
	switch t := typeInner(m, th).(type) {
	case ir.ScalarType:
		scalar = t
	case ir.VectorType:
		scalar = t.Scalar
		size = int(t.Size)
	default:
		return gputypes.VertexFormatUndefined, fmt.Errorf("unsupported vertex input type %T", t)
	}
	if scalar.Width != 4 {
		return gputypes.VertexFormatUndefined, fmt.Errorf("unsupported scalar width %d", scalar.Width)
	}

	var formats [4]gputypes.VertexFormat
	switch scalar.Kind {
	case ir.ScalarFloat:
		formats = [4]gputypes.VertexFormat{
			gputypes.VertexFormatFloat32, gputypes.VertexFormatFloat32x2,
			gputypes.VertexFormatFloat32x3, gputypes.VertexFormatFloat32x4,
		}
	case ir.ScalarUint:
		formats = [4]gputypes.VertexFormat{
			gputypes.VertexFormatUint32, gputypes.VertexFormatUint32x2,
			gputypes.VertexFormatUint32x3, gputypes.VertexFormatUint32x4,
		}
	case ir.ScalarSint:
		formats = [4]gputypes.VertexFormat{
			gputypes.VertexFormatSint32, gputypes.VertexFormatSint32x2,
			gputypes.VertexFormatSint32x3, gputypes.VertexFormatSint32x4,
		}
	default:
		return gputypes.VertexFormatUndefined, fmt.Errorf("unsupported scalar kind %d", scalar.Kind)
	}
	if size < 1 || size > 4 {
		return gputypes.VertexFormatUndefined, fmt.Errorf("unsupported vector size %d", size)
	}
	return formats[size-1], nil
}

// VertexLayout packs inputs tightly in location order into a single
// per-vertex buffer layout.
func VertexLayout(inputs []VertexInput) gputypes.VertexBufferLayout {
	layout := gputypes.VertexBufferLayout{StepMode: gputypes.VertexStepModeVertex}
	var offset uint64
	for _, in := range inputs {
		layout.Attributes = append(layout.Attributes, gputypes.VertexAttribute{
			Format:         in.Format,
			Offset:         offset,
			ShaderLocation: in.Location,
		})
		offset += in.Format.Size()
	}
	layout.ArrayStride = offset
	return layout
}
