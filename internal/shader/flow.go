package shader

import "github.com/gogpu/naga/ir"

// Values tracked while walking an entry point body. A nil value is
// anything computed.
type (
	// argRef is a function argument, or one member of a struct argument.
	argRef struct {
		arg    int
		member int
	}

	// localRef points at a local variable, or one member of a struct
	// local. partial marks a pointer below member granularity.
	localRef struct {
		v       int
		member  int
		partial bool
	}

	// structVal is a struct value assembled member by member.
	structVal []any
)

type slot struct{ v, member int }

// flowState evaluates a straight-line body symbolically.
type flowState struct {
	m        *ir.Module
	fn       *ir.Function
	memo     map[ir.ExpressionHandle]any
	locals   map[slot]any
	ret      any
	returned bool
}

// copyFlow reports how fn routes its location inputs to its outputs. It
// returns nil unless every output is a plain copy of an input and the body
// has no control flow or calls.
func copyFlow(m *ir.Module, fn *ir.Function) *Flow {
	if fn.Result == nil {
		return nil
	}
	s := &flowState{
		m:      m,
		fn:     fn,
		memo:   make(map[ir.ExpressionHandle]any),
		locals: make(map[slot]any),
	}
	for i, lv := range fn.LocalVars {
		if lv.Init != nil {
			s.assign(localRef{v: i, member: -1}, s.eval(*lv.Init))
		}
	}
	if !s.run(fn.Body) || !s.returned {
		return nil
	}

	f := &Flow{Position: -1, Outputs: make(map[uint32]uint32)}
	if b := fn.Result.Binding; b != nil && *b != nil {
		if !s.route(f, b, s.ret) {
			return nil
		}
		return f
	}
	st, ok := typeInner(m, fn.Result.Type).(ir.StructType)
	if !ok {
		return nil
	}
	sv, ok := s.ret.(structVal)
	if !ok || len(sv) != len(st.Members) {
		return nil
	}
	for i, member := range st.Members {
		if !s.route(f, member.Binding, sv[i]) {
			return nil
		}
	}
	return f
}

func (s *flowState) run(block ir.Block) bool {
	for _, st := range block {
		if s.returned {
			return true
		}
		switch k := st.Kind.(type) {
		case ir.StmtEmit:
			for h := k.Range.Start; h < k.Range.End; h++ {
				s.eval(h)
			}
		case ir.StmtBlock:
			if !s.run(k.Block) {
				return false
			}
		case ir.StmtStore:
			p, ok := s.eval(k.Pointer).(localRef)
			if !ok {
				return false
			}
			s.assign(p, s.eval(k.Value))
		case ir.StmtReturn:
			if k.Value != nil {
				s.ret = s.eval(*k.Value)
			}
			s.returned = true
		default:
			return false
		}
	}
	return true
}

func (s *flowState) eval(h ir.ExpressionHandle) any {
	if v, ok := s.memo[h]; ok {
		return v
	}
	var v any
	if int(h) < len(s.fn.Expressions) {
		v = s.evalKind(s.fn.Expressions[h].Kind)
	}
	s.memo[h] = v
	return v
}

func (s *flowState) evalKind(k ir.ExpressionKind) any {
	switch e := k.(type) {
	case ir.ExprFunctionArgument:
		return argRef{arg: int(e.Index), member: -1}
	case ir.ExprLocalVariable:
		return localRef{v: int(e.Variable), member: -1}
	case ir.ExprAccessIndex:
		return s.member(s.eval(e.Base), int(e.Index))
	case ir.ExprAccess:
		if p, ok := s.eval(e.Base).(localRef); ok {
			p.partial = true
			return p
		}
		return nil
	case ir.ExprLoad:
		p, ok := s.eval(e.Pointer).(localRef)
		if !ok || p.partial {
			return nil
		}
		return s.load(p)
	case ir.ExprCompose:
		st, ok := typeInner(s.m, e.Type).(ir.StructType)
		if !ok || len(st.Members) != len(e.Components) {
			return nil
		}
		out := make(structVal, len(e.Components))
		for i, c := range e.Components {
			out[i] = s.eval(c)
		}
		return out
	default:
		return nil
	}
}

func (s *flowState) member(base any, idx int) any {
	switch b := base.(type) {
	case argRef:
		if b.member < 0 && b.arg < len(s.fn.Arguments) {
			if _, ok := typeInner(s.m, s.fn.Arguments[b.arg].Type).(ir.StructType); ok {
				return argRef{arg: b.arg, member: idx}
			}
		}
	case localRef:
		if !b.partial && b.member < 0 {
			if _, ok := s.localStruct(b.v); ok {
				return localRef{v: b.v, member: idx}
			}
		}
		b.partial = true
		return b
	case structVal:
		if idx < len(b) {
			return b[idx]
		}
	}
	return nil
}

func (s *flowState) localStruct(v int) (ir.StructType, bool) {
	if v >= len(s.fn.LocalVars) {
		return ir.StructType{}, false
	}
	st, ok := typeInner(s.m, s.fn.LocalVars[v].Type).(ir.StructType)
	return st, ok
}

func (s *flowState) load(p localRef) any {
	if p.member >= 0 {
		return s.locals[slot{p.v, p.member}]
	}
	st, ok := s.localStruct(p.v)
	if !ok {
		return s.locals[slot{p.v, -1}]
	}
	out := make(structVal, len(st.Members))
	for i := range out {
		out[i] = s.locals[slot{p.v, i}]
	}
	return out
}

func (s *flowState) assign(p localRef, val any) {
	st, isStruct := s.localStruct(p.v)
	switch {
	case p.partial && p.member >= 0:
		delete(s.locals, slot{p.v, p.member})
	case p.partial:
		for k := range s.locals {
			if k.v == p.v {
				delete(s.locals, k)
			}
		}
	case p.member >= 0:
		s.locals[slot{p.v, p.member}] = val
	case isStruct:
		sv, _ := val.(structVal)
		for i := range st.Members {
			var mv any
			if i < len(sv) {
				mv = sv[i]
			}
			s.locals[slot{p.v, i}] = mv
		}
	default:
		s.locals[slot{p.v, -1}] = val
	}
}

// route records one output binding. Only location outputs and the
// position built-in can be copies.
func (s *flowState) route(f *Flow, b *ir.Binding, v any) bool {
	if b == nil || *b == nil {
		return true
	}
	in, ok := s.inputLocation(v)
	if !ok {
		return false
	}
	if loc, isLoc := location(b); isLoc {
		f.Outputs[loc] = in
		return true
	}
	if isPosition(b) {
		f.Position = int(in)
		return true
	}
	return false
}

func (s *flowState) inputLocation(v any) (uint32, bool) {
	ref, ok := v.(argRef)
	if !ok || ref.arg >= len(s.fn.Arguments) {
		return 0, false
	}
	arg := s.fn.Arguments[ref.arg]
	if ref.member < 0 {
		return location(arg.Binding)
	}
	st, ok := typeInner(s.m, arg.Type).(ir.StructType)
	if !ok || ref.member >= len(st.Members) {
		return 0, false
	}
	return location(st.Members[ref.member].Binding)
}

func isPosition(b *ir.Binding) bool {
	switch bb := (*b).(type) {
	case ir.BuiltinBinding:
		return bb.Builtin == ir.BuiltinPosition
	case *ir.BuiltinBinding:
		return bb.Builtin == ir.BuiltinPosition
	default:
		return false
	}
}
