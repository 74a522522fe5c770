package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Errors returned by Translate.
var (
	// ErrNoVertexStage is returned when a module declares no vertex entry point.
	ErrNoVertexStage = errors.New("shader: no vertex entry point")

	// ErrEmptySource is returned for blank shader source.
	ErrEmptySource = errors.New("shader: empty source")
)

// Stage identifies the pipeline stage of a unit.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// Target is the native shading dialect a unit is translated to.
type Target uint8

const (
	// TargetWGSL keeps the portable source. Used by backends that run their
	// own translation.
	TargetWGSL Target = iota
	// TargetHLSL emits HLSL for shader model 5.0 (vs_5_0 / ps_5_0).
	TargetHLSL
	// TargetMSL emits Metal Shading Language 2.1.
	TargetMSL
	// TargetSPIRV emits SPIR-V 1.3 words.
	TargetSPIRV
	// TargetGLSL emits GLSL 330.
	TargetGLSL
)

func (t Target) String() string {
	switch t {
	case TargetWGSL:
		return "wgsl"
	case TargetHLSL:
		return "hlsl"
	case TargetMSL:
		return "msl"
	case TargetSPIRV:
		return "spirv"
	case TargetGLSL:
		return "glsl"
	default:
		return fmt.Sprintf("Target(%d)", uint8(t))
	}
}

// VertexInput is one location-bound input of a vertex entry point.
type VertexInput struct {
	Location uint32
	Format   gputypes.VertexFormat
}

// Unit is one translated shader stage.
type Unit struct {
	Stage      Stage
	EntryPoint string
	Target     Target

	// NativeEntryPoint is the entry name in the translated source. Some
	// back ends rename entry points to avoid reserved words.
	NativeEntryPoint string

	// Profile is the compile profile for HLSL units ("vs_5_0", "ps_5_0").
	Profile string

	// Source is the translated text. Empty for TargetSPIRV.
	Source string

	// SPIRV holds the module words for TargetSPIRV.
	SPIRV []uint32

	// WGSL is the portable source the unit was produced from.
	WGSL string

	// Inputs lists the vertex inputs sorted by location. Nil for fragment units.
	Inputs []VertexInput

	// Outputs lists the fragment output locations. Nil for vertex units.
	Outputs []uint32

	// Flow is set when the entry point only copies inputs to outputs.
	Flow *Flow
}

// Flow records which input location each output of a copy-only entry
// point carries.
type Flow struct {
	// Position is the input location written to @builtin(position), or -1.
	Position int

	// Outputs maps an output location to the input location it copies.
	Outputs map[uint32]uint32
}

// TranslateError reports a failure in one translation step.
type TranslateError struct {
	// Step is "parse", "lower", "validate" or the target name.
	Step       string
	EntryPoint string
	Err        error
}

func (e *TranslateError) Error() string {
	if e.EntryPoint != "" {
		return fmt.Sprintf("shader: %s %q: %v", e.Step, e.EntryPoint, e.Err)
	}
	return fmt.Sprintf("shader: %s: %v", e.Step, e.Err)
}

func (e *TranslateError) Unwrap() error { return e.Err }
