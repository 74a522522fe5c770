package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"
	"github.com/gogpu/naga/spirv"

	"github.com/gogpu/webgpunative/internal/cache"
)

// hlslModel is the shader model HLSL units are compiled for.
const hlslModel = hlsl.ShaderModel5_0

type cacheKey struct {
	source string
	target Target
}

// translated holds successful translations. Units are shared between
// callers and must not be modified.
var translated = cache.New[cacheKey, []Unit](64)

// CacheStats reports the translation cache counters.
func CacheStats() cache.Stats { return translated.Stats() }

// Translate compiles WGSL source into one Unit per vertex and fragment
// entry point, in declaration order. Compute entry points are ignored.
// Results are cached per source and target.
//
// Any failure returns no units.
func Translate(source string, target Target) ([]Unit, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}
	key := cacheKey{source: source, target: target}
	if units, ok := translated.Get(key); ok {
		return units, nil
	}
	units, err := translate(source, target)
	if err != nil {
		return nil, err
	}
	translated.Set(key, units)
	return units, nil
}

func translate(source string, target Target) ([]Unit, error) {
	module, err := frontEnd(source)
	if err != nil {
		return nil, err
	}

	// Flows are taken before any back end sees the module.
	flows := make([]*Flow, len(module.EntryPoints))
	for i := range module.EntryPoints {
		flows[i] = copyFlow(module, &module.EntryPoints[i].Function)
	}

	t := translator{module: module, source: source, target: target}
	units := make([]Unit, 0, len(module.EntryPoints))
	hasVertex := false
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		stage, ok := stageOf(ep.Stage)
		if !ok {
			continue
		}
		u, err := t.unit(ep, stage)
		if err != nil {
			return nil, err
		}
		if stage == StageVertex {
			hasVertex = true
		}
		u.Flow = flows[i]
		units = append(units, u)
	}
	if !hasVertex {
		return nil, ErrNoVertexStage
	}
	return units, nil
}

// frontEnd parses, lowers and validates WGSL source.
func frontEnd(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, &TranslateError{Step: "parse", Err: err}
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, &TranslateError{Step: "lower", Err: err}
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, &TranslateError{Step: "validate", Err: err}
	}
	if len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return nil, &TranslateError{Step: "validate", Err: errors.Join(errs...)}
	}
	return module, nil
}

func stageOf(s ir.ShaderStage) (Stage, bool) {
	switch s {
	case ir.StageVertex:
		return StageVertex, true
	case ir.StageFragment:
		return StageFragment, true
	default:
		return 0, false
	}
}

// translator holds per-module state. MSL and SPIR-V are generated once per
// module and shared by every unit.
type translator struct {
	module *ir.Module
	source string
	target Target

	msl     string
	mslInfo msl.TranslationInfo
	mslDone bool

	words []uint32
}

func (t *translator) unit(ep *ir.EntryPoint, stage Stage) (Unit, error) {
	u := Unit{
		Stage:            stage,
		EntryPoint:       ep.Name,
		NativeEntryPoint: ep.Name,
		Target:           t.target,
		WGSL:             t.source,
	}

	switch stage {
	case StageVertex:
		inputs, err := vertexInputs(t.module, &ep.Function)
		if err != nil {
			return Unit{}, &TranslateError{Step: "reflect", EntryPoint: ep.Name, Err: err}
		}
		u.Inputs = inputs
	case StageFragment:
		u.Outputs = fragmentOutputs(t.module, &ep.Function)
	}

	var err error
	switch t.target {
	case TargetWGSL:
	case TargetHLSL:
		err = t.emitHLSL(&u)
	case TargetMSL:
		err = t.emitMSL(&u)
	case TargetSPIRV:
		err = t.emitSPIRV(&u)
	case TargetGLSL:
		err = t.emitGLSL(&u)
	default:
		err = fmt.Errorf("unsupported target %v", t.target)
	}
	if err != nil {
		return Unit{}, &TranslateError{Step: t.target.String(), EntryPoint: ep.Name, Err: err}
	}
	return u, nil
}

func (t *translator) emitHLSL(u *Unit) error {
	opts := hlsl.DefaultOptions()
	opts.ShaderModel = hlslModel
	opts.EntryPoint = u.EntryPoint

	src, info, err := hlsl.Compile(t.module, opts)
	if err != nil {
		return err
	}
	u.Source = src
	if info != nil {
		if name, ok := info.EntryPointNames[u.EntryPoint]; ok {
			u.NativeEntryPoint = name
		}
	}
	u.Profile = profile(u.Stage, hlslModel)
	return nil
}

func (t *translator) emitMSL(u *Unit) error {
	if !t.mslDone {
		src, info, err := msl.Compile(t.module, msl.DefaultOptions())
		if err != nil {
			return err
		}
		t.msl, t.mslInfo, t.mslDone = src, info, true
	}
	u.Source = t.msl
	if name, ok := t.mslInfo.EntryPointNames[u.EntryPoint]; ok {
		u.NativeEntryPoint = name
	}
	return nil
}

func (t *translator) emitSPIRV(u *Unit) error {
	if t.words == nil {
		b, err := naga.GenerateSPIRV(t.module, spirv.Options{Version: spirv.Version1_3})
		if err != nil {
			return err
		}
		words, err := Words(b)
		if err != nil {
			return err
		}
		t.words = words
	}
	u.SPIRV = t.words
	return nil
}

func (t *translator) emitGLSL(u *Unit) error {
	opts := glsl.DefaultOptions()
	opts.EntryPoint = u.EntryPoint

	src, info, err := glsl.Compile(t.module, opts)
	if err != nil {
		return err
	}
	u.Source = src
	if name, ok := info.EntryPointNames[u.EntryPoint]; ok {
		u.NativeEntryPoint = name
	}
	return nil
}

// profile returns the HLSL compile profile, e.g. "vs_5_0".
func profile(stage Stage, model hlsl.ShaderModel) string {
	prefix := "vs_"
	if stage == StageFragment {
		prefix = "ps_"
	}
	return prefix + model.ProfileSuffix()
}

// Words converts little-endian SPIR-V bytes to 32-bit words.
func Words(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("spir-v size %d not aligned to 4 bytes", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}
