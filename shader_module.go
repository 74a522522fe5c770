package webgpunative

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/handle"
	"github.com/gogpu/webgpunative/internal/native"
	"github.com/gogpu/webgpunative/internal/shader"
)

// ShaderModule holds WGSL source and, after Initialize, one compiled stage
// per vertex and fragment entry point.
type ShaderModule struct {
	dev    *Device
	label  string
	code   string
	stages []*ShaderStage
}

// ShaderStage is one compiled entry point of a ShaderModule.
type ShaderStage struct {
	unit shader.Unit
	blob handle.Owned[native.ShaderBlob]
}

// EntryPoint returns the WGSL entry point name.
func (s *ShaderStage) EntryPoint() string { return s.unit.EntryPoint }

// Source returns the translated source text. It is empty when the backend
// consumes SPIR-V.
func (s *ShaderStage) Source() string { return s.unit.Source }

// VertexLayout returns a tightly packed layout of the stage's vertex
// inputs. It is empty for fragment stages.
func (s *ShaderStage) VertexLayout() gputypes.VertexBufferLayout {
	if len(s.unit.Inputs) == 0 {
		return gputypes.VertexBufferLayout{}
	}
	return shader.VertexLayout(s.unit.Inputs)
}

// Label returns the debug label.
func (m *ShaderModule) Label() string { return m.label }

// Code returns the WGSL source.
func (m *ShaderModule) Code() string { return m.code }

// Initialize translates the source for the device's backend and compiles
// every stage. Any failure releases the stages compiled so far and leaves
// the module uninitialized.
func (m *ShaderModule) Initialize() error {
	if m.stages != nil {
		return usageErr("ShaderModule.Initialize", "already initialized")
	}
	d := m.dev
	if err := d.ready("ShaderModule.Initialize"); err != nil {
		return err
	}
	units, err := shader.Translate(m.code, d.native.ShaderTarget())
	if err != nil {
		return d.backendErr("translate_shader", err)
	}

	stages := make([]*ShaderStage, 0, len(units))
	for i := range units {
		blob, err := d.native.CompileShader(&units[i])
		if err != nil {
			for _, s := range stages {
				s.blob.Release()
			}
			return d.backendErr("compile_shader", err)
		}
		stages = append(stages, &ShaderStage{
			unit: units[i],
			blob: handle.New(blob, native.ShaderBlob.Destroy),
		})
		d.log().Debug("webgpunative: shader stage compiled", "module", m.label,
			"stage", units[i].Stage, "entry_point", units[i].EntryPoint, "target", units[i].Target)
	}
	m.stages = stages
	return nil
}

// Vertex returns the first vertex stage named entryPoint, or nil.
func (m *ShaderModule) Vertex(entryPoint string) *ShaderStage {
	return m.find(shader.StageVertex, entryPoint)
}

// Fragment returns the first fragment stage named entryPoint, or nil.
func (m *ShaderModule) Fragment(entryPoint string) *ShaderStage {
	return m.find(shader.StageFragment, entryPoint)
}

func (m *ShaderModule) find(stage shader.Stage, entryPoint string) *ShaderStage {
	for _, s := range m.stages {
		if s.unit.Stage == stage && s.unit.EntryPoint == entryPoint {
			return s
		}
	}
	return nil
}

// Release frees the compiled stages. Pipelines created from the module keep
// working.
func (m *ShaderModule) Release() {
	for _, s := range m.stages {
		s.blob.Release()
	}
	m.stages = nil
}

// Move transfers the module to the returned value and empties m.
func (m *ShaderModule) Move() *ShaderModule {
	mv := &ShaderModule{dev: m.dev, label: m.label, code: m.code, stages: m.stages}
	m.stages = nil
	return mv
}
