package webgpunative

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/handle"
	"github.com/gogpu/webgpunative/internal/native"
)

// RenderPipeline is an immutable native pipeline built from a vertex
// stage, an optional fragment stage and fixed-function state.
type RenderPipeline struct {
	dev  *Device
	desc RenderPipelineDescriptor
	h    handle.Owned[native.Pipeline]
}

// Initialize resolves the shader stages and creates the native pipeline.
// On failure no native object is created.
func (p *RenderPipeline) Initialize() error {
	const op = "RenderPipeline.Initialize"
	if p.h.Valid() {
		return usageErr(op, "already initialized")
	}
	d := p.dev
	if err := d.ready(op); err != nil {
		return err
	}
	desc := &p.desc
	if desc.Vertex.Module == nil {
		return usageErr(op, "vertex state has no module")
	}

	vs := desc.Vertex.Module.Vertex(desc.Vertex.EntryPoint)
	if vs == nil {
		return &ResourceNotFoundError{Kind: "vertex shader", Name: desc.Vertex.EntryPoint, Message: "unable to set vertex shader"}
	}
	nd := &native.PipelineDescriptor{
		Label:       desc.Label,
		Vertex:      vs.blob.Value(),
		Buffers:     desc.Vertex.Buffers,
		Primitive:   DefaultPrimitiveState(),
		SampleCount: desc.SampleCount,
		Targets:     defaultTargets(),
	}
	if len(nd.Buffers) == 0 && len(vs.unit.Inputs) > 0 {
		nd.Buffers = []gputypes.VertexBufferLayout{vs.VertexLayout()}
	}
	if desc.Primitive != nil {
		nd.Primitive = *desc.Primitive
	}
	if desc.DepthStencil != nil {
		ds := *desc.DepthStencil
		nd.DepthStencil = &ds
	}
	if nd.SampleCount == 0 {
		nd.SampleCount = 1
	}

	if fsd := desc.Fragment; fsd != nil {
		if fsd.Module == nil {
			return usageErr(op, "fragment state has no module")
		}
		fs := fsd.Module.Fragment(fsd.EntryPoint)
		if fs == nil {
			return &ResourceNotFoundError{Kind: "fragment shader", Name: fsd.EntryPoint, Message: "unable to set fragment shader"}
		}
		nd.Fragment = fs.blob.Value()
		if len(fsd.Targets) > 0 {
			nd.Targets = fsd.Targets
		}
	}

	np, err := d.native.CreatePipeline(nd)
	if err != nil {
		return d.backendErr("create_pipeline_state", err)
	}
	p.h = handle.New(np, native.Pipeline.Destroy)
	d.log().Debug("webgpunative: render pipeline created", "label", desc.Label,
		"vertex", desc.Vertex.EntryPoint, "buffers", len(nd.Buffers))
	return nil
}

// Label returns the debug label.
func (p *RenderPipeline) Label() string { return p.desc.Label }

// Release frees the native pipeline.
func (p *RenderPipeline) Release() {
	p.h.Release()
}

// Move transfers the pipeline to the returned value and empties p.
func (p *RenderPipeline) Move() *RenderPipeline {
	return &RenderPipeline{dev: p.dev, desc: p.desc, h: p.h.Move()}
}
