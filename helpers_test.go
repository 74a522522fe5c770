package webgpunative

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/native"
	"github.com/gogpu/webgpunative/internal/native/soft"
)

const triangleWGSL = `
struct VertexIn {
  @location(0) position: vec4f,
  @location(1) color: vec4f,
};

struct VertexOut {
  @builtin(position) position : vec4f,
  @location(0) color : vec4f
}

@vertex
fn vertex_main(input: VertexIn) -> VertexOut {
  var output : VertexOut;
  output.position = input.position;
  output.color = input.color;
  return output;
}

@fragment
fn fragment_main(fragData: VertexOut) -> @location(0) vec4f {
  return fragData.color;
}
`

// triangleVertices interleaves position and color for the reference
// triangle. It is counter-clockwise on screen and covers the target center.
var triangleVertices = []float32{
	0.0, 0.5, 0, 1, 1, 0, 0, 1,
	-0.5, 0.0, 0, 1, 0, 1, 0, 1,
	0.5, -0.5, 0, 1, 0, 0, 1, 1,
}

var blue = &gputypes.Color{R: 0, G: 0, B: 1, A: 1}

func floatBytes(vals []float32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// registerSoft registers a soft backend under cfg.Name for the test and
// restores any backend it replaced.
func registerSoft(t *testing.T, cfg soft.Config) {
	t.Helper()
	b := soft.New(cfg)
	prev, err := native.Get(b.Name())
	native.Register(b)
	t.Cleanup(func() {
		if err == nil {
			native.Register(prev)
			return
		}
		native.Unregister(b.Name())
	})
}

// createSoftDevice opens an initialized device on the soft backend.
func createSoftDevice(t *testing.T, opts ...Option) *Device {
	t.Helper()
	inst := NewInstance(append([]Option{WithBackend(native.BackendSoft)}, opts...)...)
	if err := inst.Initialize(); err != nil {
		t.Fatalf("Instance.Initialize: %v", err)
	}
	adapter, err := inst.RequestAdapter()
	if err != nil {
		t.Fatalf("RequestAdapter: %v", err)
	}
	dev, err := adapter.RequestDevice()
	if err != nil {
		t.Fatalf("RequestDevice: %v", err)
	}
	t.Cleanup(func() {
		dev.Release()
		adapter.Release()
		inst.Release()
	})
	return dev
}

func createTarget(t *testing.T, dev *Device, w, h uint32) (*Texture, *TextureView) {
	t.Helper()
	tex, err := dev.CreateTexture(&TextureDescriptor{Label: "target", Width: w, Height: h})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	view, err := tex.CreateView()
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}
	t.Cleanup(func() {
		view.Release()
		tex.Release()
	})
	return tex, view
}

// clearPass records a pass that clears view to c and submits it.
func clearPass(t *testing.T, dev *Device, view *TextureView, c *gputypes.Color) {
	t.Helper()
	enc, err := dev.CreateCommandEncoder(nil)
	if err != nil {
		t.Fatal(err)
	}
	pass, err := enc.BeginRenderPass(&RenderPassDescriptor{
		ColorAttachments: []ColorAttachment{{View: view, ClearValue: c}},
	})
	if err != nil {
		t.Fatal(err)
	}
	pass.End()
	cb, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := dev.Queue().Submit(cb); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

// drawTriangle uploads the reference triangle with WriteBuffer and draws it
// over a blue clear. It returns the mapped target.
func drawTriangle(t *testing.T, dev *Device, w, h uint32, prim *gputypes.PrimitiveState) *MappedTextureBuffer {
	t.Helper()
	tex, view := createTarget(t, dev, w, h)

	module, err := dev.CreateShaderModule(&ShaderModuleDescriptor{Label: "triangle", Code: triangleWGSL})
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	t.Cleanup(module.Release)
	pipeline, err := dev.CreateRenderPipeline(&RenderPipelineDescriptor{
		Label:     "triangle",
		Vertex:    VertexState{Module: module, EntryPoint: "vertex_main"},
		Fragment:  &FragmentState{Module: module, EntryPoint: "fragment_main"},
		Primitive: prim,
	})
	if err != nil {
		t.Fatalf("CreateRenderPipeline: %v", err)
	}
	t.Cleanup(pipeline.Release)

	data := floatBytes(triangleVertices)
	vb, err := dev.CreateBuffer(&BufferDescriptor{Label: "vertices", Size: uint64(len(data))})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(vb.Release)
	if err := dev.Queue().WriteBuffer(vb, 0, data, 0, uint64(len(data))); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}

	enc, _ := dev.CreateCommandEncoder(&CommandEncoderDescriptor{Label: "draw"})
	pass, err := enc.BeginRenderPass(&RenderPassDescriptor{
		ColorAttachments: []ColorAttachment{{View: view, ClearValue: blue}},
	})
	if err != nil {
		t.Fatal(err)
	}
	pass.SetPipeline(pipeline)
	pass.SetVertexBuffer(0, vb, 0)
	pass.Draw(3)
	pass.End()
	cb, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := dev.Queue().Submit(cb); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	mapped, err := tex.MapBuffer()
	if err != nil {
		t.Fatalf("MapBuffer: %v", err)
	}
	t.Cleanup(mapped.Release)
	return mapped
}
