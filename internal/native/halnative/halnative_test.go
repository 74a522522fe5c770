//go:build !nogpu

package halnative

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/native"
	"github.com/gogpu/webgpunative/internal/shader"

	_ "github.com/gogpu/wgpu/hal/noop"
)

const triangleWGSL = `
struct VertexOut {
  @builtin(position) position : vec4f,
  @location(0) color : vec4f
}

@vertex
fn vertex_main(@location(0) position: vec4f, @location(1) color: vec4f) -> VertexOut {
  var output : VertexOut;
  output.position = position;
  output.color = color;
  return output;
}

@fragment
fn fragment_main(fragData: VertexOut) -> @location(0) vec4f {
  return fragData.color;
}
`

// createNoopDevice opens a device on the hal noop backend.
func createNoopDevice(t *testing.T) native.Device {
	t.Helper()
	inst, err := New("noop", gputypes.BackendEmpty).CreateInstance(&native.InstanceDescriptor{Debug: true})
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	t.Cleanup(inst.Destroy)
	adapters := inst.EnumerateAdapters()
	if len(adapters) == 0 {
		t.Fatal("no adapters")
	}
	d, err := adapters[0].CreateDevice()
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	return d
}

func TestUnavailableVariant(t *testing.T) {
	_, err := New("bogus", gputypes.Backend(99)).CreateInstance(nil)
	if !errors.Is(err, native.ErrBackendNotAvailable) {
		t.Errorf("err = %v, want ErrBackendNotAvailable", err)
	}
}

func TestAdapterInfo(t *testing.T) {
	d := createNoopDevice(t)
	info := d.Info()
	if info.Backend != "noop" {
		t.Errorf("Backend = %q, want noop", info.Backend)
	}
	if info.Software {
		t.Error("noop adapter reported as software")
	}
	if d.ShaderTarget() != shader.TargetWGSL {
		t.Errorf("ShaderTarget = %v, want WGSL", d.ShaderTarget())
	}
}

func TestReadbackPlumbing(t *testing.T) {
	d := createNoopDevice(t)
	q, err := d.CreateCommandQueue()
	if err != nil {
		t.Fatal(err)
	}
	alloc, _ := d.CreateCommandAllocator()

	tex, err := d.CreateTexture(&native.TextureDescriptor{Width: 5, Height: 3, Format: gputypes.TextureFormatRGBA8Unorm})
	if err != nil {
		t.Fatal(err)
	}
	fp := d.Footprint(tex)
	if fp.RowPitch != 256 || fp.TotalSize != 256*2+20 {
		t.Fatalf("footprint = %+v", fp)
	}
	buf, err := d.CreateBuffer(&native.BufferDescriptor{Size: fp.TotalSize, Heap: native.HeapReadback})
	if err != nil {
		t.Fatal(err)
	}

	l, err := d.CreateCommandList(alloc)
	if err != nil {
		t.Fatal(err)
	}
	l.ResourceBarrier(native.Barrier{Texture: tex, Before: native.StateRenderTarget, After: native.StateCopySource})
	l.CopyTextureToBuffer(buf, tex, fp)
	l.ResourceBarrier(native.Barrier{Texture: tex, Before: native.StateCopySource, After: native.StateRenderTarget})
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	defer l.Destroy()
	if err := q.Execute([]native.CommandList{l}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	f, _ := d.CreateFence(0)
	if err := q.Signal(f, 1); err != nil {
		t.Fatal(err)
	}
	if err := f.Wait(1); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if f.Completed() != 1 {
		t.Errorf("Completed() = %d, want 1", f.Completed())
	}
	if err := f.Wait(2); err == nil {
		t.Error("Wait on an unsignalled value succeeded")
	}

	data, err := d.Map(buf)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if uint64(len(data)) != fp.TotalSize {
		t.Errorf("len(mapped) = %d, want %d", len(data), fp.TotalSize)
	}
	d.Unmap(buf)
}

func TestMapDefaultHeap(t *testing.T) {
	d := createNoopDevice(t)
	buf, _ := d.CreateBuffer(&native.BufferDescriptor{Size: 16})
	if _, err := d.Map(buf); !errors.Is(err, errNotMappable) {
		t.Errorf("err = %v, want errNotMappable", err)
	}
}

func TestPipelineAndDraw(t *testing.T) {
	d := createNoopDevice(t)
	units, err := shader.Translate(triangleWGSL, d.ShaderTarget())
	if err != nil {
		t.Fatal(err)
	}
	vs, err := d.CompileShader(&units[0])
	if err != nil {
		t.Fatal(err)
	}
	fs, err := d.CompileShader(&units[1])
	if err != nil {
		t.Fatal(err)
	}
	if vs.EntryPoint() != "vertex_main" || fs.Stage() != shader.StageFragment {
		t.Errorf("blobs = %q/%v", vs.EntryPoint(), fs.Stage())
	}
	p, err := d.CreatePipeline(&native.PipelineDescriptor{
		Vertex:      vs,
		Fragment:    fs,
		Buffers:     []gputypes.VertexBufferLayout{shader.VertexLayout(units[0].Inputs)},
		Primitive:   gputypes.PrimitiveState{Topology: gputypes.PrimitiveTopologyTriangleList},
		SampleCount: 1,
		Targets:     []gputypes.ColorTargetState{{Format: gputypes.TextureFormatRGBA8Unorm, WriteMask: gputypes.ColorWriteMaskAll}},
	})
	if err != nil {
		t.Fatalf("CreatePipeline: %v", err)
	}
	defer p.Destroy()

	tex, _ := d.CreateTexture(&native.TextureDescriptor{Width: 8, Height: 8, Format: gputypes.TextureFormatRGBA8Unorm})
	v, _ := d.CreateView(tex)
	vb, _ := d.CreateBuffer(&native.BufferDescriptor{Size: 96, Usage: gputypes.BufferUsageVertex})
	alloc, _ := d.CreateCommandAllocator()
	l, _ := d.CreateCommandList(alloc)
	l.BeginRenderPass(&native.RenderPassDescriptor{
		ColorAttachments: []native.ColorAttachment{{View: v, Clear: &gputypes.Color{B: 1, A: 1}}},
	})
	l.SetViewport(native.Viewport{Width: 8, Height: 8, MaxDepth: 1})
	l.SetScissorRect(native.Rect{Width: 8, Height: 8})
	l.SetPipeline(p)
	l.SetVertexBuffer(0, vb, 0)
	l.Draw(3, 1, 0, 0)
	l.EndRenderPass()
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRecordingErrors(t *testing.T) {
	d := createNoopDevice(t)
	alloc, _ := d.CreateCommandAllocator()

	l, _ := d.CreateCommandList(alloc)
	l.Draw(3, 1, 0, 0)
	if err := l.Close(); err == nil || !strings.Contains(err.Error(), "outside a render pass") {
		t.Errorf("Close() = %v, want outside-pass error", err)
	}

	l, _ = d.CreateCommandList(alloc)
	q, _ := d.CreateCommandQueue()
	if err := q.Execute([]native.CommandList{l}); err == nil {
		t.Error("Execute of an open list succeeded")
	}
}
