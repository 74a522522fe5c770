// Command wgn-triangle renders the reference triangle offscreen and writes
// the readback to an image file.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	webgpunative "github.com/gogpu/webgpunative"
)

const shaderWGSL = `
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

// Position then color, counter-clockwise on screen.
var vertices = []float32{
	0.0, 0.5, 0, 1, 1, 0, 0, 1,
	-0.5, 0.0, 0, 1, 0, 1, 0, 1,
	0.5, -0.5, 0, 1, 0, 0, 1, 1,
}

func main() {
	var (
		backend  = flag.String("backend", "", "backend name (dx12, metal, vulkan, soft); empty picks the first that opens")
		width    = flag.Int("width", 256, "image width")
		height   = flag.Int("height", 256, "image height")
		output   = flag.String("o", "triangle.png", "output file (.png, .bmp, .tif)")
		cull     = flag.String("cull", "none", "cull mode: none, front, back")
		clearArg = flag.String("clear", "0,0,1,1", "clear color as r,g,b,a")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		webgpunative.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	cullMode, err := parseCull(*cull)
	if err != nil {
		log.Fatal(err)
	}
	clearColor, err := parseColor(*clearArg)
	if err != nil {
		log.Fatal(err)
	}
	if *width <= 0 || *height <= 0 {
		log.Fatalf("invalid size %dx%d", *width, *height)
	}

	img, info, err := render(*backend, uint32(*width), uint32(*height), cullMode, clearColor)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	if err := save(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Triangle saved to %s (%dx%d) using %s", *output, *width, *height, info.Name)
}

func render(backend string, w, h uint32, cull gputypes.CullMode, clearColor gputypes.Color) (*image.RGBA, webgpunative.AdapterInfo, error) {
	var info webgpunative.AdapterInfo
	opts := []webgpunative.Option{webgpunative.WithUploadCopy(true)}
	if backend != "" {
		opts = append(opts, webgpunative.WithBackend(backend))
	}
	inst := webgpunative.NewInstance(opts...)
	defer inst.Release()
	if err := inst.Initialize(); err != nil {
		return nil, info, err
	}
	adapter, err := inst.RequestAdapter()
	if err != nil {
		return nil, info, err
	}
	defer adapter.Release()
	info = adapter.Info()

	dev, err := adapter.RequestDevice()
	if err != nil {
		return nil, info, err
	}
	defer dev.Release()

	tex, err := dev.CreateTexture(&webgpunative.TextureDescriptor{Label: "target", Width: w, Height: h})
	if err != nil {
		return nil, info, err
	}
	defer tex.Release()
	view, err := tex.CreateView()
	if err != nil {
		return nil, info, err
	}
	defer view.Release()

	module, err := dev.CreateShaderModule(&webgpunative.ShaderModuleDescriptor{Label: "triangle", Code: shaderWGSL})
	if err != nil {
		return nil, info, err
	}
	defer module.Release()
	pipeline, err := dev.CreateRenderPipeline(&webgpunative.RenderPipelineDescriptor{
		Label:    "triangle",
		Vertex:   webgpunative.VertexState{Module: module, EntryPoint: "vertex_main"},
		Fragment: &webgpunative.FragmentState{Module: module, EntryPoint: "fragment_main"},
		Primitive: &gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  cull,
		},
	})
	if err != nil {
		return nil, info, err
	}
	defer pipeline.Release()

	data := make([]byte, 4*len(vertices))
	for i, v := range vertices {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	vb, err := dev.CreateBuffer(&webgpunative.BufferDescriptor{Label: "vertices", Size: uint64(len(data))})
	if err != nil {
		return nil, info, err
	}
	defer vb.Release()
	if err := dev.Queue().WriteBuffer(vb, 0, data, 0, uint64(len(data))); err != nil {
		return nil, info, err
	}

	enc, err := dev.CreateCommandEncoder(&webgpunative.CommandEncoderDescriptor{Label: "frame"})
	if err != nil {
		return nil, info, err
	}
	defer enc.Release()
	pass, err := enc.BeginRenderPass(&webgpunative.RenderPassDescriptor{
		ColorAttachments: []webgpunative.ColorAttachment{{View: view, ClearValue: &clearColor}},
	})
	if err != nil {
		return nil, info, err
	}
	pass.SetPipeline(pipeline)
	pass.SetVertexBuffer(0, vb, 0)
	pass.Draw(uint32(len(vertices) / 8))
	pass.End()
	cb, err := enc.Finish()
	if err != nil {
		return nil, info, err
	}
	defer cb.Release()
	if err := dev.Queue().Submit(cb); err != nil {
		return nil, info, err
	}

	mapped, err := tex.MapBuffer()
	if err != nil {
		return nil, info, err
	}
	defer mapped.Release()
	return mapped.Image(), info, nil
}

func save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, filepath.Ext(path), img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func encode(w io.Writer, ext string, img image.Image) error {
	switch strings.ToLower(ext) {
	case ".png", "":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}
}

func parseCull(s string) (gputypes.CullMode, error) {
	switch strings.ToLower(s) {
	case "none":
		return gputypes.CullModeNone, nil
	case "front":
		return gputypes.CullModeFront, nil
	case "back":
		return gputypes.CullModeBack, nil
	default:
		return 0, fmt.Errorf("unknown cull mode %q", s)
	}
}

func parseColor(s string) (gputypes.Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return gputypes.Color{}, fmt.Errorf("clear color %q: want r,g,b,a", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return gputypes.Color{}, fmt.Errorf("clear color %q: %w", s, err)
		}
		v[i] = f
	}
	return gputypes.Color{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}
