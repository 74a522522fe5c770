// Package webgpunative is an explicit-state GPU command-submission layer.
//
// # Overview
//
// webgpunative exposes one object model over several native backends:
//
//	Instance → Adapter → Device → Queue / CommandEncoder / RenderPassEncoder /
//	Buffer / Texture / TextureView / ShaderModule / RenderPipeline / CommandBuffer
//
// The backend is chosen at Instance.Initialize: DX12 on Windows, Metal on
// macOS, Vulkan on Linux, and a CPU reference rasterizer ("soft") that is
// always available. Build with -tags nogpu to link only the soft backend.
//
// # Quick Start
//
//	inst := webgpunative.NewInstance()
//	if err := inst.Initialize(); err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Release()
//
//	adapter, err := inst.RequestAdapter()
//	...
//	dev, err := adapter.RequestDevice()
//	...
//	tex, _ := dev.CreateTexture(&webgpunative.TextureDescriptor{Width: 800, Height: 600})
//	view, _ := tex.CreateView()
//
//	enc, _ := dev.CreateCommandEncoder(nil)
//	pass, _ := enc.BeginRenderPass(&webgpunative.RenderPassDescriptor{
//	    ColorAttachments: []webgpunative.ColorAttachment{{
//	        View:       view,
//	        ClearValue: &gputypes.Color{B: 1, A: 1},
//	    }},
//	})
//	pass.End()
//	cb, _ := enc.Finish()
//	_ = dev.Queue().Submit(cb)
//
//	mapped, _ := tex.MapBuffer()
//	defer mapped.Release()
//	for px := range mapped.Pixels() {
//	    ...
//	}
//
// # Synchronization
//
// Queue.Submit and Texture.MapBuffer block on a fence until the GPU has
// finished. There is no timeout and no cancellation. Objects are meant to be
// used from one goroutine per Device.
//
// # Ownership
//
// Every object owns at most one native handle. Release frees it once; Move
// transfers it to a new value and leaves the source empty. Objects created
// from a Device do not keep the Device alive.
package webgpunative
