// Package soft is the reference rasterizer backend.
//
// It implements the native interfaces on the CPU with explicit-state
// semantics: buffers live in default, upload or readback heaps; textures are
// created in a declared resource state and every copy or render pass checks
// that state; texture copies use 256-byte aligned row pitches; and command
// lists execute asynchronously on a per-queue worker goroutine, so the CPU
// only observes results through fences.
//
// Shaders run as pass-through programs. The vertex stage must copy
// location 0 to the clip position and location 1 to a varying, and the
// fragment stage must return that varying. Pipelines whose stages compute
// anything else are rejected. Triangles are rasterized with culling, depth
// testing, viewport and scissor applied as the pipeline describes.
//
// The package registers a backend named "soft" that exposes one software
// adapter. New builds backends with custom adapter lists for tests.
package soft
