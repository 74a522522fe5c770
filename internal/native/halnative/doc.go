//go:build !nogpu

// Package halnative adapts the gogpu/wgpu hal backends (DX12, Metal,
// Vulkan) to the native device interface.
//
// hal has no queue-side fence signal. A fence signalled on a Queue records
// the submission index of the last executed batch and Wait polls the queue
// until that index completes, falling back to WaitIdle.
package halnative
