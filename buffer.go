package webgpunative

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/handle"
	"github.com/gogpu/webgpunative/internal/native"
)

// Buffer is a fixed-size GPU allocation.
type Buffer struct {
	dev   *Device
	h     handle.Owned[native.Buffer]
	label string
	size  uint64
	usage gputypes.BufferUsage

	mapMode   MapMode
	// mapped is the window [mapOffset, mapOffset+len(mapped)) of the buffer.
	mapped    []byte
	mapOffset uint64
}

// Size returns the size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// Usage returns the usage flags.
func (b *Buffer) Usage() gputypes.BufferUsage { return b.usage }

// Label returns the debug label.
func (b *Buffer) Label() string { return b.label }

// MapAsync maps bytes [offset, offset+size) of the buffer for CPU access.
// All device work is synchronous, so the mapping is ready when MapAsync
// returns.
//
// MapModeRead requires MapRead usage and MapModeWrite requires MapWrite
// usage.
func (b *Buffer) MapAsync(mode MapMode, offset, size uint64) error {
	const op = "Buffer.MapAsync"
	nb, ok := b.h.Get()
	if !ok {
		return ErrNotInitialized
	}
	if b.mapMode != 0 {
		return usageErr(op, "buffer %q is already mapped", b.label)
	}
	switch mode {
	case MapModeRead:
		if b.usage&gputypes.BufferUsageMapRead == 0 {
			return usageErr(op, "buffer %q lacks MapRead usage", b.label)
		}
	case MapModeWrite:
		if b.usage&gputypes.BufferUsageMapWrite == 0 {
			return usageErr(op, "buffer %q lacks MapWrite usage", b.label)
		}
	default:
		return usageErr(op, "invalid map mode %v", mode)
	}
	if offset > b.size || size > b.size-offset {
		return usageErr(op, "range [%d, %d) exceeds size %d", offset, offset+size, b.size)
	}
	mem, err := b.dev.native.Map(nb)
	if err != nil {
		return b.dev.backendErr("map_buffer", err)
	}
	b.mapMode, b.mapped, b.mapOffset = mode, mem[offset:offset+size:offset+size], offset
	return nil
}

// GetMappedRange returns bytes [offset, offset+size) of the buffer, which
// must lie inside the range passed to MapAsync. The slice is valid until
// Unmap.
//
// Mapped ranges of MapWrite buffers are not exposed.
func (b *Buffer) GetMappedRange(offset, size uint64) ([]byte, error) {
	const op = "Buffer.GetMappedRange"
	if !b.h.Valid() {
		return nil, ErrNotInitialized
	}
	if b.usage&gputypes.BufferUsageMapWrite != 0 {
		return nil, usageErr(op, "buffer %q has MapWrite usage", b.label)
	}
	if b.mapMode == 0 {
		return nil, usageErr(op, "buffer %q is not mapped", b.label)
	}
	end := b.mapOffset + uint64(len(b.mapped))
	if offset < b.mapOffset || offset > end || size > end-offset {
		return nil, usageErr(op, "range [%d, %d) outside mapped range [%d, %d)", offset, offset+size, b.mapOffset, end)
	}
	rel := offset - b.mapOffset
	return b.mapped[rel : rel+size : rel+size], nil
}

// Unmap releases the mapping. It does nothing on an unmapped buffer.
func (b *Buffer) Unmap() {
	nb, ok := b.h.Get()
	if !ok || b.mapMode == 0 {
		return
	}
	b.dev.native.Unmap(nb)
	b.mapMode, b.mapped, b.mapOffset = 0, nil, 0
}

// Release unmaps and frees the buffer. Later calls do nothing.
func (b *Buffer) Release() {
	b.Unmap()
	b.h.Release()
}

// Move transfers the buffer to the returned value and empties b.
func (b *Buffer) Move() *Buffer {
	m := *b
	m.h = b.h.Move()
	b.mapMode, b.mapped, b.mapOffset = 0, nil, 0
	return &m
}
