package webgpunative

import (
	"github.com/gogpu/webgpunative/internal/handle"
	"github.com/gogpu/webgpunative/internal/native"
)

// Queue is the device's single command-execution channel.
type Queue struct {
	dev *Device
	h   handle.Owned[native.Queue]

	onSubmitted func()
	waiters     []chan struct{}
}

// Submit executes the command buffers as one batch and blocks until the GPU
// has finished them. The OnSubmitted callback then runs once.
//
// A fence failure returns a *BackendError and skips the callback. Each
// CommandBuffer can be submitted only once, and at most once per batch.
func (q *Queue) Submit(buffers ...*CommandBuffer) error {
	nq, ok := q.h.Get()
	if !ok {
		return ErrNotInitialized
	}
	lists := make([]native.CommandList, 0, len(buffers))
	seen := make(map[*CommandBuffer]struct{}, len(buffers))
	for i, cb := range buffers {
		if cb == nil {
			return usageErr("Queue.Submit", "command buffer %d is nil", i)
		}
		if cb.submitted {
			return usageErr("Queue.Submit", "command buffer %d already submitted", i)
		}
		if _, dup := seen[cb]; dup {
			return usageErr("Queue.Submit", "command buffer %d appears twice in the batch", i)
		}
		seen[cb] = struct{}{}
		l, ok := cb.h.Get()
		if !ok {
			return usageErr("Queue.Submit", "command buffer %d was released", i)
		}
		lists = append(lists, l)
	}

	if err := nq.Execute(lists); err != nil {
		return q.dev.backendErr("execute_command_lists", err)
	}
	for _, cb := range buffers {
		cb.submitted = true
	}
	if err := q.dev.waitQueue(nq); err != nil {
		return err
	}

	if q.onSubmitted != nil {
		q.onSubmitted()
	}
	for _, w := range q.waiters {
		close(w)
	}
	q.waiters = nil
	return nil
}

// OnSubmitted sets the callback run after every successful Submit. A later
// call replaces the earlier callback; nil clears it.
func (q *Queue) OnSubmitted(fn func()) {
	q.onSubmitted = fn
}

// OnSubmittedWorkDone returns a channel that is closed after the next
// successful Submit returns.
func (q *Queue) OnSubmittedWorkDone() <-chan struct{} {
	ch := make(chan struct{})
	q.waiters = append(q.waiters, ch)
	return ch
}

// WriteBuffer copies data[dataOffset:dataOffset+size] into a fresh upload
// staging allocation destined for buf at bufferOffset.
//
// Unless the instance was created with WithUploadCopy(true), no GPU copy
// from the staging allocation into buf is recorded, and buf is unchanged.
func (q *Queue) WriteBuffer(buf *Buffer, bufferOffset uint64, data []byte, dataOffset, size uint64) error {
	const op = "Queue.WriteBuffer"
	if _, ok := q.h.Get(); !ok {
		return ErrNotInitialized
	}
	if buf == nil {
		return usageErr(op, "nil buffer")
	}
	dst, ok := buf.h.Get()
	if !ok {
		return usageErr(op, "buffer was released")
	}
	if dataOffset > uint64(len(data)) || size > uint64(len(data))-dataOffset {
		return usageErr(op, "data range [%d, %d) exceeds %d bytes", dataOffset, dataOffset+size, len(data))
	}
	if bufferOffset > buf.size || size > buf.size-bufferOffset {
		return usageErr(op, "buffer range [%d, %d) exceeds size %d", bufferOffset, bufferOffset+size, buf.size)
	}
	if size == 0 {
		return nil
	}

	d := q.dev
	staging, err := d.native.CreateBuffer(&native.BufferDescriptor{
		Label: "webgpunative staging",
		Size:  size,
		Heap:  native.HeapUpload,
	})
	if err != nil {
		return d.backendErr("create_staging_buffer", err)
	}
	defer staging.Destroy()

	mem, err := d.native.Map(staging)
	if err != nil {
		return d.backendErr("map_staging_buffer", err)
	}
	copy(mem, data[dataOffset:dataOffset+size])
	d.native.Unmap(staging)

	if !d.opts.uploadCopy {
		d.log().Debug("webgpunative: write buffer staged without GPU copy",
			"label", buf.label, "offset", bufferOffset, "size", size)
		return nil
	}
	d.log().Debug("webgpunative: write buffer", "label", buf.label, "offset", bufferOffset, "size", size)
	return d.runOneShot(func(l native.CommandList) {
		l.CopyBufferToBuffer(dst, bufferOffset, staging, 0, size)
	})
}

// Release destroys the native queue. Device.Release calls it.
func (q *Queue) Release() {
	q.h.Release()
}

// Move transfers the queue to the returned value and empties q.
func (q *Queue) Move() *Queue {
	m := &Queue{dev: q.dev, h: q.h.Move(), onSubmitted: q.onSubmitted, waiters: q.waiters}
	q.onSubmitted, q.waiters = nil, nil
	if q.dev != nil && q.dev.queue == q {
		q.dev.queue = m
	}
	return m
}
