package webgpunative

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/native"
)

func emptyCommandBuffer(t *testing.T, dev *Device) *CommandBuffer {
	t.Helper()
	enc, err := dev.CreateCommandEncoder(nil)
	if err != nil {
		t.Fatal(err)
	}
	cb, err := enc.Finish()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(cb.Release)
	return cb
}

func TestSubmitCallbacks(t *testing.T) {
	dev := createSoftDevice(t)
	q := dev.Queue()

	var first, second int
	q.OnSubmitted(func() { first++ })
	q.OnSubmitted(func() { second++ })
	done := q.OnSubmittedWorkDone()

	cb := emptyCommandBuffer(t, dev)
	if err := q.Submit(cb); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if first != 0 || second != 1 {
		t.Errorf("callbacks ran first=%d second=%d, want 0 and 1", first, second)
	}
	select {
	case <-done:
	default:
		t.Error("OnSubmittedWorkDone channel not closed after Submit")
	}

	if err := q.Submit(cb); !errors.Is(err, ErrUsageViolation) {
		t.Errorf("resubmit err = %v, want ErrUsageViolation", err)
	}
	if second != 1 {
		t.Errorf("callback ran on failed submit, count = %d", second)
	}

	q.OnSubmitted(nil)
	if err := q.Submit(emptyCommandBuffer(t, dev)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if second != 1 {
		t.Errorf("cleared callback still ran, count = %d", second)
	}
}

func TestSubmitRejectsInvalidBuffers(t *testing.T) {
	dev := createSoftDevice(t)
	q := dev.Queue()

	if err := q.Submit(nil); !errors.Is(err, ErrUsageViolation) {
		t.Errorf("nil buffer err = %v, want ErrUsageViolation", err)
	}
	cb := emptyCommandBuffer(t, dev)
	cb.Release()
	if err := q.Submit(cb); !errors.Is(err, ErrUsageViolation) {
		t.Errorf("released buffer err = %v, want ErrUsageViolation", err)
	}
	// An empty batch still waits for the queue.
	if err := q.Submit(); err != nil {
		t.Errorf("empty Submit: %v", err)
	}

	dup := emptyCommandBuffer(t, dev)
	if err := q.Submit(dup, dup); !errors.Is(err, ErrUsageViolation) {
		t.Errorf("duplicate in batch err = %v, want ErrUsageViolation", err)
	}
	if err := q.Submit(dup); err != nil {
		t.Errorf("Submit after rejected batch: %v", err)
	}
}

func TestWriteBufferValidation(t *testing.T) {
	dev := createSoftDevice(t)
	buf, err := dev.CreateBuffer(&BufferDescriptor{Size: 16})
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Release()
	data := make([]byte, 8)

	tests := []struct {
		name                  string
		bufOff, dataOff, size uint64
		wantErr               bool
	}{
		{"whole data", 0, 0, 8, false},
		{"tail of buffer", 8, 0, 8, false},
		{"zero size", 16, 8, 0, false},
		{"data overrun", 0, 4, 8, true},
		{"buffer overrun", 12, 0, 8, true},
		{"data offset past end", 0, 9, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dev.Queue().WriteBuffer(buf, tt.bufOff, data, tt.dataOff, tt.size)
			if tt.wantErr && !errors.Is(err, ErrUsageViolation) {
				t.Errorf("err = %v, want ErrUsageViolation", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected err: %v", err)
			}
		})
	}

	buf.Release()
	if err := dev.Queue().WriteBuffer(buf, 0, data, 0, 8); !errors.Is(err, ErrUsageViolation) {
		t.Errorf("released buffer err = %v, want ErrUsageViolation", err)
	}
}

func TestWriteBufferReachesBuffer(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	tests := []struct {
		name       string
		uploadCopy bool
		want       []byte
	}{
		{"staging only", false, make([]byte, 8)},
		{"upload copy", true, payload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := createSoftDevice(t, WithUploadCopy(tt.uploadCopy))
			dst, err := dev.CreateBuffer(&BufferDescriptor{
				Size:  8,
				Usage: gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc,
			})
			if err != nil {
				t.Fatal(err)
			}
			defer dst.Release()
			if err := dev.Queue().WriteBuffer(dst, 0, payload, 0, 8); err != nil {
				t.Fatal(err)
			}
			got := readBuffer(t, dev, dst)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("buffer = %v, want %v", got, tt.want)
			}
		})
	}
}

// readBuffer copies src into a MapRead buffer and returns its bytes.
func readBuffer(t *testing.T, dev *Device, src *Buffer) []byte {
	t.Helper()
	rb, err := dev.CreateBuffer(&BufferDescriptor{
		Size:  src.Size(),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(rb.Release)
	if err := dev.runOneShot(func(l native.CommandList) {
		l.CopyBufferToBuffer(rb.h.Value(), 0, src.h.Value(), 0, src.Size())
	}); err != nil {
		t.Fatal(err)
	}
	if err := rb.MapAsync(MapModeRead, 0, rb.Size()); err != nil {
		t.Fatal(err)
	}
	defer rb.Unmap()
	mem, err := rb.GetMappedRange(0, rb.Size())
	if err != nil {
		t.Fatal(err)
	}
	return bytes.Clone(mem)
}

func TestTriangle(t *testing.T) {
	const w, h = 16, 16
	ccwNoCull := &gputypes.PrimitiveState{
		Topology:  gputypes.PrimitiveTopologyTriangleList,
		FrontFace: gputypes.FrontFaceCCW,
		CullMode:  gputypes.CullModeNone,
	}
	tests := []struct {
		name       string
		uploadCopy bool
		prim       *gputypes.PrimitiveState
		wantBlue   bool
	}{
		// Without the upload copy the vertex buffer stays zeroed and
		// nothing is rasterized.
		{"staging only", false, ccwNoCull, true},
		{"upload copy", true, ccwNoCull, false},
		{"upload copy default culling", true, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := createSoftDevice(t, WithUploadCopy(tt.uploadCopy))
			m := drawTriangle(t, dev, w, h, tt.prim)

			if got := m.At(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
				t.Errorf("corner = %v, want clear color", got)
			}
			center := m.At(w/2, h/2)
			isBlue := center == (color.RGBA{0, 0, 255, 255})
			if isBlue != tt.wantBlue {
				t.Errorf("center = %v, want clear color: %v", center, tt.wantBlue)
			}
		})
	}
}
