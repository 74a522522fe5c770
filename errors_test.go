package webgpunative

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/webgpunative/internal/native/soft"
)

func TestErrorMessages(t *testing.T) {
	cause := errors.New("E_OUTOFMEMORY")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"backend error",
			&BackendError{Backend: "dx12", Op: "create_command_queue", Message: "E_OUTOFMEMORY", Err: cause},
			"webgpunative [dx12]: unable to create command queue, E_OUTOFMEMORY",
		},
		{
			"backend error without backend or message",
			&BackendError{Op: "wait_fence"},
			"webgpunative: unable to wait fence",
		},
		{
			"resource not found",
			&ResourceNotFoundError{Kind: "vertex shader", Name: "vs_main", Message: "unable to set vertex shader"},
			`webgpunative: unable to set vertex shader: no vertex shader named "vs_main"`,
		},
		{
			"usage",
			usageErr("Queue.Submit", "command buffer %d already submitted", 2),
			"webgpunative: Queue.Submit: command buffer 2 already submitted",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMatching(t *testing.T) {
	cause := errors.New("device removed")
	wrapped := fmt.Errorf("draw: %w", &BackendError{Backend: "soft", Op: "execute_command_lists", Err: cause})

	var be *BackendError
	if !errors.As(wrapped, &be) || be.Op != "execute_command_lists" {
		t.Errorf("errors.As BackendError failed: %v", wrapped)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("BackendError does not unwrap to its cause")
	}
	if errors.Is(wrapped, ErrUsageViolation) || errors.Is(wrapped, ErrResourceNotFound) {
		t.Error("BackendError matches an unrelated sentinel")
	}

	usage := fmt.Errorf("wrap: %w", usageErr("op", "reason"))
	if !errors.Is(usage, ErrUsageViolation) {
		t.Error("UsageError does not match ErrUsageViolation")
	}
	var ue *UsageError
	if !errors.As(usage, &ue) || ue.Op != "op" || ue.Reason != "reason" {
		t.Errorf("errors.As UsageError = %+v", ue)
	}

	rnf := error(&ResourceNotFoundError{Kind: "fragment shader", Name: "fs"})
	if !errors.Is(rnf, ErrResourceNotFound) || errors.Is(rnf, ErrUsageViolation) {
		t.Error("ResourceNotFoundError sentinel matching is wrong")
	}
}

// openFaulty opens a device on a soft backend whose native calls fail as
// faults describes. It logs through logs at debug level with the debug
// layer on.
func openFaulty(t *testing.T, faults map[string]error, logs *bytes.Buffer) (*Device, error) {
	t.Helper()
	registerSoft(t, soft.Config{Name: "faulty", Faults: faults})
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	inst := NewInstance(WithBackend("faulty"), WithDebug(true), WithLogger(logger))
	if err := inst.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(inst.Release)
	adapter, err := inst.RequestAdapter()
	if err != nil {
		t.Fatalf("RequestAdapter: %v", err)
	}
	t.Cleanup(adapter.Release)
	dev, err := adapter.RequestDevice()
	if err != nil {
		return nil, err
	}
	t.Cleanup(dev.Release)
	return dev, nil
}

func TestBackendFailures(t *testing.T) {
	errNative := errors.New("E_FAIL")
	submit := func(t *testing.T, dev *Device) error {
		return dev.Queue().Submit(emptyCommandBuffer(t, dev))
	}
	writeBuffer := func(t *testing.T, dev *Device) error {
		buf, err := dev.CreateBuffer(&BufferDescriptor{Size: 16})
		if err != nil {
			t.Fatal(err)
		}
		defer buf.Release()
		return dev.Queue().WriteBuffer(buf, 0, make([]byte, 16), 0, 16)
	}

	tests := []struct {
		name    string
		fault   string
		op      string
		run     func(t *testing.T, dev *Device) error
		wantLog string
	}{
		{name: "queue", fault: "CreateCommandQueue", op: "create_command_queue"},
		{name: "allocator", fault: "CreateCommandAllocator", op: "create_command_allocator"},
		{name: "submit fence", fault: "CreateFence", op: "create_fence", run: submit},
		{name: "submit signal", fault: "Signal", op: "signal_fence", run: submit},
		{name: "submit execute", fault: "Execute", op: "execute_command_lists", run: submit},
		{name: "staging buffer", fault: "CreateBuffer/upload", op: "create_staging_buffer", run: writeBuffer},
		{name: "staging map", fault: "Map", op: "map_staging_buffer", run: writeBuffer},
		{
			name:  "encoder",
			fault: "CreateCommandList",
			op:    "create_command_list",
			run: func(t *testing.T, dev *Device) error {
				_, err := dev.CreateCommandEncoder(nil)
				return err
			},
		},
		{
			name:  "finish",
			fault: "Close",
			op:    "close_command_list",
			run: func(t *testing.T, dev *Device) error {
				enc, err := dev.CreateCommandEncoder(nil)
				if err != nil {
					t.Fatal(err)
				}
				defer enc.Release()
				_, err = enc.Finish()
				return err
			},
			wantLog: "Close: soft: Close: E_FAIL",
		},
		{
			name:  "pipeline",
			fault: "CreatePipeline",
			op:    "create_pipeline_state",
			run: func(t *testing.T, dev *Device) error {
				m := createTriangleModule(t, dev)
				_, err := dev.CreateRenderPipeline(&RenderPipelineDescriptor{
					Vertex:   VertexState{Module: m, EntryPoint: "vertex_main"},
					Fragment: &FragmentState{Module: m, EntryPoint: "fragment_main"},
				})
				return err
			},
			wantLog: "CreateGraphicsPipelineState",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			dev, err := openFaulty(t, map[string]error{tt.fault: errNative}, &logs)
			calls := 0
			if tt.run != nil {
				if err != nil {
					t.Fatalf("RequestDevice: %v", err)
				}
				dev.Queue().OnSubmitted(func() { calls++ })
				err = tt.run(t, dev)
			}

			var be *BackendError
			if !errors.As(err, &be) {
				t.Fatalf("err = %v, want *BackendError", err)
			}
			if be.Op != tt.op || be.Backend != "faulty" {
				t.Errorf("got op %q backend %q, want %q faulty", be.Op, be.Backend, tt.op)
			}
			if !errors.Is(err, errNative) {
				t.Errorf("err = %v does not unwrap to the native error", err)
			}
			if calls != 0 {
				t.Errorf("OnSubmitted ran %d times on a failed call", calls)
			}
			if tt.wantLog != "" && !strings.Contains(logs.String(), tt.wantLog) {
				t.Errorf("log lacks %q:\n%s", tt.wantLog, logs.String())
			}
		})
	}
}
