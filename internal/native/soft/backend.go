package soft

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/native"
)

func init() {
	native.Register(New(Config{}))
}

// AdapterConfig describes one adapter exposed by a soft instance.
type AdapterConfig struct {
	Info native.AdapterInfo
	// OpenErr, when set, is returned by CreateDevice.
	OpenErr error
}

// Config configures a soft backend.
type Config struct {
	// Name is the registry name. Defaults to native.BackendSoft.
	Name string
	// Adapters lists the exposed adapters in enumeration order.
	// Defaults to a single software adapter.
	Adapters []AdapterConfig
	// InstanceErr, when set, is returned by CreateInstance.
	InstanceErr error
	// Workers is the number of rasterizer goroutines per device. Zero
	// means GOMAXPROCS; one rasterizes on the queue goroutine.
	Workers int
	// Faults maps a native method name ("CreateFence", "Signal", "Close")
	// to the error every call returns. CreateBuffer also checks
	// "CreateBuffer/<heap>", e.g. "CreateBuffer/upload".
	Faults map[string]error
}

// DefaultAdapterInfo describes the built-in reference adapter.
func DefaultAdapterInfo() native.AdapterInfo {
	return native.AdapterInfo{
		Name:       "Reference Rasterizer",
		Vendor:     "gogpu",
		Driver:     "soft",
		Backend:    native.BackendSoft,
		Software:   true,
		DeviceType: gputypes.DeviceTypeCPU,
	}
}

// Backend is the soft native backend.
type Backend struct {
	cfg Config
}

// New returns a soft backend.
func New(cfg Config) *Backend {
	if cfg.Name == "" {
		cfg.Name = native.BackendSoft
	}
	if len(cfg.Adapters) == 0 {
		cfg.Adapters = []AdapterConfig{{Info: DefaultAdapterInfo()}}
	}
	return &Backend{cfg: cfg}
}

// Name returns the registry name.
func (b *Backend) Name() string { return b.cfg.Name }

// CreateInstance opens a soft instance.
func (b *Backend) CreateInstance(desc *native.InstanceDescriptor) (native.Instance, error) {
	if b.cfg.InstanceErr != nil {
		return nil, b.cfg.InstanceErr
	}
	debug := desc != nil && desc.Debug
	inst := &instance{}
	for _, ac := range b.cfg.Adapters {
		info := ac.Info
		if info.Backend == "" {
			info.Backend = b.cfg.Name
		}
		inst.adapters = append(inst.adapters, &adapter{
			info:    info,
			openErr: ac.OpenErr,
			debug:   debug,
			workers: b.cfg.Workers,
			faults:  b.cfg.Faults,
		})
	}
	return inst, nil
}

type instance struct {
	adapters []*adapter
}

func (i *instance) EnumerateAdapters() []native.Adapter {
	out := make([]native.Adapter, len(i.adapters))
	for k, a := range i.adapters {
		out[k] = a
	}
	return out
}

func (i *instance) Destroy() {}

type adapter struct {
	info    native.AdapterInfo
	openErr error
	debug   bool
	workers int
	faults  map[string]error
}

func (a *adapter) Info() native.AdapterInfo { return a.info }

func (a *adapter) CreateDevice() (native.Device, error) {
	if a.openErr != nil {
		return nil, fmt.Errorf("soft: open %q: %w", a.info.Name, a.openErr)
	}
	return newDevice(a.info, a.debug, a.workers, a.faults), nil
}
