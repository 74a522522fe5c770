//go:build !nogpu

package halnative

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/webgpunative/internal/native"
	"github.com/gogpu/webgpunative/internal/shader"
)

// Backend exposes one hal backend variant under a registry name.
type Backend struct {
	name    string
	variant gputypes.Backend
}

// New returns a backend for the hal variant registered as name.
func New(name string, variant gputypes.Backend) *Backend {
	return &Backend{name: name, variant: variant}
}

// Name returns the registry name.
func (b *Backend) Name() string { return b.name }

// CreateInstance opens the hal instance. It fails with
// native.ErrBackendNotAvailable when the variant is not linked in.
func (b *Backend) CreateInstance(desc *native.InstanceDescriptor) (native.Instance, error) {
	hb, ok := hal.GetBackend(b.variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s", native.ErrBackendNotAvailable, b.name)
	}
	flags := gputypes.InstanceFlagsNone
	if desc != nil && desc.Debug {
		flags = gputypes.InstanceFlagsDebug | gputypes.InstanceFlagsValidation
	}
	inst, err := hb.CreateInstance(&hal.InstanceDescriptor{
		Backends: gputypes.Backends(1) << b.variant,
		Flags:    flags,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: create instance: %w", b.name, err)
	}
	return &instance{backend: b, inst: inst}, nil
}

// target is the shader dialect hal consumes for this variant.
func (b *Backend) target() shader.Target {
	switch b.variant {
	case gputypes.BackendVulkan:
		return shader.TargetSPIRV
	case gputypes.BackendDX12:
		return shader.TargetHLSL
	case gputypes.BackendMetal:
		return shader.TargetMSL
	default:
		return shader.TargetWGSL
	}
}

type instance struct {
	backend *Backend
	inst    hal.Instance
}

func (i *instance) EnumerateAdapters() []native.Adapter {
	exposed := i.inst.EnumerateAdapters(nil)
	out := make([]native.Adapter, 0, len(exposed))
	for _, ea := range exposed {
		out = append(out, &adapter{backend: i.backend, exposed: ea})
	}
	return out
}

func (i *instance) Destroy() { i.inst.Destroy() }

type adapter struct {
	backend *Backend
	exposed hal.ExposedAdapter
}

func (a *adapter) Info() native.AdapterInfo {
	info := a.exposed.Info
	return native.AdapterInfo{
		Name:       info.Name,
		Vendor:     info.Vendor,
		VendorID:   info.VendorID,
		DeviceID:   info.DeviceID,
		Driver:     info.Driver,
		Backend:    a.backend.name,
		Software:   info.DeviceType == gputypes.DeviceTypeCPU,
		DeviceType: info.DeviceType,
	}
}

func (a *adapter) CreateDevice() (native.Device, error) {
	limits := a.exposed.Capabilities.Limits
	open, err := a.exposed.Adapter.Open(0, limits)
	if err != nil {
		return nil, fmt.Errorf("%s: open %q: %w", a.backend.name, a.exposed.Info.Name, err)
	}
	return &device{
		info:   a.Info(),
		target: a.backend.target(),
		dev:    open.Device,
		queue:  &queue{raw: open.Queue, dev: open.Device},
	}, nil
}
