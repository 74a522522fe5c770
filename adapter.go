package webgpunative

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/webgpunative/internal/handle"
	"github.com/gogpu/webgpunative/internal/native"
)

// AdapterInfo describes the selected physical adapter.
type AdapterInfo struct {
	Name     string
	Vendor   string
	VendorID uint32
	DeviceID uint32
	Driver   string
	// Backend is the registry name of the backend that exposed the adapter.
	Backend string
	// Software is set for CPU rasterizers.
	Software   bool
	DeviceType gputypes.DeviceType
}

func adapterInfoFrom(ni native.AdapterInfo) AdapterInfo {
	return AdapterInfo{
		Name:       ni.Name,
		Vendor:     ni.Vendor,
		VendorID:   ni.VendorID,
		DeviceID:   ni.DeviceID,
		Driver:     ni.Driver,
		Backend:    ni.Backend,
		Software:   ni.Software,
		DeviceType: ni.DeviceType,
	}
}

// contextInfo converts to the gpucontext adapter description.
func (ai AdapterInfo) contextInfo() gpucontext.AdapterInfo {
	t := gpucontext.AdapterTypeUnknown
	switch {
	case ai.Software:
		t = gpucontext.AdapterTypeSoftware
	case ai.DeviceType == gputypes.DeviceTypeDiscreteGPU:
		t = gpucontext.AdapterTypeDiscrete
	case ai.DeviceType == gputypes.DeviceTypeIntegratedGPU:
		t = gpucontext.AdapterTypeIntegrated
	}
	return gpucontext.AdapterInfo{Name: ai.Name, Type: t}
}

// Adapter is one selected physical GPU.
type Adapter struct {
	inst *Instance
	info AdapterInfo
	h    handle.Owned[native.Device]
}

// Initialize selects an adapter and opens it.
//
// Software adapters are skipped while hardware adapters remain. The first
// hardware adapter is opened; if that fails the error is returned and no
// other adapter is tried. When no hardware adapter exists the first
// software adapter is used, unless WithSoftwareFallback(false) was given.
//
// Initialize may only succeed once per Adapter.
func (a *Adapter) Initialize() error {
	if a.h.Valid() {
		return usageErr("Adapter.Initialize", "already initialized")
	}
	ni, ok := a.inst.h.Get()
	if !ok {
		return ErrNotInitialized
	}
	log := a.inst.log()

	var software native.Adapter
	for _, na := range ni.EnumerateAdapters() {
		info := na.Info()
		if info.Software {
			log.Debug("webgpunative: skipping software adapter", "name", info.Name)
			if software == nil {
				software = na
			}
			continue
		}
		return a.open(na)
	}

	if software == nil {
		return ErrNoAdapter
	}
	if !a.inst.opts.softwareFallback {
		log.Debug("webgpunative: software fallback disabled", "name", software.Info().Name)
		return ErrNoAdapter
	}
	log.Warn("webgpunative: no hardware adapter, using software adapter", "name", software.Info().Name)
	return a.open(software)
}

func (a *Adapter) open(na native.Adapter) error {
	info := na.Info()
	dev, err := na.CreateDevice()
	if err != nil {
		return &BackendError{Backend: info.Backend, Op: "create_device", Message: err.Error(), Err: err}
	}
	a.info = adapterInfoFrom(info)
	a.h = handle.New(dev, native.Device.Destroy)
	a.inst.log().Info("webgpunative: adapter selected",
		"name", info.Name, "backend", info.Backend, "software", info.Software)
	return nil
}

// Info describes the selected adapter. It is zero before Initialize.
func (a *Adapter) Info() AdapterInfo { return a.info }

// NewDevice returns an uninitialized Device on the adapter.
func (a *Adapter) NewDevice() (*Device, error) {
	nd, ok := a.h.Get()
	if !ok {
		return nil, ErrNotInitialized
	}
	return &Device{adapter: a, native: nd, opts: &a.inst.opts}, nil
}

// RequestDevice creates and initializes a Device.
func (a *Adapter) RequestDevice() (*Device, error) {
	d, err := a.NewDevice()
	if err != nil {
		return nil, err
	}
	if err := d.Initialize(); err != nil {
		return nil, err
	}
	return d, nil
}

// Release closes the physical device. Devices created from the adapter
// must be released first.
func (a *Adapter) Release() {
	a.h.Release()
}
