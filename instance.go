package webgpunative

import (
	"log/slog"

	"github.com/gogpu/webgpunative/internal/handle"
	"github.com/gogpu/webgpunative/internal/native"
)

// Instance is the process-wide backend factory.
type Instance struct {
	opts    options
	backend string
	h       handle.Owned[native.Instance]
}

// NewInstance returns an uninitialized Instance.
func NewInstance(opts ...Option) *Instance {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Instance{opts: o}
}

// Initialize resolves the backend and opens its factory.
//
// The backend is the one named by WithBackend. Otherwise registered
// backends are tried in priority order (dx12, metal, vulkan, soft) and the
// first whose factory opens is used; a backend that fails is logged at Warn
// and skipped. If none opens, the last failure is returned.
func (i *Instance) Initialize() error {
	if i.h.Valid() {
		return usageErr("Instance.Initialize", "already initialized")
	}
	if i.opts.backend != "" {
		b, err := native.Get(i.opts.backend)
		if err != nil {
			return err
		}
		return i.open(b)
	}

	candidates := native.Candidates()
	if len(candidates) == 0 {
		return native.ErrBackendNotAvailable
	}
	var err error
	for _, b := range candidates {
		if err = i.open(b); err == nil {
			return nil
		}
		i.log().Warn("webgpunative: backend unavailable, trying next", "backend", b.Name(), "error", err)
	}
	return err
}

func (i *Instance) open(b native.Backend) error {
	ni, err := b.CreateInstance(&native.InstanceDescriptor{Debug: i.opts.debug})
	if err != nil {
		return &BackendError{Backend: b.Name(), Op: "create_factory", Message: err.Error(), Err: err}
	}
	i.backend = b.Name()
	i.h = handle.New(ni, native.Instance.Destroy)
	i.log().Debug("webgpunative: instance initialized", "backend", i.backend)
	return nil
}

// Backend returns the registry name of the backend, or "" before
// Initialize.
func (i *Instance) Backend() string { return i.backend }

// NewAdapter returns an uninitialized Adapter bound to this instance.
func (i *Instance) NewAdapter() *Adapter {
	return &Adapter{inst: i}
}

// RequestAdapter creates and initializes an Adapter.
func (i *Instance) RequestAdapter() (*Adapter, error) {
	a := i.NewAdapter()
	if err := a.Initialize(); err != nil {
		return nil, err
	}
	return a, nil
}

// Release destroys the backend factory. Adapters and devices created from
// the instance must be released first.
func (i *Instance) Release() {
	i.h.Release()
}

func (i *Instance) log() *slog.Logger { return i.opts.log() }
