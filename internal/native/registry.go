package native

import (
	"errors"
	"slices"
	"sort"
	"sync"
)

// ErrBackendNotAvailable is returned when a requested backend is not registered.
var ErrBackendNotAvailable = errors.New("native: backend not available")

// Backend names.
const (
	BackendDX12   = "dx12"
	BackendMetal  = "metal"
	BackendVulkan = "vulkan"
	BackendSoft   = "soft"
)

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Backend)
	// Priority order for default selection.
	// Platform APIs first, the reference rasterizer last.
	backendPriority = []string{BackendDX12, BackendMetal, BackendVulkan, BackendSoft}
)

// Register registers a backend under its Name.
// This is typically called from init() functions in backend packages.
// A backend registered under an existing name replaces it.
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[b.Name()] = b
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the backend registered under name.
func Get(name string) (Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	b, ok := backends[name]
	if !ok {
		return nil, ErrBackendNotAvailable
	}
	return b, nil
}

// Candidates returns the registered backends in selection order: the
// priority list first, then any others sorted by name.
func Candidates() []Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Backend, 0, len(backends))
	for _, name := range backendPriority {
		if b, ok := backends[name]; ok {
			out = append(out, b)
		}
	}
	var rest []string
	for name := range backends {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, backends[name])
	}
	return out
}
