package native

import (
	"errors"
	"slices"
	"testing"
)

type stubBackend struct{ name string }

func (b stubBackend) Name() string { return b.name }
func (b stubBackend) CreateInstance(*InstanceDescriptor) (Instance, error) {
	return nil, ErrNotSupported
}

// withCleanRegistry swaps the registry for the duration of a test.
func withCleanRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := backends
	backends = make(map[string]Backend)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		backends = saved
		registryMu.Unlock()
	})
}

func TestRegisterGet(t *testing.T) {
	withCleanRegistry(t)

	if _, err := Get("stub"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Fatalf("Get(unregistered) err = %v, want ErrBackendNotAvailable", err)
	}

	Register(stubBackend{name: "stub"})
	b, err := Get("stub")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if b.Name() != "stub" {
		t.Errorf("Name() = %q, want stub", b.Name())
	}

	Unregister("stub")
	if got := Available(); len(got) != 0 {
		t.Errorf("Available() after Unregister = %v, want empty", got)
	}
}

func TestDefaultPriority(t *testing.T) {
	withCleanRegistry(t)

	first := func() string {
		c := Candidates()
		if len(c) == 0 {
			return ""
		}
		return c[0].Name()
	}
	if got := first(); got != "" {
		t.Fatalf("first candidate on empty registry = %q", got)
	}

	Register(stubBackend{name: "zzz"})
	if got := first(); got != "zzz" {
		t.Errorf("first candidate = %q, want zzz (only backend)", got)
	}

	Register(stubBackend{name: BackendSoft})
	if got := first(); got != BackendSoft {
		t.Errorf("first candidate = %q, want %q", got, BackendSoft)
	}

	Register(stubBackend{name: BackendVulkan})
	if got := first(); got != BackendVulkan {
		t.Errorf("first candidate = %q, want %q", got, BackendVulkan)
	}

	want := []string{BackendSoft, BackendVulkan, "zzz"}
	if got := Available(); !slices.Equal(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

func TestCandidatesOrder(t *testing.T) {
	withCleanRegistry(t)
	if got := Candidates(); len(got) != 0 {
		t.Fatalf("Candidates() on empty registry = %v", got)
	}
	for _, name := range []string{"zzz", BackendSoft, "aaa", BackendMetal, BackendDX12} {
		Register(stubBackend{name: name})
	}
	var got []string
	for _, b := range Candidates() {
		got = append(got, b.Name())
	}
	want := []string{BackendDX12, BackendMetal, BackendSoft, "aaa", "zzz"}
	if !slices.Equal(got, want) {
		t.Errorf("Candidates() = %v, want %v", got, want)
	}
}
