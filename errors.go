package webgpunative

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/webgpunative/internal/native"
)

var (
	// ErrNotInitialized is returned when an object is used before its
	// Initialize call succeeded, or after it was released or moved.
	ErrNotInitialized = errors.New("webgpunative: object not initialized")

	// ErrNoAdapter is returned when no adapter satisfies the selection policy.
	ErrNoAdapter = errors.New("webgpunative: no suitable adapter")

	// ErrBackendNotAvailable is returned when the requested backend is not
	// linked into the binary.
	ErrBackendNotAvailable = native.ErrBackendNotAvailable

	// ErrUsageViolation matches every *UsageError.
	ErrUsageViolation = errors.New("webgpunative: usage violation")

	// ErrResourceNotFound matches every *ResourceNotFoundError.
	ErrResourceNotFound = errors.New("webgpunative: resource not found")
)

// BackendError reports a failed native call.
//
// Op is the operation in snake case, for example "create_command_queue".
// Message is the native diagnostic text.
type BackendError struct {
	Backend string
	Op      string
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	var b strings.Builder
	b.WriteString("webgpunative")
	if e.Backend != "" {
		fmt.Fprintf(&b, " [%s]", e.Backend)
	}
	b.WriteString(": unable to ")
	b.WriteString(strings.ReplaceAll(e.Op, "_", " "))
	if e.Message != "" {
		b.WriteString(", ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *BackendError) Unwrap() error { return e.Err }

// ResourceNotFoundError reports a reference to something that does not
// exist, such as a shader entry point absent from its module.
type ResourceNotFoundError struct {
	Kind    string
	Name    string
	Message string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("webgpunative: %s: no %s named %q", e.Message, e.Kind, e.Name)
}

// Is reports whether target is ErrResourceNotFound.
func (e *ResourceNotFoundError) Is(target error) bool { return target == ErrResourceNotFound }

// UsageError reports an operation on an object in the wrong state.
type UsageError struct {
	Op     string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("webgpunative: %s: %s", e.Op, e.Reason)
}

// Is reports whether target is ErrUsageViolation.
func (e *UsageError) Is(target error) bool { return target == ErrUsageViolation }

func usageErr(op, format string, args ...any) error {
	return &UsageError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
