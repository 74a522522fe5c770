// Package handle provides move-only ownership of native backend objects.
//
// Every public resource in webgpunative wraps exactly one native object
// (device, queue, command list, buffer, texture, view, pipeline, shader blob).
// Owned ties that object to a release function that runs at most once, and
// Move transfers the object to a new owner while leaving the source empty,
// so two owners can never both release the same native resource.
package handle

// Owned holds a single native object of type T together with the function
// that releases it.
//
// The zero value is an empty handle. Owned must not be copied after first
// use; use Move to transfer ownership.
type Owned[T any] struct {
	value   T
	release func(T)
	valid   bool
}

// New wraps v. release may be nil for objects that need no explicit cleanup.
func New[T any](v T, release func(T)) Owned[T] {
	return Owned[T]{value: v, release: release, valid: true}
}

// Get returns the held object and whether the handle is valid.
func (o *Owned[T]) Get() (T, bool) {
	return o.value, o.valid
}

// Value returns the held object, or the zero T for an empty handle.
func (o *Owned[T]) Value() T {
	return o.value
}

// Valid reports whether the handle still owns an object.
func (o *Owned[T]) Valid() bool {
	return o.valid
}

// Move transfers ownership to the returned handle. The receiver becomes
// empty and its Release turns into a no-op.
func (o *Owned[T]) Move() Owned[T] {
	moved := *o
	*o = Owned[T]{}
	return moved
}

// Release frees the held object. Subsequent calls do nothing.
func (o *Owned[T]) Release() {
	if !o.valid {
		return
	}
	v, fn := o.value, o.release
	*o = Owned[T]{}
	if fn != nil {
		fn(v)
	}
}
