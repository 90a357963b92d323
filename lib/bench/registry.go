// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package bench

// Registry is an ordered collection of registration callbacks. Each
// callback is expected to register measurement work with a [Runner],
// not to execute it. Callbacks run on the draining goroutine with no
// isolation between them: state one callback leaves behind is visible
// to the next.
type Registry struct {
	callbacks []func()
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a callback. Order of registration is the order of
// invocation at drain time.
func (r *Registry) Register(callback func()) {
	r.callbacks = append(r.callbacks, callback)
}

// Len reports the number of registered callbacks.
func (r *Registry) Len() int {
	return len(r.callbacks)
}

// Drain invokes every callback in registration order, exactly once
// per call. The registry is not cleared: a second Drain repeats every
// callback's side effects.
func (r *Registry) Drain() {
	for _, callback := range r.callbacks {
		callback()
	}
}
