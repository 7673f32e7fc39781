package com

// RuntimeAPI abstracts the underlying object-model runtime so the inspection
// pipeline can run against a fake in tests. The real implementation lives in
// runtime_windows.go.
type RuntimeAPI interface {
	// Initialize sets up the runtime for the calling OS thread in a
	// single-threaded apartment. Implementations report an
	// AlreadyInitialized kind when the thread already holds a live context;
	// the platform still counts that call, so the caller must balance it
	// with Uninitialize.
	Initialize() error
	// Uninitialize tears the runtime down on the same thread.
	Uninitialize()
}

// RuntimeContext is a scoped handle meaning "this thread has an initialized
// object-model runtime". It must be released on every exit path of the scope
// that acquired it, and it must never be used from another OS thread: callers
// pin the goroutine with runtime.LockOSThread before acquiring.
type RuntimeContext struct {
	api      RuntimeAPI
	released bool
}

// Acquire initializes the runtime for the calling thread and returns the
// scoped handle.
func Acquire(api RuntimeAPI) (*RuntimeContext, error) {
	if err := api.Initialize(); err != nil {
		if KindOf(err) == KindAlreadyInitialized {
			// the already-initialized report still incremented the
			// per-thread count; balance it before handing the error back
			api.Uninitialize()
			return nil, err
		}
		return nil, NewError(KindRuntimeInitFailed, "runtime init: %v", err)
	}
	return &RuntimeContext{api: api}, nil
}

// Release finalizes the runtime. The handle is consumed: further Release
// calls are no-ops, so a deferred Release is safe on every path.
func (c *RuntimeContext) Release() {
	if c == nil || c.released {
		return
	}
	c.released = true
	c.api.Uninitialize()
}
