//go:build !windows

package com

// OSRuntime is a stub off Windows. Commands that need the real runtime fail
// before ever acquiring a context; tests inject their own RuntimeAPI.
type OSRuntime struct{}

func (OSRuntime) Initialize() error {
	return NewError(KindRuntimeInitFailed, "object-model runtime is only available on Windows")
}

func (OSRuntime) Uninitialize() {}
