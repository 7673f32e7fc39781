//go:build windows

package com

import (
	ole "github.com/go-ole/go-ole"
)

const hrSFalse = 0x00000001 // S_FALSE: runtime already initialized on this thread

// OSRuntime drives the real COM runtime. One value can serve many workers;
// the per-thread state lives in the platform, not here.
type OSRuntime struct{}

func (OSRuntime) Initialize() error {
	err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
	if err == nil {
		return nil
	}
	if oleErr, ok := err.(*ole.OleError); ok {
		if uint32(oleErr.Code()) == hrSFalse {
			// S_FALSE still incremented the thread's init count; Acquire
			// balances it through Uninitialize
			return NewHResultError(KindAlreadyInitialized, hrSFalse, "thread already holds a runtime context")
		}
		return NewHResultError(KindRuntimeInitFailed, uint32(oleErr.Code()), "CoInitializeEx failed")
	}
	return NewError(KindRuntimeInitFailed, "CoInitializeEx failed: %v", err)
}

func (OSRuntime) Uninitialize() {
	ole.CoUninitialize()
}
