package com

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the inspector can capture. Per-component
// kinds end up as data inside InspectionResult; only process-level problems
// (registry root unreadable, pool misconfigured) abort a command.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindRegistryAccessDenied
	KindMalformedRegistryEntry
	KindRuntimeInitFailed
	KindAlreadyInitialized
	KindNoTypeLibrary
	KindInstantiationFailed
	KindNoDispatchInterface
	KindMalformedDescriptor
)

func (k ErrorKind) String() string {
	switch k {
	case KindRegistryAccessDenied:
		return "RegistryAccessDenied"
	case KindMalformedRegistryEntry:
		return "MalformedRegistryEntry"
	case KindRuntimeInitFailed:
		return "RuntimeInitFailed"
	case KindAlreadyInitialized:
		return "AlreadyInitialized"
	case KindNoTypeLibrary:
		return "NoTypeLibrary"
	case KindInstantiationFailed:
		return "InstantiationFailed"
	case KindNoDispatchInterface:
		return "NoDispatchInterface"
	case KindMalformedDescriptor:
		return "MalformedDescriptor"
	default:
		return "Unknown"
	}
}

// InspectError carries a kind, a message, and the native result code when
// the platform reported one (0 otherwise).
type InspectError struct {
	Kind    ErrorKind
	Msg     string
	HResult uint32
}

func (e *InspectError) Error() string {
	if e.HResult != 0 {
		return fmt.Sprintf("%s: %s (hresult 0x%08X)", e.Kind, e.Msg, e.HResult)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func NewError(kind ErrorKind, format string, args ...any) *InspectError {
	return &InspectError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func NewHResultError(kind ErrorKind, hresult uint32, format string, args ...any) *InspectError {
	return &InspectError{Kind: kind, Msg: fmt.Sprintf(format, args...), HResult: hresult}
}

// KindOf extracts the ErrorKind from an error chain, KindUnknown if none.
func KindOf(err error) ErrorKind {
	var ie *InspectError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindUnknown
}

// AsInspectError returns the InspectError in err's chain, wrapping foreign
// errors as KindUnknown so results always carry a classified failure.
func AsInspectError(err error) *InspectError {
	if err == nil {
		return nil
	}
	var ie *InspectError
	if errors.As(err, &ie) {
		return ie
	}
	return &InspectError{Kind: KindUnknown, Msg: err.Error()}
}
