//go:build !windows

package typelib

import "errors"

// ErrPlatform is returned by the source constructors off Windows. The CLI
// turns it into a nonzero exit before any inspection starts.
var ErrPlatform = errors.New("component inspection requires Windows")

func NewRegistrySource() (Source, error) { return nil, ErrPlatform }

func NewInstanceSource() (Source, error) { return nil, ErrPlatform }
