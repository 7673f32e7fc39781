//go:build !windows

package registry

import "errors"

// ErrPlatform is returned off Windows, where there is no component registry
// to read. Commands report it and exit nonzero.
var ErrPlatform = errors.New("component registry requires Windows")

func NewOSReader() (Reader, error) { return nil, ErrPlatform }
