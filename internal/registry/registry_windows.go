//go:build windows

package registry

import (
	winreg "golang.org/x/sys/windows/registry"
)

// OSReader reads the live HKEY_CLASSES_ROOT hive.
type OSReader struct{}

func NewOSReader() (Reader, error) {
	return OSReader{}, nil
}

func (OSReader) ClassesRoot() (Key, error) {
	// predefined root handles need no open call and tolerate Close
	return osKey{winreg.CLASSES_ROOT}, nil
}

type osKey struct {
	key winreg.Key
}

func (k osKey) OpenSubKey(name string) (Key, error) {
	sub, err := winreg.OpenKey(k.key, name, winreg.READ)
	if err != nil {
		return nil, err
	}
	return osKey{sub}, nil
}

func (k osKey) SubKeyNames() ([]string, error) {
	return k.key.ReadSubKeyNames(-1)
}

func (k osKey) Value(name string) (string, error) {
	value, _, err := k.key.GetStringValue(name)
	return value, err
}

func (k osKey) Close() {
	k.key.Close()
}
