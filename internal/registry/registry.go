// Package registry enumerates the OS component registry for registered
// object-model classes. The actual key store is abstracted behind Reader and
// Key so the scan logic runs against an in-memory fake in tests; the
// Windows-backed implementation lives in registry_windows.go.
package registry

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mberetvas/comspect/internal/com"
)

// Key is a read-only view of one registry key.
type Key interface {
	// OpenSubKey opens a named child key.
	OpenSubKey(name string) (Key, error)
	// SubKeyNames lists the child key names.
	SubKeyNames() ([]string, error)
	// Value reads a named string value; "" names the default value.
	Value(name string) (string, error)
	Close()
}

// Reader is the source of the classes root.
type Reader interface {
	ClassesRoot() (Key, error)
}

// Index scans the registry for component registrations.
type Index struct {
	Reader Reader
	Log    *log.Logger
}

func NewIndex(reader Reader) *Index {
	return &Index{Reader: reader, Log: log.Default()}
}

/*
* Scan iterates the classes root, keeping entries that carry a CLSID child
* key. Per entry:
*
*	<ProgID>            key name is the program identifier
*	  (default)         free-text description, may be absent
*	  CLSID\(default)   braced class id text
*
* Entries with a missing or malformed class id are skipped with a logged
* note and never abort the scan. Identities are deduplicated by class id:
* the first ProgID seen wins, later aliases are dropped. Re-invoking Scan
* re-reads current registry state; ordering is enumeration order.
 */
func (ix *Index) Scan() ([]com.ComponentIdentity, error) {
	root, err := ix.Reader.ClassesRoot()
	if err != nil {
		return nil, com.NewError(com.KindRegistryAccessDenied, "open classes root: %v", err)
	}
	defer root.Close()

	names, err := root.SubKeyNames()
	if err != nil {
		return nil, com.NewError(com.KindRegistryAccessDenied, "enumerate classes root: %v", err)
	}

	var identities []com.ComponentIdentity
	seen := make(map[string]bool)

	for _, name := range names {
		identity, ok := ix.readEntry(root, name)
		if !ok {
			continue
		}
		key := strings.ToLower(identity.ClassID.String())
		if seen[key] {
			ix.Log.Debug("duplicate class id, keeping first ProgID", "progid", name, "classid", identity.ClassID)
			continue
		}
		seen[key] = true
		identities = append(identities, identity)
	}

	return identities, nil
}

func (ix *Index) readEntry(root Key, name string) (com.ComponentIdentity, bool) {
	progKey, err := root.OpenSubKey(name)
	if err != nil {
		return com.ComponentIdentity{}, false
	}
	defer progKey.Close()

	clsidKey, err := progKey.OpenSubKey("CLSID")
	if err != nil {
		// not a component registration, just a file-type or interface key
		return com.ComponentIdentity{}, false
	}
	defer clsidKey.Close()

	clsidText, err := clsidKey.Value("")
	if err != nil || clsidText == "" {
		ix.Log.Debug("skipping entry without class id value", "progid", name)
		return com.ComponentIdentity{}, false
	}

	classID, err := com.ParseClassID(clsidText)
	if err != nil {
		ix.Log.Debug("skipping malformed class id", "progid", name, "value", clsidText)
		return com.ComponentIdentity{}, false
	}

	// description is best-effort, absent is fine
	description, _ := progKey.Value("")

	return com.ComponentIdentity{
		ClassID:     classID,
		ProgID:      name,
		Description: description,
	}, true
}
