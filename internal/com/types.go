package com

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ComponentIdentity is a registered component as found in the registry:
// the CLSID, the human-assigned ProgID, and the optional description.
// Immutable once read from the registry.
type ComponentIdentity struct {
	ClassID     uuid.UUID
	ProgID      string
	Description string
}

// BracedClassID returns the registry text form, e.g.
// "{00024500-0000-0000-C000-000000000046}".
func (c ComponentIdentity) BracedClassID() string {
	return "{" + strings.ToUpper(c.ClassID.String()) + "}"
}

// Prefix returns the ProgID segment before the first dot, used for
// grouping in the catalog ("Excel.Application" -> "Excel").
func (c ComponentIdentity) Prefix() string {
	prefix, _, found := strings.Cut(c.ProgID, ".")
	if !found || prefix == "" {
		return "Misc"
	}
	return prefix
}

// ParseClassID parses a class id in either canonical or braced registry form.
func ParseClassID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid class id %q: %w", s, err)
	}
	return id, nil
}

type MemberKind int

const (
	MemberMethod MemberKind = iota
	MemberProperty
	// MemberUnknown marks a member whose raw descriptor could not be
	// decoded. The rest of the surface is still usable.
	MemberUnknown
)

func (k MemberKind) String() string {
	switch k {
	case MemberMethod:
		return "method"
	case MemberProperty:
		return "property"
	default:
		return "unknown"
	}
}

// AccessMode applies to properties only, derived from the get/put/putref
// accessor flags on the raw descriptor.
type AccessMode int

const (
	AccessNone AccessMode = iota
	AccessRead
	AccessWrite
	AccessReadWrite
)

func (a AccessMode) String() string {
	switch a {
	case AccessRead:
		return "read-only"
	case AccessWrite:
		return "write-only"
	case AccessReadWrite:
		return "read-write"
	default:
		return "none"
	}
}

// Badge is the short form shown next to properties in listings.
func (a AccessMode) Badge() string {
	switch a {
	case AccessRead:
		return "R"
	case AccessWrite:
		return "W"
	case AccessReadWrite:
		return "RW"
	default:
		return "?"
	}
}

// Param is one parameter of a method or property accessor. Type is the
// canonical semantic type name ("Long", "String", "Dispatchable", ...).
type Param struct {
	Name     string
	Type     string
	Optional bool
	ByRef    bool
}

// MemberDescriptor is one decoded member of a component's callable surface.
// Kind selects which fields are meaningful: methods carry Params and Return,
// properties carry Type and Access, unknown members carry only Name.
type MemberDescriptor struct {
	Kind   MemberKind
	Name   string
	Params []Param
	Return string
	Type   string
	Access AccessMode
}

// InterfaceDescription is the decoded callable surface of one component.
// Produced once per inspection, immutable after construction.
type InterfaceDescription struct {
	Name    string
	ClassID uuid.UUID
	Members []MemberDescriptor
}

// ResolutionPath records how an interface description was obtained.
type ResolutionPath int

const (
	PathFailed ResolutionPath = iota
	PathStatic
	PathDynamic
)

func (p ResolutionPath) String() string {
	switch p {
	case PathStatic:
		return "static"
	case PathDynamic:
		return "dynamic"
	default:
		return "failed"
	}
}

// InspectionResult is the outcome for one identity: either a surface plus
// the path that produced it, or a captured error. Never both.
type InspectionResult struct {
	Identity ComponentIdentity
	Path     ResolutionPath
	Surface  *InterfaceDescription
	Err      *InspectError
}

func Success(id ComponentIdentity, path ResolutionPath, surface *InterfaceDescription) InspectionResult {
	return InspectionResult{Identity: id, Path: path, Surface: surface}
}

func Failure(id ComponentIdentity, err error) InspectionResult {
	return InspectionResult{Identity: id, Path: PathFailed, Err: AsInspectError(err)}
}
