package typelib

import (
	"fmt"

	"github.com/google/uuid"
)

// VarType is the native variant type code carried by raw descriptors
// (the VARENUM table), plus the array/byref modifier bits.
type VarType uint16

const (
	VT_EMPTY       VarType = 0x0000
	VT_NULL        VarType = 0x0001
	VT_I2          VarType = 0x0002
	VT_I4          VarType = 0x0003
	VT_R4          VarType = 0x0004
	VT_R8          VarType = 0x0005
	VT_CY          VarType = 0x0006
	VT_DATE        VarType = 0x0007
	VT_BSTR        VarType = 0x0008
	VT_DISPATCH    VarType = 0x0009
	VT_ERROR       VarType = 0x000A
	VT_BOOL        VarType = 0x000B
	VT_VARIANT     VarType = 0x000C
	VT_UNKNOWN     VarType = 0x000D
	VT_DECIMAL     VarType = 0x000E
	VT_I1          VarType = 0x0010
	VT_UI1         VarType = 0x0011
	VT_UI2         VarType = 0x0012
	VT_UI4         VarType = 0x0013
	VT_I8          VarType = 0x0014
	VT_UI8         VarType = 0x0015
	VT_INT         VarType = 0x0016
	VT_UINT        VarType = 0x0017
	VT_VOID        VarType = 0x0018
	VT_HRESULT     VarType = 0x0019
	VT_PTR         VarType = 0x001A
	VT_SAFEARRAY   VarType = 0x001B
	VT_USERDEFINED VarType = 0x001D
	VT_LPSTR       VarType = 0x001E
	VT_LPWSTR      VarType = 0x001F

	// modifier bits, combined with an element type
	VT_ARRAY VarType = 0x2000
	VT_BYREF VarType = 0x4000
)

// Elem strips the modifier bits, leaving the element type code.
func (vt VarType) Elem() VarType { return vt &^ (VT_ARRAY | VT_BYREF) }

// IsArray reports the array modifier bit.
func (vt VarType) IsArray() bool { return vt&VT_ARRAY != 0 }

// IsByRef reports the by-reference modifier bit.
func (vt VarType) IsByRef() bool { return vt&VT_BYREF != 0 }

// Canonical maps a type code to its canonical semantic name. The table is
// append-only data: codes it does not know become "Unknown(0xNNNN)" rather
// than failing the decode.
func (vt VarType) Canonical() string {
	if vt.IsArray() {
		return "Array of " + vt.Elem().Canonical()
	}
	switch vt.Elem() {
	case VT_EMPTY:
		return "Empty"
	case VT_NULL:
		return "Null"
	case VT_I2:
		return "Short"
	case VT_I4, VT_INT:
		return "Long"
	case VT_R4:
		return "Single"
	case VT_R8:
		return "Double"
	case VT_CY:
		return "Currency"
	case VT_DATE:
		return "Date"
	case VT_BSTR, VT_LPSTR, VT_LPWSTR:
		return "String"
	case VT_DISPATCH:
		return "Dispatchable"
	case VT_ERROR, VT_HRESULT:
		return "Error"
	case VT_BOOL:
		return "Boolean"
	case VT_VARIANT:
		return "Variant"
	case VT_UNKNOWN:
		return "Object"
	case VT_DECIMAL:
		return "Decimal"
	case VT_I1:
		return "SByte"
	case VT_UI1:
		return "Byte"
	case VT_UI2:
		return "UShort"
	case VT_UI4, VT_UINT:
		return "ULong"
	case VT_I8:
		return "LongLong"
	case VT_UI8:
		return "ULongLong"
	case VT_VOID:
		return "Void"
	case VT_PTR:
		return "Pointer"
	case VT_SAFEARRAY:
		return "Array"
	case VT_USERDEFINED:
		return "Object"
	default:
		return fmt.Sprintf("Unknown(0x%04X)", uint16(vt))
	}
}

// InvokeKind is the accessor bitmask on a raw member: a plain method call,
// or one of the property accessors.
type InvokeKind uint16

const (
	InvokeMethod         InvokeKind = 0x1
	InvokePropertyGet    InvokeKind = 0x2
	InvokePropertyPut    InvokeKind = 0x4
	InvokePropertyPutRef InvokeKind = 0x8
)

func (k InvokeKind) String() string {
	switch k {
	case InvokeMethod:
		return "METHOD"
	case InvokePropertyGet:
		return "PROPERTYGET"
	case InvokePropertyPut:
		return "PROPERTYPUT"
	case InvokePropertyPutRef:
		return "PROPERTYPUTREF"
	default:
		return fmt.Sprintf("InvokeKind(0x%02X)", uint16(k))
	}
}

// ParamFlag is the per-parameter flag bitmask on a raw descriptor.
type ParamFlag uint16

const (
	ParamIn       ParamFlag = 0x01
	ParamOut      ParamFlag = 0x02
	ParamRetval   ParamFlag = 0x08
	ParamOptional ParamFlag = 0x10
)

// RawParam is one undecoded parameter record.
type RawParam struct {
	Name  string
	Type  VarType
	Flags ParamFlag
}

// RawMember is one undecoded member record as read from a type description:
// the name, the dispatch id, the accessor kind, the parameter records and
// the return type code. A record with an empty name or an unrecognized
// invoke kind is malformed and decodes to an opaque member.
type RawMember struct {
	Name   string
	DispID int32
	Invoke InvokeKind
	Params []RawParam
	Return VarType
}

// RawDescription is the undecoded callable surface of one component,
// straight from a type library or a live instance. Member order is the
// order the platform enumerated them in.
type RawDescription struct {
	Name    string
	ClassID uuid.UUID
	Members []RawMember
}

// Source yields the raw interface description for a class id. The static
// implementation reads the registered type library without instantiation;
// the dynamic one creates a live instance and asks it. Tests use fakes.
type Source interface {
	Describe(classID uuid.UUID) (*RawDescription, error)
}
