package typelib

import (
	"fmt"
	"strings"

	"github.com/mberetvas/comspect/internal/com"
)

// Style selects one of the textual signature projections. These are pure
// string renderings of the normalized member model; the canonical type
// names in com.MemberDescriptor stay authoritative.
type Style int

const (
	StyleC Style = iota
	StyleManaged
	StyleSystems
)

func (s Style) String() string {
	switch s {
	case StyleC:
		return "c"
	case StyleManaged:
		return "managed"
	default:
		return "systems"
	}
}

var cTypes = map[string]string{
	"Long": "long", "Short": "short", "LongLong": "__int64",
	"ULong": "unsigned long", "UShort": "unsigned short", "ULongLong": "unsigned __int64",
	"Byte": "unsigned char", "SByte": "char",
	"String": "BSTR", "Boolean": "VARIANT_BOOL", "Variant": "VARIANT",
	"Dispatchable": "IDispatch*", "Object": "IUnknown*",
	"Double": "double", "Single": "float", "Date": "DATE", "Currency": "CY",
	"Error": "HRESULT", "Void": "void", "Pointer": "void*",
}

var systemsTypes = map[string]string{
	"Long": "i32", "Short": "i16", "LongLong": "i64",
	"ULong": "u32", "UShort": "u16", "ULongLong": "u64",
	"Byte": "u8", "SByte": "i8",
	"String": "String", "Boolean": "bool", "Variant": "Variant",
	"Dispatchable": "Dispatch", "Object": "Unknown",
	"Double": "f64", "Single": "f32", "Date": "Date", "Currency": "Currency",
	"Error": "Error", "Void": "()", "Pointer": "*mut ()",
}

// Signature projects one member into the requested style.
func Signature(m com.MemberDescriptor, style Style) string {
	switch m.Kind {
	case com.MemberMethod:
		return methodSignature(m, style)
	case com.MemberProperty:
		return propertySignature(m, style)
	default:
		return fmt.Sprintf("<opaque> %s", m.Name)
	}
}

func methodSignature(m com.MemberDescriptor, style Style) string {
	params := make([]string, 0, len(m.Params))
	for _, p := range m.Params {
		params = append(params, paramText(p, style))
	}
	args := strings.Join(params, ", ")

	switch style {
	case StyleC:
		return fmt.Sprintf("%s %s(%s)", cType(m.Return), m.Name, args)
	case StyleManaged:
		return fmt.Sprintf("%s %s(%s)", m.Return, m.Name, args)
	default:
		if m.Return == "Void" {
			return fmt.Sprintf("fn %s(%s)", snakeCase(m.Name), args)
		}
		return fmt.Sprintf("fn %s(%s) -> %s", snakeCase(m.Name), args, systemsType(m.Return))
	}
}

func propertySignature(m com.MemberDescriptor, style Style) string {
	switch style {
	case StyleC:
		return fmt.Sprintf("%s %s /* %s */", cType(m.Type), m.Name, m.Access.Badge())
	case StyleManaged:
		accessors := map[com.AccessMode]string{
			com.AccessRead:      "{ get; }",
			com.AccessWrite:     "{ set; }",
			com.AccessReadWrite: "{ get; set; }",
		}[m.Access]
		return fmt.Sprintf("%s %s %s", m.Type, m.Name, accessors)
	default:
		return fmt.Sprintf("%s: %s (%s)", snakeCase(m.Name), systemsType(m.Type), m.Access)
	}
}

func paramText(p com.Param, style Style) string {
	switch style {
	case StyleC:
		t := cType(p.Type)
		if p.ByRef {
			t += "*"
		}
		if p.Optional {
			return fmt.Sprintf("%s %s /*opt*/", t, p.Name)
		}
		return fmt.Sprintf("%s %s", t, p.Name)
	case StyleManaged:
		var b strings.Builder
		if p.ByRef {
			b.WriteString("ref ")
		}
		b.WriteString(p.Type)
		b.WriteString(" ")
		b.WriteString(p.Name)
		if p.Optional {
			b.WriteString(" = default")
		}
		return b.String()
	default:
		t := systemsType(p.Type)
		if p.ByRef {
			t = "&mut " + t
		}
		if p.Optional {
			t = "Option<" + t + ">"
		}
		return fmt.Sprintf("%s: %s", snakeCase(p.Name), t)
	}
}

func cType(canonical string) string {
	if mapped, ok := cTypes[canonical]; ok {
		return mapped
	}
	if elem, ok := strings.CutPrefix(canonical, "Array of "); ok {
		return fmt.Sprintf("SAFEARRAY(%s)", cType(elem))
	}
	return "VARIANT"
}

func systemsType(canonical string) string {
	if mapped, ok := systemsTypes[canonical]; ok {
		return mapped
	}
	if elem, ok := strings.CutPrefix(canonical, "Array of "); ok {
		return fmt.Sprintf("Vec<%s>", systemsType(elem))
	}
	return "Variant"
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(name[i-1] >= 'A' && name[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
