package typelib

import (
	"fmt"

	"github.com/mberetvas/comspect/internal/com"
)

/*
* Decode walks the raw per-member and per-parameter records and produces the
* normalized member model.
*
* Per member:
* 	METHOD                      -> Method{name, params, return type}
* 	PROPERTYGET                 -> Property{type = return type, access |= read}
* 	PROPERTYPUT / PROPERTYPUTREF-> Property{type = first param type, access |= write}
*
* The accessors of one property share a name and arrive as separate records
* in any order; they are folded into a single Property whose access mode is
* the union of the accessor flags seen. A retval-flagged parameter is the
* projected return value, not a caller parameter, and is folded into the
* return type.
*
* A single malformed record (empty name, unrecognized invoke kind) becomes an
* opaque unknown member in place; the remaining members still decode. Only a
* structurally unusable description (nil, or no name and no members) fails
* with MalformedDescriptor.
 */
func Decode(raw *RawDescription) (*com.InterfaceDescription, error) {
	if raw == nil {
		return nil, com.NewError(com.KindMalformedDescriptor, "no description data")
	}
	if raw.Name == "" && len(raw.Members) == 0 {
		return nil, com.NewError(com.KindMalformedDescriptor, "description for %s has neither name nor members", raw.ClassID)
	}

	desc := &com.InterfaceDescription{
		Name:    raw.Name,
		ClassID: raw.ClassID,
	}

	// property name -> index into desc.Members, so accessor records fold
	// into one member at the position of the first sighting
	properties := make(map[string]int)

	for _, m := range raw.Members {
		if m.Name == "" || !knownInvoke(m.Invoke) {
			desc.Members = append(desc.Members, opaqueMember(m))
			continue
		}

		switch m.Invoke {
		case InvokeMethod:
			desc.Members = append(desc.Members, decodeMethod(m))

		case InvokePropertyGet:
			idx, ok := properties[m.Name]
			if !ok {
				idx = len(desc.Members)
				properties[m.Name] = idx
				desc.Members = append(desc.Members, com.MemberDescriptor{Kind: com.MemberProperty, Name: m.Name})
			}
			desc.Members[idx].Type = m.Return.Canonical()
			desc.Members[idx].Access = widen(desc.Members[idx].Access, com.AccessRead)

		case InvokePropertyPut, InvokePropertyPutRef:
			idx, ok := properties[m.Name]
			if !ok {
				idx = len(desc.Members)
				properties[m.Name] = idx
				desc.Members = append(desc.Members, com.MemberDescriptor{Kind: com.MemberProperty, Name: m.Name})
			}
			// the put accessor's single parameter is the property type;
			// a get accessor seen later overrides with the same name
			if desc.Members[idx].Type == "" && len(m.Params) > 0 {
				desc.Members[idx].Type = m.Params[len(m.Params)-1].Type.Canonical()
			}
			desc.Members[idx].Access = widen(desc.Members[idx].Access, com.AccessWrite)
		}
	}

	return desc, nil
}

func decodeMethod(m RawMember) com.MemberDescriptor {
	member := com.MemberDescriptor{
		Kind:   com.MemberMethod,
		Name:   m.Name,
		Return: m.Return.Canonical(),
	}
	for _, p := range m.Params {
		if p.Flags&ParamRetval != 0 {
			member.Return = p.Type.Canonical()
			continue
		}
		member.Params = append(member.Params, com.Param{
			Name:     p.Name,
			Type:     p.Type.Canonical(),
			Optional: p.Flags&ParamOptional != 0,
			ByRef:    p.Type.IsByRef(),
		})
	}
	return member
}

func opaqueMember(m RawMember) com.MemberDescriptor {
	name := m.Name
	if name == "" {
		name = fmt.Sprintf("member#%d", m.DispID)
	}
	return com.MemberDescriptor{Kind: com.MemberUnknown, Name: name}
}

func knownInvoke(k InvokeKind) bool {
	switch k {
	case InvokeMethod, InvokePropertyGet, InvokePropertyPut, InvokePropertyPutRef:
		return true
	}
	return false
}

func widen(current, add com.AccessMode) com.AccessMode {
	if current == com.AccessNone {
		return add
	}
	if current == add {
		return current
	}
	return com.AccessReadWrite
}
