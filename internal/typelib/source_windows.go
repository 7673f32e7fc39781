//go:build windows

package typelib

import (
	"fmt"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/google/uuid"
	"golang.org/x/sys/windows/registry"

	"github.com/mberetvas/comspect/internal/com"
)

var (
	oleaut32           = syscall.NewLazyDLL("oleaut32.dll")
	procLoadRegTypeLib = oleaut32.NewProc("LoadRegTypeLib")
	procSysFreeString  = oleaut32.NewProc("SysFreeString")
)

const (
	funcflagFRestricted  = 0x1
	impltypeflagFDefault = 0x1
	impltypeflagFSource  = 0x2

	maxTypeLibMembers = 4096 // sanity bound against corrupt descriptor counts
)

// Vtable slots per oaidl.h declaration order, counting from the three
// IUnknown entries.
const (
	slotTypeLibGetTypeInfoOfGuid = 6

	slotTypeInfoGetFuncDesc          = 5
	slotTypeInfoGetNames             = 7
	slotTypeInfoGetRefTypeOfImplType = 8
	slotTypeInfoGetImplTypeFlags     = 9
	slotTypeInfoGetDocumentation     = 12
	slotTypeInfoGetRefTypeInfo       = 14
	slotTypeInfoReleaseTypeAttr      = 19
	slotTypeInfoReleaseFuncDesc      = 20

	slotDispatchGetTypeInfoCount = 3
	slotDispatchGetTypeInfo      = 4
)

/*
* typeDesc / paramDesc / elemDesc / funcDesc mirror the native TYPEDESC,
* PARAMDESC, ELEMDESC and FUNCDESC layouts (x64). go-ole wraps GetTypeAttr
* but not the function descriptors, so those slots are called through the
* vtable directly.
*
* TYPEDESC is a union: for VT_PTR and VT_SAFEARRAY, Value points at the
* inner TYPEDESC describing the pointee/element type.
 */
type typeDesc struct {
	Value uintptr
	VT    uint16
	_     [6]byte
}

type paramDesc struct {
	PParamDescEx uintptr
	WParamFlags  uint16
	_            [6]byte
}

type elemDesc struct {
	Tdesc     typeDesc
	ParamDesc paramDesc
}

type funcDesc struct {
	MemID             int32
	_                 [4]byte
	Lprgscode         uintptr
	LprgelemdescParam uintptr
	FuncKind          int32
	InvKind           int32
	CallConv          int32
	CParams           int16
	CParamsOpt        int16
	OVft              int16
	CScodes           int16
	_                 [4]byte
	ElemdescFunc      elemDesc
	WFuncFlags        uint16
	_                 [6]byte
}

// comCall invokes a raw vtable slot on a COM interface pointer.
func comCall(obj unsafe.Pointer, slot int, args ...uintptr) uintptr {
	vtbl := *(*unsafe.Pointer)(obj)
	fn := (*(*[32]uintptr)(vtbl))[slot]
	callArgs := append([]uintptr{uintptr(obj)}, args...)
	hr, _, _ := syscall.SyscallN(fn, callArgs...)
	return hr
}

func freeBstr(p uintptr) {
	if p != 0 {
		procSysFreeString.Call(p)
	}
}

func bstrText(p uintptr) string {
	if p == 0 {
		return ""
	}
	return ole.BstrToString((*uint16)(unsafe.Pointer(p)))
}

func guidOf(id uuid.UUID) *ole.GUID {
	return ole.NewGUID("{" + id.String() + "}")
}

// RegistrySource is the static path: it reads the CLSID's TypeLib
// registration from HKCR and loads the registered type library, never
// touching the component itself.
type RegistrySource struct{}

func NewRegistrySource() (Source, error) {
	return RegistrySource{}, nil
}

func (RegistrySource) Describe(classID uuid.UUID) (*RawDescription, error) {
	braced := "{" + classID.String() + "}"

	libID, version, err := typeLibRegistration(braced)
	if err != nil {
		return nil, err
	}

	lib, err := loadRegTypeLib(libID, version)
	if err != nil {
		return nil, err
	}
	defer lib.Release()

	// ITypeLib::GetTypeInfoOfGuid, then the coclass's default interface
	var coclass *ole.ITypeInfo
	hr := comCall(unsafe.Pointer(lib), slotTypeLibGetTypeInfoOfGuid,
		uintptr(unsafe.Pointer(guidOf(classID))),
		uintptr(unsafe.Pointer(&coclass)))
	if hr != 0 || coclass == nil {
		return nil, com.NewHResultError(com.KindMalformedDescriptor, uint32(hr),
			"type library %s does not describe class %s", libID, braced)
	}
	defer coclass.Release()

	index := defaultImplTypeIndex(coclass)
	var refType uintptr
	if hr := comCall(unsafe.Pointer(coclass), slotTypeInfoGetRefTypeOfImplType,
		uintptr(index), uintptr(unsafe.Pointer(&refType))); hr != 0 {
		return nil, com.NewHResultError(com.KindMalformedDescriptor, uint32(hr),
			"class %s has no default interface", braced)
	}
	var iface *ole.ITypeInfo
	if hr := comCall(unsafe.Pointer(coclass), slotTypeInfoGetRefTypeInfo,
		refType, uintptr(unsafe.Pointer(&iface))); hr != 0 || iface == nil {
		return nil, com.NewHResultError(com.KindMalformedDescriptor, uint32(hr),
			"default interface of %s is unresolvable", braced)
	}
	defer iface.Release()

	return describeTypeInfo(iface, classID)
}

// defaultImplTypeIndex locates the implemented interface the coclass marks
// as its default, skipping event sources. Index 0 when no entry carries the
// flag, which matches the registration order convention.
func defaultImplTypeIndex(coclass *ole.ITypeInfo) int {
	attr, err := coclass.GetTypeAttr()
	if err != nil {
		return 0
	}
	implTypes := int(attr.CImplTypes)
	comCall(unsafe.Pointer(coclass), slotTypeInfoReleaseTypeAttr, uintptr(unsafe.Pointer(attr)))

	for i := 0; i < implTypes; i++ {
		var flags int32
		if hr := comCall(unsafe.Pointer(coclass), slotTypeInfoGetImplTypeFlags,
			uintptr(i), uintptr(unsafe.Pointer(&flags))); hr != 0 {
			continue
		}
		if flags&impltypeflagFDefault != 0 && flags&impltypeflagFSource == 0 {
			return i
		}
	}
	return 0
}

func typeLibRegistration(braced string) (libID string, version string, err error) {
	key, err := registry.OpenKey(registry.CLASSES_ROOT, `CLSID\`+braced+`\TypeLib`, registry.QUERY_VALUE)
	if err != nil {
		return "", "", com.NewError(com.KindNoTypeLibrary, "no TypeLib registration for %s", braced)
	}
	defer key.Close()

	libID, _, err = key.GetStringValue("")
	if err != nil || libID == "" {
		return "", "", com.NewError(com.KindNoTypeLibrary, "empty TypeLib registration for %s", braced)
	}

	if vkey, verr := registry.OpenKey(registry.CLASSES_ROOT, `CLSID\`+braced+`\Version`, registry.QUERY_VALUE); verr == nil {
		version, _, _ = vkey.GetStringValue("")
		vkey.Close()
	}
	if version == "" {
		// fall back to the first registered version of the library
		if lkey, lerr := registry.OpenKey(registry.CLASSES_ROOT, `TypeLib\`+libID, registry.ENUMERATE_SUB_KEYS); lerr == nil {
			if names, nerr := lkey.ReadSubKeyNames(1); nerr == nil && len(names) > 0 {
				version = names[0]
			}
			lkey.Close()
		}
	}
	if version == "" {
		version = "1.0"
	}
	return libID, version, nil
}

func loadRegTypeLib(libID, version string) (*ole.ITypeLib, error) {
	var major, minor uint16
	fmt.Sscanf(version, "%d.%d", &major, &minor)

	guid := ole.NewGUID(libID)
	if guid == nil {
		return nil, com.NewError(com.KindNoTypeLibrary, "malformed type library id %q", libID)
	}

	var lib *ole.ITypeLib
	hr, _, _ := procLoadRegTypeLib.Call(
		uintptr(unsafe.Pointer(guid)),
		uintptr(major), uintptr(minor), 0,
		uintptr(unsafe.Pointer(&lib)))
	if hr != 0 || lib == nil {
		return nil, com.NewHResultError(com.KindNoTypeLibrary, uint32(hr),
			"type library %s %s is missing or unloadable", libID, version)
	}
	return lib, nil
}

// InstanceSource is the dynamic path: create the component, query its
// late-bound dispatch interface and pull the description from the live
// instance. Side effects inside the component are the caller's accepted
// trade-off; the instance is released on every path.
type InstanceSource struct{}

func NewInstanceSource() (Source, error) {
	return InstanceSource{}, nil
}

func (InstanceSource) Describe(classID uuid.UUID) (*RawDescription, error) {
	unknown, err := ole.CreateInstance(guidOf(classID), ole.IID_IUnknown)
	if err != nil {
		if oleErr, ok := err.(*ole.OleError); ok {
			return nil, com.NewHResultError(com.KindInstantiationFailed, uint32(oleErr.Code()),
				"CoCreateInstance refused for %s", classID)
		}
		return nil, com.NewError(com.KindInstantiationFailed, "CoCreateInstance failed for %s: %v", classID, err)
	}
	defer unknown.Release()

	disp, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return nil, com.NewError(com.KindNoDispatchInterface, "%s exposes no late-bound dispatch interface", classID)
	}
	defer disp.Release()

	// IDispatch::GetTypeInfoCount / GetTypeInfo(0, LOCALE_SYSTEM_DEFAULT)
	var count uint32
	if hr := comCall(unsafe.Pointer(disp), slotDispatchGetTypeInfoCount,
		uintptr(unsafe.Pointer(&count))); hr != 0 || count == 0 {
		return nil, com.NewHResultError(com.KindNoDispatchInterface, uint32(hr),
			"%s reports no type information", classID)
	}
	var ti *ole.ITypeInfo
	if hr := comCall(unsafe.Pointer(disp), slotDispatchGetTypeInfo,
		0, 0, uintptr(unsafe.Pointer(&ti))); hr != 0 || ti == nil {
		return nil, com.NewHResultError(com.KindMalformedDescriptor, uint32(hr),
			"%s refused its type information", classID)
	}
	defer ti.Release()

	return describeTypeInfo(ti, classID)
}

// describeTypeInfo walks the function descriptors of one type description
// into the portable raw model. Individual descriptor failures become
// malformed raw members (empty name) so the decoder can keep going.
func describeTypeInfo(ti *ole.ITypeInfo, classID uuid.UUID) (*RawDescription, error) {
	attr, err := ti.GetTypeAttr()
	if err != nil {
		return nil, com.NewError(com.KindMalformedDescriptor, "GetTypeAttr failed for %s: %v", classID, err)
	}
	funcs := int(attr.CFuncs)
	comCall(unsafe.Pointer(ti), slotTypeInfoReleaseTypeAttr, uintptr(unsafe.Pointer(attr)))
	if funcs < 0 || funcs > maxTypeLibMembers {
		return nil, com.NewError(com.KindMalformedDescriptor, "implausible member count %d for %s", funcs, classID)
	}

	raw := &RawDescription{ClassID: classID}

	var nameBstr uintptr
	if hr := comCall(unsafe.Pointer(ti), slotTypeInfoGetDocumentation, uintptr(^uint32(0)), // MEMBERID_NIL
		uintptr(unsafe.Pointer(&nameBstr)), 0, 0, 0); hr == 0 {
		raw.Name = bstrText(nameBstr)
		freeBstr(nameBstr)
	}

	for i := 0; i < funcs; i++ {
		var fd *funcDesc
		if hr := comCall(unsafe.Pointer(ti), slotTypeInfoGetFuncDesc,
			uintptr(i), uintptr(unsafe.Pointer(&fd))); hr != 0 || fd == nil {
			raw.Members = append(raw.Members, RawMember{DispID: int32(i)})
			continue
		}
		if fd.WFuncFlags&funcflagFRestricted != 0 {
			comCall(unsafe.Pointer(ti), slotTypeInfoReleaseFuncDesc, uintptr(unsafe.Pointer(fd)))
			continue
		}
		raw.Members = append(raw.Members, readMember(ti, fd))
		comCall(unsafe.Pointer(ti), slotTypeInfoReleaseFuncDesc, uintptr(unsafe.Pointer(fd)))
	}

	return raw, nil
}

func readMember(ti *ole.ITypeInfo, fd *funcDesc) RawMember {
	member := RawMember{
		DispID: fd.MemID,
		Invoke: InvokeKind(fd.InvKind),
		Return: resolveType(fd.ElemdescFunc.Tdesc),
	}

	// ITypeInfo::GetNames: first entry is the member name, the rest are
	// parameter names in declaration order.
	nParams := int(fd.CParams)
	bstrs := make([]uintptr, nParams+1)
	var got uint32
	hr := comCall(unsafe.Pointer(ti), slotTypeInfoGetNames, uintptr(uint32(fd.MemID)),
		uintptr(unsafe.Pointer(&bstrs[0])), uintptr(nParams+1), uintptr(unsafe.Pointer(&got)))
	if hr != 0 || got == 0 {
		return RawMember{DispID: fd.MemID} // malformed: no name
	}
	member.Name = bstrText(bstrs[0])
	names := make([]string, nParams)
	for i := 0; i < nParams; i++ {
		if i+1 < int(got) {
			names[i] = bstrText(bstrs[i+1])
		} else {
			names[i] = fmt.Sprintf("arg%d", i)
		}
	}
	for _, b := range bstrs[:got] {
		freeBstr(b)
	}

	if nParams > 0 && fd.LprgelemdescParam != 0 {
		params := unsafe.Slice((*elemDesc)(unsafe.Pointer(fd.LprgelemdescParam)), nParams)
		for i, ed := range params {
			member.Params = append(member.Params, RawParam{
				Name:  names[i],
				Type:  resolveType(ed.Tdesc),
				Flags: ParamFlag(ed.ParamDesc.WParamFlags),
			})
		}
	}
	return member
}

// resolveType flattens a TYPEDESC chain into a VarType with modifier bits:
// pointer wrapping becomes VT_BYREF, safearray wrapping becomes VT_ARRAY.
func resolveType(td typeDesc) VarType {
	var mods VarType
	for depth := 0; depth < 8; depth++ {
		switch VarType(td.VT) {
		case VT_PTR:
			mods |= VT_BYREF
		case VT_SAFEARRAY:
			mods |= VT_ARRAY
		default:
			return VarType(td.VT) | mods
		}
		if td.Value == 0 {
			return VarType(td.VT) | mods
		}
		td = *(*typeDesc)(unsafe.Pointer(td.Value))
	}
	return VT_EMPTY | mods
}
