package typelib

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mberetvas/comspect/internal/com"
)

func TestMethodSignatures(t *testing.T) {
	getItem := com.MemberDescriptor{
		Kind:   com.MemberMethod,
		Name:   "GetItem",
		Params: []com.Param{{Name: "id", Type: "Long"}},
		Return: "Dispatchable",
	}

	assert.Equal(t, "IDispatch* GetItem(long id)", Signature(getItem, StyleC))
	assert.Equal(t, "Dispatchable GetItem(Long id)", Signature(getItem, StyleManaged))
	assert.Equal(t, "fn get_item(id: i32) -> Dispatch", Signature(getItem, StyleSystems))
}

func TestVoidMethodHasNoReturnArrow(t *testing.T) {
	refresh := com.MemberDescriptor{Kind: com.MemberMethod, Name: "Refresh", Return: "Void"}

	assert.Equal(t, "void Refresh()", Signature(refresh, StyleC))
	assert.Equal(t, "fn refresh()", Signature(refresh, StyleSystems))
}

func TestPropertySignatures(t *testing.T) {
	count := com.MemberDescriptor{
		Kind:   com.MemberProperty,
		Name:   "Count",
		Type:   "Long",
		Access: com.AccessRead,
	}

	assert.Equal(t, "long Count /* R */", Signature(count, StyleC))
	assert.Equal(t, "Long Count { get; }", Signature(count, StyleManaged))
	assert.Equal(t, "count: i32 (read-only)", Signature(count, StyleSystems))

	visible := com.MemberDescriptor{
		Kind:   com.MemberProperty,
		Name:   "Visible",
		Type:   "Boolean",
		Access: com.AccessReadWrite,
	}
	assert.Equal(t, "Boolean Visible { get; set; }", Signature(visible, StyleManaged))
	assert.Equal(t, "visible: bool (read-write)", Signature(visible, StyleSystems))
}

func TestParamModifierRendering(t *testing.T) {
	fill := com.MemberDescriptor{
		Kind: com.MemberMethod,
		Name: "Fill",
		Params: []com.Param{
			{Name: "values", Type: "Array of Variant"},
			{Name: "applied", Type: "Boolean", ByRef: true},
			{Name: "mode", Type: "Long", Optional: true},
		},
		Return: "Void",
	}

	assert.Equal(t,
		"void Fill(SAFEARRAY(VARIANT) values, VARIANT_BOOL* applied, long mode /*opt*/)",
		Signature(fill, StyleC))
	assert.Equal(t,
		"Void Fill(Array of Variant values, ref Boolean applied, Long mode = default)",
		Signature(fill, StyleManaged))
	assert.Equal(t,
		"fn fill(values: Vec<Variant>, applied: &mut bool, mode: Option<i32>)",
		Signature(fill, StyleSystems))
}

func TestOpaqueMemberSignature(t *testing.T) {
	opaque := com.MemberDescriptor{Kind: com.MemberUnknown, Name: "member#7"}
	assert.Equal(t, "<opaque> member#7", Signature(opaque, StyleManaged))
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"GetItem":   "get_item",
		"Count":     "count",
		"XMLParser": "xmlparser",
		"already":   "already",
	}
	for in, want := range tests {
		assert.Equal(t, want, snakeCase(in), in)
	}
}
