//go:build windows

package typelib

import (
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mberetvas/comspect/internal/com"
)

// Scripting.FileSystemObject ships with every Windows install and carries a
// TypeLib registration, which makes it a stable end-to-end target for both
// resolution paths.
var fsoClassID = uuid.MustParse("0d43fe01-f093-11cf-8940-00a0c9054228")

func withRuntime(t *testing.T, fn func()) {
	t.Helper()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ctx, err := com.Acquire(com.OSRuntime{})
	require.NoError(t, err)
	defer ctx.Release()

	fn()
}

func memberNames(t *testing.T, raw *RawDescription) map[string]bool {
	t.Helper()
	decoded, err := Decode(raw)
	require.NoError(t, err)
	names := make(map[string]bool, len(decoded.Members))
	for _, m := range decoded.Members {
		names[m.Name] = true
	}
	return names
}

func TestRegistrySourceDescribesFileSystemObject(t *testing.T) {
	withRuntime(t, func() {
		source, err := NewRegistrySource()
		require.NoError(t, err)

		raw, err := source.Describe(fsoClassID)
		require.NoError(t, err)
		require.NotEmpty(t, raw.Members)
		assert.NotEmpty(t, raw.Name)

		names := memberNames(t, raw)
		assert.True(t, names["FileExists"], "default interface should expose FileExists, got %v", names)
	})
}

func TestInstanceSourceDescribesFileSystemObject(t *testing.T) {
	withRuntime(t, func() {
		source, err := NewInstanceSource()
		require.NoError(t, err)

		raw, err := source.Describe(fsoClassID)
		require.NoError(t, err)
		require.NotEmpty(t, raw.Members)

		names := memberNames(t, raw)
		assert.True(t, names["FileExists"], "dispatch type info should expose FileExists, got %v", names)
	})
}

func TestRegistrySourceReportsMissingTypeLibrary(t *testing.T) {
	withRuntime(t, func() {
		source, err := NewRegistrySource()
		require.NoError(t, err)

		_, err = source.Describe(uuid.MustParse("99999999-9999-9999-9999-999999999999"))
		require.Error(t, err)
		assert.Equal(t, com.KindNoTypeLibrary, com.KindOf(err))
	})
}
