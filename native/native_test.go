package native

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libodbc-missing.so")
	d, err := Load(path)
	require.Error(t, err)
	assert.Nil(t, d)
	assert.Contains(t, err.Error(), "libodbc-missing.so")
}

func TestProbeMissingLibrary(t *testing.T) {
	info := Probe(filepath.Join(t.TempDir(), "nope.so"))
	assert.False(t, info.Available)
	assert.Equal(t, runtime.GOOS, info.Platform)
	assert.Equal(t, runtime.GOARCH, info.Architecture)
	assert.NotEmpty(t, info.Error)
	assert.Contains(t, info.String(), "Not available")
}

func TestInfoString(t *testing.T) {
	info := Info{Available: true, Platform: "linux", Architecture: "amd64", Path: "libodbc.so.2"}
	assert.Equal(t, "Driver manager: Available\nPlatform: linux/amd64\nLibrary: libodbc.so.2", info.String())
}

func TestCandidates(t *testing.T) {
	c := candidates()
	require.NotEmpty(t, c)
	switch runtime.GOOS {
	case "windows":
		assert.Equal(t, "odbc32.dll", c[0])
	case "darwin":
		assert.Equal(t, "libodbc.2.dylib", c[0])
	default:
		assert.Equal(t, "libodbc.so.2", c[0])
	}
}

func TestEnvOverride(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "from-env.so")
	t.Setenv(EnvLibrary, missing)
	search := searchPath("")
	require.Greater(t, len(search), 1)
	assert.Equal(t, missing, search[0])
	assert.Equal(t, candidates(), search[1:])

	assert.Equal(t, []string{"explicit.so"}, searchPath("explicit.so"))
}

func TestCString(t *testing.T) {
	b := []byte("HY000\x00garbage")
	assert.Equal(t, "HY000", cstring(b, 5))
	assert.Equal(t, "HY000", cstring(b, 20))
	assert.Equal(t, "HY", cstring(b, 2))
	assert.Equal(t, "", cstring(b, -1))
}
