//go:build !windows
// +build !windows

package native

import (
	"runtime"

	"github.com/ebitengine/purego"
)

// candidates returns the driver manager libraries tried when no path is
// configured, in order.
func candidates() []string {
	if runtime.GOOS == "darwin" {
		return []string{
			"libodbc.2.dylib",
			"/opt/homebrew/lib/libodbc.2.dylib",
			"/usr/local/lib/libodbc.2.dylib",
			"libiodbc.2.dylib",
		}
	}
	return []string{"libodbc.so.2", "libodbc.so", "libiodbc.so.2"}
}

// Load a dynamic library on Unix systems using purego
func openLibrary(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

// Close the library
func closeLibrary(handle uintptr) {
	if handle != 0 {
		_ = purego.Dlclose(handle)
	}
}
