//go:build windows
// +build windows

package native

import (
	"syscall"
)

func candidates() []string {
	return []string{"odbc32.dll"}
}

// Load a dynamic library on Windows systems
func openLibrary(path string) (uintptr, error) {
	handle, err := syscall.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return uintptr(handle), nil
}

// Close the library
func closeLibrary(handle uintptr) {
	if handle != 0 {
		_ = syscall.FreeLibrary(syscall.Handle(handle))
	}
}
