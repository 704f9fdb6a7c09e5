package native

import (
	"fmt"
	"runtime"
)

// Info describes the driver manager found on this host.
type Info struct {
	Available    bool   // Whether a driver manager could be loaded
	Architecture string // Current architecture (arm64, amd64, etc.)
	Platform     string // Current platform (darwin, linux, windows)
	Path         string // Library the driver manager was loaded from
	Error        string // Error message if loading failed
}

// Probe loads the driver manager the way Load does and reports the outcome.
// The library is unloaded again.
func Probe(path string) Info {
	info := Info{
		Architecture: runtime.GOARCH,
		Platform:     runtime.GOOS,
	}

	d, err := Load(path)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	defer d.Close()

	info.Available = true
	info.Path = d.Path()
	return info
}

// String returns a human-readable summary of the driver manager status
func (i Info) String() string {
	if i.Available {
		return fmt.Sprintf("Driver manager: Available\nPlatform: %s/%s\nLibrary: %s",
			i.Platform, i.Architecture, i.Path)
	}

	return fmt.Sprintf("Driver manager: Not available\nPlatform: %s/%s\nError: %s",
		i.Platform, i.Architecture, i.Error)
}
