// pkg/version/version.go
// Package version provides build metadata for the application.
package version

import (
	"fmt"
	"runtime"
)

// These variables are typically injected at build time using -ldflags
var (
	// Version holds the current version of lac.
	Version = "dev"
	// Commit holds the commit lac was built from.
	Commit = "none"
	// BuildDate holds the build date of lac.
	BuildDate = "unknown"
)

// Struct returns version information in a structured format.
type Struct struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("lac %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}

// Get returns version information as a Struct.
func Get() Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}
