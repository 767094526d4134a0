// Package paths resolves per-user locations for lac files.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigFileName is the file looked up in ConfigDir when no --config is given.
const ConfigFileName = "config.yaml"

// ConfigDir returns the config directory for lac.
// Order: XDG_CONFIG_HOME/lac, platform-specific fallback.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lac")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "lac")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "lac")
}

// ConfigFile returns the default config file path, or "" when no home
// directory can be determined.
func ConfigFile() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, ConfigFileName)
}
