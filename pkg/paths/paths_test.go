package paths

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestConfigDir(t *testing.T) {
	t.Run("XDGOverride", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got := ConfigDir()
		want := filepath.Join("/tmp/xdg-config", "lac")
		if got != want {
			t.Fatalf("ConfigDir() = %s, want %s", got, want)
		}
	})

	t.Run("PlatformDefault", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		switch runtime.GOOS {
		case "windows":
			t.Setenv("AppData", `C:\AppData`)
			want := filepath.Join(`C:\AppData`, "lac")
			if got := ConfigDir(); got != want {
				t.Fatalf("ConfigDir() = %s, want %s", got, want)
			}
		default:
			t.Setenv("HOME", "/home/tester")
			want := filepath.Join("/home/tester", ".config", "lac")
			if got := ConfigDir(); got != want {
				t.Fatalf("ConfigDir() = %s, want %s", got, want)
			}
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	want := filepath.Join("/tmp/xdg-config", "lac", "config.yaml")
	if got := ConfigFile(); got != want {
		t.Fatalf("ConfigFile() = %s, want %s", got, want)
	}
}
