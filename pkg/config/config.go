// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

var validate = validator.New()

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager with an empty koanf instance.
func NewManager() *Manager {
	return &Manager{koanfInstance: koanf.New(".")}
}

// DefaultConfig returns the baseline configuration used when no source overrides it.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Batch: BatchConfig{
			Threads:    4,
			MaxTargets: 1000,
		},
	}
}

// DefaultConfigAsMap flattens DefaultConfig for koanf's confmap provider.
// Every key the application reads must be listed here.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,

		"catalog.path":      def.Catalog.Path,
		"catalog.cache_dir": def.Catalog.CacheDir,
		"catalog.watch":     def.Catalog.Watch,

		"detect.telemetry_file": def.Detect.TelemetryFile,

		"batch.threads":     def.Batch.Threads,
		"batch.max_targets": def.Batch.MaxTargets,
	}
}

// Load loads defaults, the optional config file, LAC_* environment variables
// and flags, in that order of precedence.
func (m *Manager) Load(flags *pflag.FlagSet, customConfigFilePath string) error {
	debug := false
	if flags != nil {
		if f := flags.Lookup("debug"); f != nil && f.Value.String() == "true" {
			debug = true
		}
	}
	return m.LoadWithSources(DefaultSources(customConfigFilePath, flags, debug))
}

// LoadWithSources loads the given sources in priority order, then unmarshals
// and validates the result.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := append([]ConfigSource(nil), sources...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	for _, src := range ordered {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("config source %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	if err := Validate(newCfg); err != nil {
		return err
	}
	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// Validate checks value ranges and cross-field rules.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Namespace() {
	case "Config.Batch.Threads":
		if fe.Tag() == "ltefield" {
			return "the number of threads can't be greater than the number of max targets"
		}
		return "batch.threads must be at least 1"
	case "Config.Batch.MaxTargets":
		return "batch.max_targets must be at least 1"
	case "Config.Log.Level":
		return fmt.Sprintf("unknown log level %q", fe.Value())
	case "Config.Log.Format":
		return fmt.Sprintf("log.format must be json or text, got %q", fe.Value())
	default:
		return fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag())
	}
}

// FlagKeys maps CLI flag names onto configuration keys. Flags whose names are
// already dotted keys (e.g. "log.level") need no entry.
var FlagKeys = map[string]string{
	"log-level":   "log.level",
	"log-format":  "log.format",
	"catalog":     "catalog.path",
	"cache-dir":   "catalog.cache_dir",
	"watch":       "catalog.watch",
	"telemetry":   "detect.telemetry_file",
	"threads":     "batch.threads",
	"max-targets": "batch.max_targets",
}

// BindFlags defines the global flags understood by the config layer.
func BindFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()

	var debug bool
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.String("log-level", defaults.Log.Level, "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", defaults.Log.Format, "Log format (text, json)")
	flags.String("catalog", defaults.Catalog.Path, "Signature catalog file (.json, .yaml)")
	flags.String("cache-dir", defaults.Catalog.CacheDir, "Catalog cache directory")
}
