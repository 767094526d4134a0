// pkg/config/types.go
package config

// Config is the root configuration structure for lac.
type Config struct {
	Log     LogConfig     `description:"Logging configuration" koanf:"log"`
	Catalog CatalogConfig `description:"Signature catalog configuration" koanf:"catalog"`
	Detect  DetectConfig  `description:"Detection engine configuration" koanf:"detect"`
	Batch   BatchConfig   `description:"Batch replay configuration" koanf:"batch"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level (trace, debug, info, warn, error)" koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `description:"Log format: json | text" koanf:"format" validate:"oneof=json text"`
}

// CatalogConfig selects the signature catalog.
type CatalogConfig struct {
	Path     string `description:"Catalog file (.json/.yaml); empty uses the cached or built-in catalog" koanf:"path"`
	CacheDir string `description:"Directory holding synced catalogs; empty uses the workspace cache" koanf:"cache_dir"`
	Watch    bool   `description:"Reload the catalog file when it changes" koanf:"watch"`
}

// DetectConfig tunes the detection engine.
type DetectConfig struct {
	TelemetryFile string `description:"Append detection events as JSON lines to this file" koanf:"telemetry_file"`
}

// BatchConfig bounds batch replays of recorded responses.
type BatchConfig struct {
	Threads    int `description:"Concurrent detections" koanf:"threads" validate:"min=1,ltefield=MaxTargets"`
	MaxTargets int `description:"Maximum records per batch" koanf:"max_targets" validate:"min=1"`
}
