// Package appctx carries per-invocation state on a context.
package appctx

import (
	"context"

	"github.com/vulntor/lac/pkg/config"
)

type key string

const configKey key = "lac.config.manager"

// WithConfig stores the loaded config manager on context.
func WithConfig(ctx context.Context, manager *config.Manager) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey, manager)
}

// Config retrieves the config manager from context.
func Config(ctx context.Context) (*config.Manager, bool) {
	if ctx == nil {
		return nil, false
	}
	mgr, ok := ctx.Value(configKey).(*config.Manager)
	return mgr, ok && mgr != nil
}

// Settings returns the loaded configuration, or the defaults when the
// command ran without one (e.g. in tests that skip the root pre-run).
func Settings(ctx context.Context) config.Config {
	if mgr, ok := Config(ctx); ok {
		return mgr.Get()
	}
	return config.DefaultConfig()
}
