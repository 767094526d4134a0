package appctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/lac/pkg/config"
)

func TestWithConfig(t *testing.T) {
	manager := config.NewManager()
	ctx := WithConfig(context.Background(), manager)

	got, ok := Config(ctx)
	require.True(t, ok)
	assert.Same(t, manager, got)

	//nolint:staticcheck
	got, ok = Config(WithConfig(nil, manager))
	require.True(t, ok)
	assert.Same(t, manager, got)
}

func TestConfig_Missing(t *testing.T) {
	_, ok := Config(context.Background())
	assert.False(t, ok)

	//nolint:staticcheck
	_, ok = Config(nil)
	assert.False(t, ok)

	var nilManager *config.Manager
	_, ok = Config(WithConfig(context.Background(), nilManager))
	assert.False(t, ok)
}

func TestSettings(t *testing.T) {
	assert.Equal(t, config.DefaultConfig(), Settings(context.Background()))

	manager := config.NewManager()
	require.NoError(t, manager.LoadWithSources([]config.ConfigSource{
		&config.DefaultSource{},
		&config.FlagSource{Debug: true},
	}))
	assert.Equal(t, "debug", Settings(WithConfig(context.Background(), manager)).Log.Level)
}
