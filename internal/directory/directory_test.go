package directory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentelekomcloud/giji/internal/config"
	"github.com/opentelekomcloud/giji/pkg/models"
)

func fixedConfig(repos []string, components map[string]string) *config.Config {
	return &config.Config{
		Sync: config.SyncConfig{
			Repositories: repos,
			Components:   components,
		},
	}
}

func TestFixedListSkipsDatabase(t *testing.T) {
	cfg := fixedConfig([]string{"docs-rds", "docs-obs"}, nil)

	d, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer d.Close()

	entries, err := d.List(context.Background(), []string{"Database Squad"})
	require.NoError(t, err)
	assert.Equal(t, []models.RepoEntry{
		{Repo: "docs-rds"},
		{Repo: "docs-obs"},
	}, entries)
}

func TestResolveComponent(t *testing.T) {
	cfg := fixedConfig([]string{"docs-rds"}, map[string]string{"docs-rds": "RDS"})

	d, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer d.Close()

	component, err := d.ResolveComponent("docs-rds")
	require.NoError(t, err)
	assert.Equal(t, "RDS", component)
}

func TestResolveComponentMissingMapping(t *testing.T) {
	cfg := fixedConfig([]string{"docs-rds"}, nil)

	d, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.ResolveComponent("docs-rds")
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "docs-rds")
}

func TestResolveComponentEmptyMappingIsMissing(t *testing.T) {
	cfg := fixedConfig([]string{"docs-rds"}, map[string]string{"docs-rds": ""})

	d, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.ResolveComponent("docs-rds")
	assert.True(t, IsConfigError(err))
}

func TestIsConfigError(t *testing.T) {
	plain := errors.New("network down")
	assert.False(t, IsConfigError(plain))

	cfgErr := &ConfigError{Msg: "missing mapping"}
	assert.True(t, IsConfigError(cfgErr))

	wrapped := fmt.Errorf("processing docs-rds: %w", cfgErr)
	assert.True(t, IsConfigError(wrapped))
}
