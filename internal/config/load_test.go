package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/mediasel/internal/media"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"

[selector]
prefer_kind = "bittorrent"
fast_select_web = false
low_tier_tolerance = "2s"
cache_max_attempts = 4

[tiers]
"web-a" = 0
"bt" = 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "bittorrent", cfg.Selector.PreferKind)
	assert.False(t, cfg.Selector.FastSelectWeb)
	assert.Equal(t, 2*time.Second, cfg.Selector.LowTierTolerance)
	assert.Equal(t, 4, cfg.Selector.CacheMaxAttempts)
	assert.Equal(t, media.SourceTiers{"web-a": 0, "bt": 3}, cfg.SourceTiers())
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[log]\n"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "./data/mediasel.db", cfg.Database.Path)
	assert.Equal(t, "web", cfg.Selector.PreferKind)
	assert.True(t, cfg.Selector.FastSelectWeb)
	assert.True(t, cfg.Selector.AutoEnableLastSelected)
	assert.True(t, cfg.Selector.RecoverDeadEnd)
	assert.Equal(t, 5*time.Second, cfg.Selector.LowTierTolerance)
}

func TestLoad_MissingEnvVar(t *testing.T) {
	path := writeConfig(t, `
[database]
path = "${MEDIASEL_TEST_NONEXISTENT_DB}"
`)

	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"MEDIASEL_TEST_NONEXISTENT_DB"}, cfgErr.Missing)
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeConfig(t, `
[selector]
prefer_kind = "usenet"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selector.prefer_kind")
}

func TestLoadWithoutValidation(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "loud"
`)

	cfg, err := LoadWithoutValidation(path)
	require.NoError(t, err)
	assert.Equal(t, "loud", cfg.Log.Level)
}

func TestLoad_EnvVarDefault(t *testing.T) {
	t.Setenv("MEDIASEL_TEST_LEVEL", "")
	path := writeConfig(t, `
[log]
level = "${MEDIASEL_TEST_LEVEL:-warn}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSelectorConfig_Settings(t *testing.T) {
	sc := Default().Selector
	sc.Blacklist = []string{"web-bad"}
	sc.CacheMaxAttempts = 2

	s, err := sc.Settings()
	require.NoError(t, err)
	assert.Equal(t, media.KindWeb, s.PreferKind)
	assert.True(t, s.FastSelectWeb)
	assert.Equal(t, []string{"web-bad"}, s.FastSelect.Blacklist)
	assert.Equal(t, 5*time.Second, s.FastSelect.LowTierTolerance)
	assert.Equal(t, media.InstantSelectTierThreshold, s.FastSelect.InstantSelectTierThreshold)
	assert.Equal(t, 2, s.CacheMaxAttempts)

	sc.PreferKind = "none"
	s, err = sc.Settings()
	require.NoError(t, err)
	assert.Empty(t, s.PreferKind)

	sc.PreferKind = "floppy"
	_, err = sc.Settings()
	assert.Error(t, err)
}
