// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vmunix/mediasel/internal/autoselect"
	"github.com/vmunix/mediasel/internal/media"
)

// Config is the root configuration structure.
type Config struct {
	Log      LogConfig         `toml:"log"`
	Database DatabaseConfig    `toml:"database"`
	Selector SelectorConfig    `toml:"selector"`
	Tiers    map[string]uint32 `toml:"tiers"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// SelectorConfig tunes the auto-select strategies.
type SelectorConfig struct {
	PreferKind                 string        `toml:"prefer_kind"` // web, bittorrent, local_cache or none
	FastSelectWeb              bool          `toml:"fast_select_web"`
	LowTierTolerance           time.Duration `toml:"low_tier_tolerance"`
	InstantSelectTierThreshold uint32        `toml:"instant_select_tier_threshold"`
	AutoEnableLastSelected     bool          `toml:"auto_enable_last_selected"`
	CacheMaxAttempts           int           `toml:"cache_max_attempts"`
	RecoverDeadEnd             bool          `toml:"recover_dead_end"`
	Blacklist                  []string      `toml:"blacklist"`
}

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file, applying
// defaults but skipping validation.
func LoadWithoutValidation(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	cfg := Default()
	if _, err := toml.Decode(content, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		Selector: SelectorConfig{
			PreferKind:                 string(media.KindWeb),
			FastSelectWeb:              true,
			LowTierTolerance:           autoselect.DefaultLowTierTolerance,
			InstantSelectTierThreshold: uint32(media.InstantSelectTierThreshold),
			AutoEnableLastSelected:     true,
			RecoverDeadEnd:             true,
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/mediasel.db"
	}
	if c.Selector.PreferKind == "" {
		c.Selector.PreferKind = string(media.KindWeb)
	}
	if c.Selector.LowTierTolerance == 0 {
		c.Selector.LowTierTolerance = autoselect.DefaultLowTierTolerance
	}
}

// SourceTiers returns the configured tier table.
func (c *Config) SourceTiers() media.SourceTiers {
	tiers := make(media.SourceTiers, len(c.Tiers))
	for source, tier := range c.Tiers {
		tiers[source] = media.Tier(tier)
	}
	return tiers
}

// Settings converts the selector section into orchestrator settings.
func (c SelectorConfig) Settings() (autoselect.Settings, error) {
	var kind media.Kind
	if c.PreferKind != "" && !strings.EqualFold(c.PreferKind, "none") {
		k, err := media.ParseKind(c.PreferKind)
		if err != nil {
			return autoselect.Settings{}, fmt.Errorf("selector.prefer_kind: %w", err)
		}
		kind = k
	}
	return autoselect.Settings{
		PreferKind:    kind,
		FastSelectWeb: c.FastSelectWeb,
		FastSelect: autoselect.FastSelectOptions{
			Blacklist:                  c.Blacklist,
			LowTierTolerance:           c.LowTierTolerance,
			InstantSelectTierThreshold: media.Tier(c.InstantSelectTierThreshold),
		},
		AutoEnableLastSelected: c.AutoEnableLastSelected,
		CacheMaxAttempts:       c.CacheMaxAttempts,
		RecoverDeadEnd:         c.RecoverDeadEnd,
	}, nil
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces environment references and reports the ones
// that could not be resolved. Unresolved references are left unchanged.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if !ok || value == "" {
				return arg
			}
			return value
		case ":?":
			if !ok || value == "" {
				missing = append(missing, name+": "+arg)
				return match
			}
			return value
		default:
			if !ok {
				missing = append(missing, name)
				return match
			}
			return value
		}
	})
	return out, missing
}
