package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmunix/mediasel/internal/media"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, fmt.Sprintf("log.max_size_mb: must not be negative, got %d", c.Log.MaxSizeMB))
	}
	if c.Log.MaxBackups < 0 {
		errs = append(errs, fmt.Sprintf("log.max_backups: must not be negative, got %d", c.Log.MaxBackups))
	}

	if k := c.Selector.PreferKind; k != "" && !strings.EqualFold(k, "none") {
		if _, err := media.ParseKind(c.Selector.PreferKind); err != nil {
			errs = append(errs, fmt.Sprintf("selector.prefer_kind: must be one of web, bittorrent, local_cache, none; got %q", c.Selector.PreferKind))
		}
	}
	if c.Selector.LowTierTolerance < 0 {
		errs = append(errs, fmt.Sprintf("selector.low_tier_tolerance: must not be negative, got %s", c.Selector.LowTierTolerance))
	}
	if c.Selector.CacheMaxAttempts < 0 {
		errs = append(errs, fmt.Sprintf("selector.cache_max_attempts: must not be negative, got %d", c.Selector.CacheMaxAttempts))
	}

	for source := range c.Tiers {
		if strings.TrimSpace(source) == "" {
			errs = append(errs, "tiers: source id must not be empty")
		}
	}

	// Database directory warning (non-fatal for in-memory databases)
	if c.Database.Path != "" && c.Database.Path != ":memory:" {
		dir := filepath.Dir(c.Database.Path)
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			errs = append(errs, fmt.Sprintf("database.path: %q is not a directory", dir))
		}
	}

	return errs
}
