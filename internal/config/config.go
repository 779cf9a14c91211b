package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Config describes the application level configuration loaded from json.
type Config struct {
	Log          LogConfig       `json:"log"`
	Folders      []FolderConfig  `json:"folders"`
	Platforms    []PlatformEntry `json:"platforms"`
	PathMappings []PathMapping   `json:"path_mappings"`
	Cache        CacheConfig     `json:"cache"`
	Index        IndexConfig     `json:"index"`
	S3           S3Config        `json:"s3"`
}

// LogConfig controls the process wide logger.
type LogConfig struct {
	File      string `json:"file"`
	Level     string `json:"level"`
	MaxRotate int    `json:"max_rotate"`
	MaxSizeMB int    `json:"max_size_mb"`
	KeepDays  int    `json:"keep_days"`
	Console   bool   `json:"console"`
}

// FolderConfig maps a rom folder to a platform.
type FolderConfig struct {
	Key      string `json:"key"`
	Path     string `json:"path"`
	Platform string `json:"platform"`
}

// PlatformEntry overrides the defaults of a platform.
type PlatformEntry struct {
	ID         string   `json:"id"`
	Aliases    []string `json:"aliases"`
	Extensions []string `json:"extensions"`
	Emulator   string   `json:"emulator"`
}

// PathMapping translates a display prefix into the real filesystem prefix.
type PathMapping struct {
	Display string `json:"display"`
	Real    string `json:"real"`
}

// CacheConfig tunes the catalog caches. Zero values keep the defaults.
type CacheConfig struct {
	HasGamesTTLSeconds   int `json:"has_games_ttl_seconds"`
	FlushIntervalSeconds int `json:"flush_interval_seconds"`
}

// IndexConfig points at the sqlite catalog index.
type IndexConfig struct {
	Path string `json:"path"`
}

// S3Config holds the options for accessing the backup object store.
type S3Config struct {
	Host            string `json:"host"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Prefix          string `json:"prefix"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SessionToken    string `json:"session_token"`
	ForcePathStyle  bool   `json:"force_path_style"`
}

// Enabled reports whether a backup bucket is configured.
func (c S3Config) Enabled() bool {
	return strings.TrimSpace(c.Host) != "" && strings.TrimSpace(c.Bucket) != ""
}

// LoadFirst tries to load configuration from the given paths, returning the
// first successfully decoded configuration. If none of the paths contain a
// readable config, an error is returned.
func LoadFirst(paths ...string) (*Config, error) {
	var lastErr error
	for _, path := range paths {
		if path == "" {
			continue
		}
		cfg, err := Load(path)
		if errors.Is(err, os.ErrNotExist) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("config not found in paths: %v", paths)
	}
	return nil, lastErr
}

// Load reads configuration from a single json file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate performs basic validation of the configuration.
func (c *Config) Validate() error {
	if len(c.Folders) == 0 {
		return errors.New("config.folders must not be empty")
	}
	for i, f := range c.Folders {
		if strings.TrimSpace(f.Path) == "" {
			return fmt.Errorf("config.folders[%d].path must be set", i)
		}
		if strings.TrimSpace(f.Platform) == "" {
			return fmt.Errorf("config.folders[%d].platform must be set", i)
		}
	}
	for i, p := range c.Platforms {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("config.platforms[%d].id must be set", i)
		}
	}
	if c.Cache.HasGamesTTLSeconds < 0 || c.Cache.FlushIntervalSeconds < 0 {
		return errors.New("config.cache values must not be negative")
	}
	return nil
}
