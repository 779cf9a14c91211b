package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFirstSkipsMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `{
  "log": {"level": "info", "console": true},
  "folders": [{"path": "/roms/snes", "platform": "snes"}],
  "platforms": [{"id": "snes", "aliases": ["sfc"], "extensions": ["sfc", "smc"]}],
  "path_mappings": [{"display": "/roms", "real": "/mnt/roms"}],
  "cache": {"has_games_ttl_seconds": 60},
  "s3": {"host": "minio:9000", "bucket": "catalogs"}
}`)

	cfg, err := LoadFirst("", filepath.Join(dir, "missing.json"), path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	require.Len(t, cfg.Folders, 1)
	assert.Equal(t, "snes", cfg.Folders[0].Platform)
	assert.Equal(t, []string{"sfc", "smc"}, cfg.Platforms[0].Extensions)
	assert.Equal(t, "/mnt/roms", cfg.PathMappings[0].Real)
	assert.Equal(t, 60, cfg.Cache.HasGamesTTLSeconds)
	assert.True(t, cfg.S3.Enabled())
}

func TestLoadFirstNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadFirst(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no folders":       `{}`,
		"folder no path":   `{"folders": [{"platform": "snes"}]}`,
		"folder no system": `{"folders": [{"path": "/roms"}]}`,
		"platform no id":   `{"folders": [{"path": "/roms", "platform": "snes"}], "platforms": [{}]}`,
		"negative ttl":     `{"folders": [{"path": "/roms", "platform": "snes"}], "cache": {"has_games_ttl_seconds": -1}}`,
		"bad json":         `{`,
	}
	for name, content := range tests {
		content := content
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, t.TempDir(), content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
