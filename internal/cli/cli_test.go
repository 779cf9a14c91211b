package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/romcatalog/internal/app"
)

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, r := range app.RunnerList() {
		assert.True(t, names[r], r)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestLoadConfigExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "romcatalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"folders": [{"path": "/roms/snes", "platform": "snes"}]}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Folders, 1)
	assert.Equal(t, "/roms/snes", cfg.Folders[0].Path)
}
