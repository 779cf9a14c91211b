package platform

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryNormalizeAndExtensions(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]Definition{
		{ID: "snes", Aliases: []string{"Super Nintendo", "SFC"}, Extensions: []string{"sfc", ".SMC", "zip"}, Emulator: "snes9x"},
		{ID: "gba"},
	})

	assert.Equal(t, "snes", reg.NormalizePlatformID("  Super   Nintendo "))
	assert.Equal(t, "snes", reg.NormalizePlatformID("sfc"))
	assert.Equal(t, "neo-geo", reg.NormalizePlatformID("Neo Geo"))

	snes := reg.ValidExtensions("SFC")
	assert.True(t, snes.Allows("Mario.SMC"))
	assert.False(t, snes.Allows("mario.iso"))
	assert.Equal(t, []string{".sfc", ".smc", ".zip"}, snes.List())

	assert.True(t, reg.ValidExtensions("gba").Allows("game.zip"), "unconfigured platforms use the default set")
	assert.False(t, reg.ValidExtensions("gba").Allows("readme.txt"))
	assert.Equal(t, "snes9x", reg.DefaultEmulator("Super Nintendo"))
}

func TestPrefixResolver(t *testing.T) {
	t.Parallel()

	res := NewPrefixResolver([]PrefixMapping{
		{Display: "/roms", Real: "/mnt/a"},
		{Display: "/roms/arcade", Real: "/mnt/b"},
		{Display: "", Real: "/ignored"},
	})

	assert.Equal(t, filepath.Clean("/mnt/a/snes"), res.DisplayPathToRealPath("/roms/snes"))
	assert.Equal(t, filepath.Clean("/mnt/b/fbneo"), res.DisplayPathToRealPath("/roms/arcade/fbneo"))
	assert.Equal(t, "/romsx/snes", res.DisplayPathToRealPath("/romsx/snes"))
	assert.Equal(t, filepath.Clean("/roms/snes"), res.RealPathToDisplayPath("/mnt/a/snes"))

	var id IdentityResolver
	assert.Equal(t, "/x", id.DisplayPathToRealPath("/x"))
}

func TestFolderMap(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]Definition{{ID: "snes", Aliases: []string{"Super Nintendo"}}})
	fm := NewFolderMap([]FolderConfig{
		{Path: "/roms/snes", Platform: "Super Nintendo"},
		{Key: "usb-snes", Path: "/usb/snes", Platform: "snes"},
		{Path: "/roms/gba", Platform: "gba"},
		{Path: "/roms/snes", Platform: "snes"},
		{Path: " "},
	}, reg, NewPrefixResolver([]PrefixMapping{{Display: "/usb", Real: "/media/usb0"}}))

	require.Len(t, fm.All(), 3)
	snes := fm.Folders("snes")
	require.Len(t, snes, 2)
	assert.Equal(t, "/roms/snes", snes[0].Key)
	assert.Equal(t, filepath.Clean("/media/usb0/snes"), snes[1].RealPath)
	assert.Equal(t, []string{"snes", "gba"}, fm.Platforms())

	folder, ok := fm.Lookup("usb-snes")
	require.True(t, ok)
	assert.Equal(t, "/usb/snes", folder.DisplayPath)
	_, ok = fm.Lookup("missing")
	assert.False(t, ok)
}

func TestSortKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "super mario", SortKey(" Super Mario "))
	assert.Equal(t, "sanguozhi", SortKey("三国志"))
	assert.Less(t, SortKey("三国志"), SortKey("Tetris"))
}
