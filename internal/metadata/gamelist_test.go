package metadata

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGamelist = `<?xml version="1.0"?>
<gameList>
  <provider><System>SNES</System></provider>
  <game id="1">
    <path>./Mario World.sfc</path>
    <name>Super Mario World</name>
    <desc>Jump &amp; run&nbsp;classic</desc>
    <developer>Nintendo</developer>
    <genre>Platform</genre>
    <genre>Action</genre>
  </game>
  <folder><path>./hacks</path><name>Hacks</name></folder>
  <game>
    <path>.\hacks\Kaizo.smc</path>
    <name>Kaizo</name>
    <image>./media/images/kaizo.png</image>
    <marquee>/abs/kaizo-logo.png</marquee>
  </game>
  <game>
    <name>No path</name>
  </game>
</gameList>
`

func TestStreamGamelist(t *testing.T) {
	t.Parallel()

	var names []string
	err := StreamGamelist(strings.NewReader(sampleGamelist), func(e GamelistEntry) {
		names = append(names, e.Name)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Super Mario World", "Kaizo", "No path"}, names)
}

func TestGamelistCodecRecords(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	listDir := filepath.Join(root, "gamelists", "snes")
	path := writeFile(t, filepath.Join(listDir, GamelistFileName), sampleGamelist)
	media := filepath.Join(root, "downloaded_media", "snes")
	writeFile(t, filepath.Join(media, "covers", "Mario World.jpg"), "img")
	writeFile(t, filepath.Join(media, "covers", "Mario World.webp"), "img")
	writeFile(t, filepath.Join(media, "videos", "Mario World.mkv"), "vid")
	writeFile(t, filepath.Join(media, "marquees", "Other.png"), "img")

	records, err := GamelistCodec{}.Parse(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	mario := records[0]
	assert.Equal(t, "Mario World.sfc", mario.RomFile)
	assert.Empty(t, mario.SubFolder)
	assert.Equal(t, "Super Mario World", mario.Title)
	assert.Equal(t, "Jump & run\u00a0classic", mario.Description)
	assert.Equal(t, "Nintendo", mario.Developer)
	assert.Equal(t, "Platform, Action", mario.Genre)
	assert.Equal(t, filepath.Join(media, "covers", "Mario World.jpg"), mario.CoverImagePath)
	assert.Empty(t, mario.LogoImagePath)
	assert.Equal(t, filepath.Join(media, "videos", "Mario World.mkv"), mario.VideoPath)

	kaizo := records[1]
	assert.Equal(t, "Kaizo.smc", kaizo.RomFile)
	assert.Equal(t, "hacks", kaizo.SubFolder)
	assert.Equal(t, filepath.Join(listDir, "media", "images", "kaizo.png"), kaizo.CoverImagePath)
	assert.Equal(t, "/abs/kaizo-logo.png", kaizo.LogoImagePath)
}

func TestGamelistCodecMissingAndBroken(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	records, err := GamelistCodec{}.Parse(filepath.Join(dir, GamelistFileName))
	require.NoError(t, err)
	assert.Empty(t, records)

	broken := writeFile(t, filepath.Join(dir, "broken", GamelistFileName), "<gameList><game><path>a.zip</path></gam")
	_, err = GamelistCodec{}.Parse(broken)
	assert.Error(t, err)
}

func TestDetectAndCodecFor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, _, ok := Detect(dir)
	assert.False(t, ok)

	writeFile(t, filepath.Join(dir, GamelistFileName), sampleGamelist)
	codec, path, ok := Detect(dir)
	require.True(t, ok)
	assert.Equal(t, "gamelist", codec.Name())
	assert.Equal(t, filepath.Join(dir, GamelistFileName), path)

	writeFile(t, filepath.Join(dir, PegasusFileName), sampleMetadata)
	codec, _, ok = Detect(dir)
	require.True(t, ok)
	assert.Equal(t, "pegasus", codec.Name(), "pegasus wins when both exist")

	codec, ok = CodecFor("/x/Metadata.Pegasus.TXT")
	require.True(t, ok)
	assert.Equal(t, "pegasus", codec.Name())
	codec, ok = CodecFor("export.xml")
	require.True(t, ok)
	assert.Equal(t, "gamelist", codec.Name())
	_, ok = CodecFor("catalog.ini")
	assert.False(t, ok)
}

func TestSplitRomPath(t *testing.T) {
	t.Parallel()

	tests := map[string][2]string{
		"./game.zip":       {"", "game.zip"},
		`.\sub\game.zip`:   {"sub", "game.zip"},
		"sub/deeper/g.bin": {"", ""},
		"a/b/c.zip":        {"", ""},
		"/abs/game.zip":    {"abs", "game.zip"},
		"  plain.iso ":     {"", "plain.iso"},
		"":                 {"", ""},
		"./":               {"", ""},
	}
	for in, want := range tests {
		sub, name := splitRomPath(in)
		assert.Equal(t, want[0], sub, in)
		assert.Equal(t, want[1], name, in)
	}
}
