package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyOfIgnoresCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KeyOf("Hacks", "Game.ZIP"), KeyOf("hacks", "game.zip"))
	assert.NotEqual(t, KeyOf("", "game.zip"), KeyOf("hacks", "game.zip"))
}

func TestFillEmptyNeverOverwrites(t *testing.T) {
	t.Parallel()

	existing := Record{
		RomFile:     "game1.bin",
		Title:       "Original",
		Description: "kept",
	}
	foreign := Record{
		RomFile:        "GAME1.BIN",
		SubFolder:      "other",
		Title:          "Foreign Title",
		Description:    "replaced?",
		Genre:          "RPG",
		CoverImagePath: "covers/game1.png",
		IsFavorite:     true,
	}

	changed := existing.FillEmpty(foreign)
	assert.True(t, changed)
	assert.Equal(t, "game1.bin", existing.RomFile)
	assert.Equal(t, "", existing.SubFolder)
	assert.Equal(t, "Original", existing.Title)
	assert.Equal(t, "kept", existing.Description)
	assert.Equal(t, "RPG", existing.Genre)
	assert.Equal(t, "covers/game1.png", existing.CoverImagePath)
	assert.True(t, existing.IsFavorite)

	assert.False(t, existing.FillEmpty(foreign), "second merge has nothing left to fill")
}

func TestDisplayTitleFallbacks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Named", Record{Title: "Named", Section: "Sec", RomFile: "a.zip"}.DisplayTitle())
	assert.Equal(t, "Sec", Record{Section: "Sec", RomFile: "a.zip"}.DisplayTitle())
	assert.Equal(t, "a", Record{RomFile: "a.zip"}.DisplayTitle())
}

func TestResolveMedia(t *testing.T) {
	t.Parallel()

	base := filepath.Join("roms", "snes")
	assert.Equal(t, "", ResolveMedia(base, "  "))
	assert.Equal(t, filepath.Join(base, "media", "a.png"), ResolveMedia(base, "./media/a.png"))
	assert.Equal(t, "https://cdn/a.png", ResolveMedia(base, "https://cdn/a.png"))
	abs := filepath.Join(string(filepath.Separator), "abs", "a.png")
	assert.Equal(t, abs, ResolveMedia(base, abs))
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	out := Dedupe([]Record{
		{RomFile: "a.zip", Title: "first"},
		{RomFile: ""},
		{RomFile: "A.ZIP", Title: "dup"},
		{RomFile: "a.zip", SubFolder: "sub"},
	})
	if assert.Len(t, out, 2) {
		assert.Equal(t, "first", out[0].Title)
		assert.Equal(t, "sub", out[1].SubFolder)
	}
}
