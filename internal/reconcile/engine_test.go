package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/romcatalog/internal/catalog"
	"github.com/xxxsen/romcatalog/internal/metadata"
	"github.com/xxxsen/romcatalog/internal/model"
	"github.com/xxxsen/romcatalog/internal/platform"
)

type staticSource struct {
	records []model.Record
	err     error
}

func (s staticSource) Parse(string) ([]model.Record, error) {
	return s.records, s.err
}

type recordingWriter struct {
	writes map[string][]model.Record
	err    error
}

func (w *recordingWriter) Write(path string, records []model.Record) error {
	if w.err != nil {
		return w.err
	}
	if w.writes == nil {
		w.writes = make(map[string][]model.Record)
	}
	w.writes[path] = records
	return nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("rom"), 0o644))
}

func TestSyncFillsEmptyFieldsFromPegasus(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	touch(t, filepath.Join(base, "game1.bin"))
	foreignPath := filepath.Join(base, metadata.PegasusFileName)
	require.NoError(t, os.WriteFile(foreignPath, []byte("game: Foreign Title\nfile: game1.bin\ngenre: RPG\n"), 0o644))

	codec := catalog.NewCodec()
	catalogPath := filepath.Join(base, catalog.FileName)
	require.NoError(t, codec.Write(catalogPath, []model.Record{{RomFile: "game1.bin", Title: "My Title"}}))
	existing, err := codec.Parse(catalogPath, base)
	require.NoError(t, err)

	res, err := NewEngine(codec).Sync(context.Background(), Input{
		Folders: []Folder{{
			Key:        "snes",
			Path:       base,
			Extensions: platform.NewExtensionSet("bin"),
			Records:    existing,
		}},
		ForeignPath: foreignPath,
		Source:      metadata.PegasusCodec{},
	})
	require.NoError(t, err)
	require.Len(t, res.Changed["snes"], 1)
	assert.Equal(t, 1, res.ChangedCount())

	reloaded, err := codec.Parse(catalogPath, base)
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Equal(t, "My Title", reloaded[0].Title)
	assert.Equal(t, "RPG", reloaded[0].Genre)
}

func TestSyncInsertsIntoOwningFolder(t *testing.T) {
	t.Parallel()

	first := t.TempDir()
	second := t.TempDir()
	missing := filepath.Join(t.TempDir(), "unplugged")
	touch(t, filepath.Join(first, "alpha.zip"))
	touch(t, filepath.Join(second, "discs", "Beta.ZIP"))
	touch(t, filepath.Join(second, "gamma.zip"))

	exts := platform.NewExtensionSet("zip")
	src := staticSource{records: []model.Record{
		{RomFile: "alpha.zip", Title: "Alpha", Genre: "Puzzle"},
		{RomFile: "beta.zip", Title: "Beta"},
		{RomFile: "beta.zip", Title: "Beta Duplicate", Developer: "ignored"},
		{RomFile: "notondisk.zip", Title: "Ghost"},
		{Title: "No file"},
		{RomFile: "gamma.zip", Ignore: true},
	}}
	writer := &recordingWriter{}

	res, err := NewEngine(writer).Sync(context.Background(), Input{
		Folders: []Folder{
			{Key: "a", Path: first, PlatformID: "snes", Extensions: exts, Records: []model.Record{
				{RomFile: "ALPHA.zip", Title: "Existing", Genre: "Action"},
			}},
			{Key: "b", Path: second, PlatformID: "snes", Extensions: exts},
			{Key: "c", Path: missing, Extensions: exts},
		},
		Source: src,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Matched)

	require.Len(t, res.Changed["a"], 0, "alpha had every foreign field but title and genre already set")
	assert.NotContains(t, writer.writes, filepath.Join(first, catalog.FileName))

	b := writer.writes[filepath.Join(second, catalog.FileName)]
	require.Len(t, b, 2)
	assert.Equal(t, model.Record{RomFile: "Beta.ZIP", SubFolder: "discs", PlatformID: "snes", Title: "Beta"}, b[0])
	assert.Equal(t, model.Record{RomFile: "gamma.zip", PlatformID: "snes", Ignore: true}, b[1])
	assert.Equal(t, b, res.Catalogs["b"])
	assert.NotContains(t, res.Changed, "c")
}

func TestSyncMergeIsNonDestructive(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	touch(t, filepath.Join(base, "x.iso"))
	existing := model.Record{RomFile: "x.iso", Title: "Keep", CoverImagePath: "cover.png", IsFavorite: true}
	foreign := model.Record{
		RomFile: "x.iso", Title: "Replace", CoverImagePath: "other.png",
		Description: "desc", LogoImagePath: "logo.png", HasKorean: true,
	}
	writer := &recordingWriter{}

	res, err := NewEngine(writer).Sync(context.Background(), Input{
		Folders: []Folder{{Key: "ps", Path: base, Extensions: platform.NewExtensionSet("iso"), Records: []model.Record{existing}}},
		Source:  staticSource{records: []model.Record{foreign}},
	})
	require.NoError(t, err)
	got := res.Catalogs["ps"][0]
	assert.Equal(t, "Keep", got.Title)
	assert.Equal(t, "cover.png", got.CoverImagePath)
	assert.True(t, got.IsFavorite)
	assert.Equal(t, "desc", got.Description)
	assert.Equal(t, "logo.png", got.LogoImagePath)
	assert.True(t, got.HasKorean)
}

func TestSyncErrors(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	touch(t, filepath.Join(base, "x.iso"))
	folders := []Folder{{Key: "ps", Path: base, Extensions: platform.NewExtensionSet("iso")}}

	_, err := NewEngine(&recordingWriter{}).Sync(context.Background(), Input{Folders: folders})
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = NewEngine(&recordingWriter{}).Sync(context.Background(), Input{
		Folders: folders,
		Source:  staticSource{err: boom},
	})
	assert.ErrorIs(t, err, boom)

	diskFull := errors.New("disk full")
	res, err := NewEngine(&recordingWriter{err: diskFull}).Sync(context.Background(), Input{
		Folders: folders,
		Source:  staticSource{records: []model.Record{{RomFile: "x.iso", Title: "X"}}},
	})
	assert.ErrorIs(t, err, diskFull)
	require.NotNil(t, res)
	assert.Len(t, res.Changed["ps"], 1)
	assert.Empty(t, res.Catalogs)
}
