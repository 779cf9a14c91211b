package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/romcatalog/internal/catalog"
	"github.com/xxxsen/romcatalog/internal/model"
)

func favorite(name string) func([]model.Record) []model.Record {
	return func(recs []model.Record) []model.Record {
		for i := range recs {
			if recs[i].RomFile == name {
				recs[i].IsFavorite = true
			}
		}
		return recs
	}
}

func TestStageConcurrentWithFlush(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	const games = 200
	var ini strings.Builder
	for i := 0; i < games; i++ {
		name := fmt.Sprintf("g%03d.gba", i)
		writeFile(t, filepath.Join(fx.gba, name), "rom")
		fmt.Fprintf(&ini, "[G%03d]\nromFile=%s\n\n", i, name)
	}
	writeFile(t, filepath.Join(fx.gba, catalog.FileName), ini.String())

	stop := make(chan struct{})
	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		for {
			select {
			case <-stop:
				return
			default:
				assert.NoError(t, fx.svc.FlushStaged(ctx, "gba"))
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < games; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, fx.svc.Stage(ctx, "gba", favorite(fmt.Sprintf("g%03d.gba", i))))
		}()
	}
	wg.Wait()
	close(stop)
	<-flushed
	require.NoError(t, fx.svc.FlushStaged(ctx, "gba"))

	records, err := catalog.NewCodec().Parse(filepath.Join(fx.gba, catalog.FileName), fx.gba)
	require.NoError(t, err)
	require.Len(t, records, games)
	for _, rec := range records {
		assert.True(t, rec.IsFavorite, rec.RomFile)
	}
}

func TestScanKeepsStagedEdits(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	writeFile(t, filepath.Join(fx.gba, "a.gba"), "rom")
	writeFile(t, filepath.Join(fx.gba, catalog.FileName), "[A]\nromFile=a.gba\n")

	require.NoError(t, fx.svc.Stage(ctx, "gba", favorite("a.gba")))
	writeFile(t, filepath.Join(fx.gba, "b.gba"), "rom")

	added, err := fx.svc.ScanRomsFolder(ctx, "gba")
	require.NoError(t, err)
	require.Len(t, added, 1)

	records, err := fx.svc.LoadMetadata(ctx, "gba")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].IsFavorite)

	require.NoError(t, fx.svc.FlushStaged(ctx, "gba"))
	data, err := os.ReadFile(filepath.Join(fx.gba, catalog.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "romFile=b.gba")
	assert.Contains(t, string(data), "isFavorite=true")
}

func TestSyncKeepsStagedEdits(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	writeFile(t, filepath.Join(fx.gba, "a.gba"), "rom")
	writeFile(t, filepath.Join(fx.gba, catalog.FileName), "[A]\nromFile=a.gba\n")
	foreign := filepath.Join(t.TempDir(), "metadata.pegasus.txt")
	writeFile(t, foreign, "game: A\nfile: a.gba\ngenre: RPG\n")

	require.NoError(t, fx.svc.Stage(ctx, "gba", favorite("a.gba")))
	res, err := fx.svc.SyncForeign(ctx, "gba", foreign, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ChangedCount())

	require.NoError(t, fx.svc.FlushStaged(ctx, "gba"))
	records, err := fx.svc.LoadMetadata(ctx, "gba")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsFavorite)
	assert.Equal(t, "RPG", records[0].Genre)
}
