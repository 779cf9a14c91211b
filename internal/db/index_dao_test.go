package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/romcatalog/internal/model"
)

func openMemory(t *testing.T) *IndexDAO {
	t.Helper()
	db, err := Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewIndexDAO(db)
}

func TestReplaceFolderAndSearch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dao := openMemory(t)

	n, err := dao.ReplaceFolder(ctx, "snes-a", []model.Record{
		{RomFile: "mario.sfc", PlatformID: "snes", Title: "Super Mario World", Genre: "Platform", IsFavorite: true},
		{RomFile: "zelda.sfc", PlatformID: "snes", Section: "Zelda", Genre: "Action, Adventure"},
		{RomFile: "MARIO.SFC", PlatformID: "snes", Title: "Duplicate"},
		{RomFile: "", Title: "No file"},
		{RomFile: "bad.sfc", PlatformID: "snes", Title: "Bad Dump", Ignore: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = dao.ReplaceFolder(ctx, "gba", []model.Record{
		{RomFile: "metroid.gba", PlatformID: "gba", Title: "Metroid Fusion", Genre: "Action"},
	})
	require.NoError(t, err)

	total, err := dao.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	all, err := dao.Search(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Metroid Fusion", all[0].Title)
	assert.Equal(t, "gba", all[0].FolderKey)
	assert.Equal(t, "Super Mario World", all[1].Title)
	assert.True(t, all[1].IsFavorite)
	assert.Equal(t, "Zelda", all[2].Title, "section name stands in for a missing title")

	action, err := dao.Search(ctx, Query{Genre: "action", PlatformID: "snes"})
	require.NoError(t, err)
	require.Len(t, action, 1)
	assert.Equal(t, "zelda.sfc", action[0].RomFile)

	favorites, err := dao.Search(ctx, Query{FavoriteOnly: true})
	require.NoError(t, err)
	require.Len(t, favorites, 1)

	withIgnored, err := dao.Search(ctx, Query{Title: "bad", IncludeIgnored: true})
	require.NoError(t, err)
	require.Len(t, withIgnored, 1)
	assert.True(t, withIgnored[0].Ignore)

	limited, err := dao.Search(ctx, Query{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = dao.ReplaceFolder(ctx, "snes-a", nil)
	require.NoError(t, err)
	total, err = dao.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestReplaceFolderLargeBatch(t *testing.T) {
	t.Parallel()

	dao := openMemory(t)
	records := make([]model.Record, 0, 1200)
	for i := 0; i < 1200; i++ {
		records = append(records, model.Record{RomFile: fmt.Sprintf("rom-%04d.zip", i), PlatformID: "arcade"})
	}
	n, err := dao.ReplaceFolder(context.Background(), "arcade", records)
	require.NoError(t, err)
	assert.Equal(t, 1200, n)
}

func TestOpenFileIndex(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "index.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()
	assert.FileExists(t, path)
}

func TestReplaceFolderBeginFails(t *testing.T) {
	t.Parallel()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	_, err = NewIndexDAO(sqlDB).ReplaceFolder(context.Background(), "snes", []model.Record{{RomFile: "a.sfc"}})
	assert.ErrorContains(t, err, "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceFolderRollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM").WithArgs("snes").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err = NewIndexDAO(sqlDB).ReplaceFolder(context.Background(), "snes", []model.Record{{RomFile: "a.sfc"}})
	assert.ErrorContains(t, err, "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchQueryFails(t *testing.T) {
	t.Parallel()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("no such table"))
	_, err = NewIndexDAO(sqlDB).Search(context.Background(), Query{Title: "mario"})
	assert.ErrorContains(t, err, "no such table")
	assert.NoError(t, mock.ExpectationsWereMet())
}
