package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/xxxsen/romcatalog/internal/model"
)

const (
	indexTableName  = "catalog_game_tab"
	insertBatchSize = 500
)

var indexColumns = []string{
	"folder_key", "platform_id", "sub_folder", "rom_file", "title",
	"developer", "genre", "description", "is_favorite", "ignored",
}

// IndexedGame is one catalog record as stored in the index.
type IndexedGame struct {
	FolderKey string
	model.Record
}

// Query filters a search. Empty fields do not filter.
type Query struct {
	Title          string
	Genre          string
	PlatformID     string
	FavoriteOnly   bool
	IncludeIgnored bool
	Limit          uint
}

// IndexDAO mirrors catalogs into the sqlite index.
type IndexDAO struct {
	db  *sql.DB
	now func() time.Time
}

// NewIndexDAO builds a DAO over an opened index.
func NewIndexDAO(db *sql.DB) *IndexDAO {
	return &IndexDAO{db: db, now: time.Now}
}

// ReplaceFolder swaps every indexed row of a folder for records in one
// transaction. Records without a rom file are skipped.
func (dao *IndexDAO) ReplaceFolder(ctx context.Context, folderKey string, records []model.Record) (int, error) {
	tx, err := dao.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin index tx: %w", err)
	}
	defer tx.Rollback()

	deleteSQL, deleteArgs, err := builder.BuildDelete(indexTableName, map[string]interface{}{
		"folder_key": folderKey,
	})
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, deleteSQL, deleteArgs...); err != nil {
		return 0, fmt.Errorf("clear folder %s: %w", folderKey, err)
	}

	now := dao.now().Unix()
	payload := make([]map[string]interface{}, 0, len(records))
	for _, rec := range model.Dedupe(records) {
		payload = append(payload, map[string]interface{}{
			"folder_key":  folderKey,
			"platform_id": rec.PlatformID,
			"sub_folder":  rec.SubFolder,
			"rom_file":    rec.RomFile,
			"title":       rec.DisplayTitle(),
			"developer":   rec.Developer,
			"genre":       rec.Genre,
			"description": rec.Description,
			"is_favorite": boolToInt(rec.IsFavorite),
			"ignored":     boolToInt(rec.Ignore),
			"update_time": now,
		})
	}
	for start := 0; start < len(payload); start += insertBatchSize {
		end := min(start+insertBatchSize, len(payload))
		insertSQL, insertArgs, err := builder.BuildInsert(indexTableName, payload[start:end])
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
			return 0, fmt.Errorf("insert folder %s: %w", folderKey, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit index tx: %w", err)
	}
	return len(payload), nil
}

// Search returns the indexed games matching q ordered by platform and title.
func (dao *IndexDAO) Search(ctx context.Context, q Query) ([]IndexedGame, error) {
	where := map[string]interface{}{
		"_orderby": "platform_id asc, title asc",
	}
	if v := strings.TrimSpace(q.Title); v != "" {
		where["title like"] = "%" + v + "%"
	}
	if v := strings.TrimSpace(q.Genre); v != "" {
		where["genre like"] = "%" + v + "%"
	}
	if v := strings.TrimSpace(q.PlatformID); v != "" {
		where["platform_id"] = v
	}
	if q.FavoriteOnly {
		where["is_favorite"] = 1
	}
	if !q.IncludeIgnored {
		where["ignored"] = 0
	}
	if q.Limit > 0 {
		where["_limit"] = []uint{0, q.Limit}
	}

	query, args, err := builder.BuildSelect(indexTableName, where, indexColumns)
	if err != nil {
		return nil, err
	}
	rows, err := dao.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer rows.Close()

	var out []IndexedGame
	for rows.Next() {
		var (
			game     IndexedGame
			favorite int
			ignored  int
		)
		if err := rows.Scan(&game.FolderKey, &game.PlatformID, &game.SubFolder, &game.RomFile, &game.Title,
			&game.Developer, &game.Genre, &game.Description, &favorite, &ignored); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		game.IsFavorite = favorite != 0
		game.Ignore = ignored != 0
		out = append(out, game)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of indexed games.
func (dao *IndexDAO) Count(ctx context.Context) (int, error) {
	var n int
	if err := dao.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+indexTableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("count index: %w", err)
	}
	return n, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
