package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/platform"
	"github.com/xxxsen/romcatalog/internal/store"
	"go.uber.org/zap"
)

// selectFolders picks the folders a runner works on: one folder by key,
// every folder of a platform, or every configured folder.
func selectFolders(svc *store.Service, platformID, folderKey string) ([]platform.Folder, error) {
	folderKey = strings.TrimSpace(folderKey)
	platformID = strings.TrimSpace(platformID)

	var out []platform.Folder
	for _, f := range svc.Folders() {
		if folderKey != "" && f.Key != folderKey {
			continue
		}
		if platformID != "" && f.PlatformID != svc.Registry().NormalizePlatformID(platformID) {
			continue
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		switch {
		case folderKey != "":
			return nil, fmt.Errorf("folder %q is not configured", folderKey)
		case platformID != "":
			return nil, fmt.Errorf("platform %q has no configured folder", platformID)
		default:
			return nil, fmt.Errorf("no folder configured")
		}
	}
	return out, nil
}

// indexHandle owns the sqlite handle a runner opened in PreRun.
type indexHandle struct {
	db *sql.DB
}

// closeOnError releases the handle when Run fails, since PostRun is skipped.
func (h *indexHandle) closeOnError(ctx context.Context, err error) error {
	if err != nil {
		h.close(ctx)
	}
	return err
}

func (h *indexHandle) close(ctx context.Context) {
	if h.db == nil {
		return
	}
	if err := h.db.Close(); err != nil {
		logutil.GetLogger(ctx).Warn("close index failed", zap.Error(err))
	}
	h.db = nil
}
