package store

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/metadata"
	"github.com/xxxsen/romcatalog/internal/reconcile"
	"go.uber.org/zap"
)

// SyncForeign merges a foreign metadata file into the catalogs of every
// folder mapped to the platform. When src is nil the codec is chosen from
// the file name.
func (s *Service) SyncForeign(ctx context.Context, platformID, foreignPath string, src reconcile.Source) (*reconcile.Result, error) {
	id := s.registry.NormalizePlatformID(platformID)
	folders := s.folders.Folders(id)
	if len(folders) == 0 {
		return nil, fmt.Errorf("platform %q has no configured folder", platformID)
	}
	if src == nil {
		codec, ok := metadata.CodecFor(foreignPath)
		if !ok {
			return nil, fmt.Errorf("no codec for foreign metadata %s", foreignPath)
		}
		src = codec
	}

	// folders are locked in configuration order so concurrent syncs of
	// overlapping platforms can not deadlock
	exts := s.registry.ValidExtensions(id)
	in := reconcile.Input{ForeignPath: foreignPath, Source: src}
	for _, f := range folders {
		unlock := s.lockFolder(f.Key)
		defer unlock()

		records, err := s.current(ctx, f)
		if err != nil {
			logutil.GetLogger(ctx).Warn("skip folder during sync",
				zap.String("folder", f.Key),
				zap.Error(err),
			)
			continue
		}
		in.Folders = append(in.Folders, reconcile.Folder{
			Key:         f.Key,
			Path:        f.RealPath,
			CatalogPath: CatalogPath(f),
			PlatformID:  f.PlatformID,
			Extensions:  exts,
			Records:     records,
		})
	}

	res, err := s.engine.Sync(ctx, in)
	if res != nil {
		// rewritten catalogs already carry the staged edits they started from
		for key := range res.Catalogs {
			s.dropListing(key)
		}
	}
	s.InvalidatePlatform(id)
	if err != nil {
		return res, err
	}
	logutil.GetLogger(ctx).Info("foreign metadata synced",
		zap.String("platform", id),
		zap.String("source", foreignPath),
		zap.Int("matched", res.Matched),
		zap.Int("changed", res.ChangedCount()),
	)
	return res, nil
}
