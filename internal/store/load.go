package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/catalog"
	"github.com/xxxsen/romcatalog/internal/metadata"
	"github.com/xxxsen/romcatalog/internal/model"
	"github.com/xxxsen/romcatalog/internal/platform"
	"github.com/xxxsen/romcatalog/internal/scanner"
	"go.uber.org/zap"
)

const corruptTimeLayout = "20060102-150405"

// LoadMetadata returns the records of a folder. The native catalog is
// preferred; without one the Pegasus and then the gamelist.xml metadata of
// the folder are used. Results are cached until invalidated.
func (s *Service) LoadMetadata(ctx context.Context, folderKey string) ([]model.Record, error) {
	s.listMu.RLock()
	cached, ok := s.listings[folderKey]
	s.listMu.RUnlock()
	if ok {
		return cloneRecords(cached), nil
	}

	f, err := s.folder(folderKey)
	if err != nil {
		return nil, err
	}
	unlock := s.lockFolder(folderKey)
	defer unlock()

	records, err := s.current(ctx, f)
	if err != nil {
		return nil, err
	}
	s.listMu.Lock()
	if _, ok := s.listings[folderKey]; !ok {
		s.listings[folderKey] = cloneRecords(records)
	}
	s.listMu.Unlock()
	return records, nil
}

// current returns the records a modification of the folder must start
// from: the staged listing when there is one, the files otherwise. The
// folder lock must be held.
func (s *Service) current(ctx context.Context, f platform.Folder) ([]model.Record, error) {
	s.listMu.RLock()
	_, pending := s.staged[f.Key]
	records := cloneRecords(s.listings[f.Key])
	s.listMu.RUnlock()
	if pending {
		return records, nil
	}
	return s.load(ctx, f)
}

// load reads a folder without consulting the cache. The folder lock must
// be held.
func (s *Service) load(ctx context.Context, f platform.Folder) ([]model.Record, error) {
	logger := logutil.GetLogger(ctx)
	path := CatalogPath(f)

	records, err := s.codec.Parse(path, f.RealPath)
	if errors.Is(err, catalog.ErrCorrupt) {
		backup, berr := s.backupCorrupt(path)
		if berr != nil {
			return nil, fmt.Errorf("back up corrupt catalog %s: %w", path, berr)
		}
		logger.Warn("corrupt catalog moved aside",
			zap.String("folder", f.Key),
			zap.String("backup", backup),
			zap.Error(err),
		)
		records, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	if records == nil && !fileExists(path) {
		records, err = s.loadForeign(ctx, f)
		if err != nil {
			return nil, err
		}
	}

	for i := range records {
		records[i].PlatformID = f.PlatformID
	}
	return records, nil
}

func (s *Service) loadForeign(ctx context.Context, f platform.Folder) ([]model.Record, error) {
	codec, path, ok := metadata.Detect(f.RealPath)
	if !ok {
		return nil, nil
	}
	foreign, err := codec.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("load %s metadata of %s: %w", codec.Name(), f.Key, err)
	}
	var out []model.Record
	for _, rec := range foreign {
		if strings.TrimSpace(rec.RomFile) == "" {
			continue
		}
		if !fileExists(filepath.Join(f.RealPath, rec.RelPath())) {
			continue
		}
		out = append(out, rec)
	}
	out = model.Dedupe(out)
	logutil.GetLogger(ctx).Debug("loaded foreign metadata",
		zap.String("folder", f.Key),
		zap.String("codec", codec.Name()),
		zap.Int("records", len(out)),
	)
	return out, nil
}

// backupCorrupt moves a catalog that can not be read to a timestamped name
// next to it, so the next load starts from an empty catalog.
func (s *Service) backupCorrupt(path string) (string, error) {
	backup := path + ".corrupt-" + s.now().Format(corruptTimeLayout)
	if err := os.Rename(path, backup); err != nil {
		return "", err
	}
	return backup, nil
}

// SaveMetadata replaces the catalog of a folder.
func (s *Service) SaveMetadata(ctx context.Context, folderKey string, records []model.Record) error {
	f, err := s.folder(folderKey)
	if err != nil {
		return err
	}
	unlock := s.lockFolder(folderKey)
	defer unlock()

	if err := s.save(f, records); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("catalog saved",
		zap.String("folder", folderKey),
		zap.Int("records", len(records)),
	)
	return nil
}

// save writes the catalog of a folder. The written records supersede any
// staged listing. The folder lock must be held.
func (s *Service) save(f platform.Folder, records []model.Record) error {
	defer s.InvalidatePlatform(f.PlatformID)
	if err := s.codec.Write(CatalogPath(f), model.Dedupe(records)); err != nil {
		return fmt.Errorf("save catalog of %s: %w", f.Key, err)
	}
	s.dropListing(f.Key)
	return nil
}

// ScanRomsFolder adds a bare record for every playable file of the folder
// that the catalog does not know yet. The catalog is rewritten only when
// something was added.
func (s *Service) ScanRomsFolder(ctx context.Context, folderKey string) ([]model.Record, error) {
	f, err := s.folder(folderKey)
	if err != nil {
		return nil, err
	}
	unlock := s.lockFolder(folderKey)
	defer unlock()

	existing, err := s.current(ctx, f)
	if err != nil {
		return nil, err
	}
	added, err := scanner.Scan(ctx, f.RealPath, s.registry.ValidExtensions(f.PlatformID), existing)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return nil, nil
	}
	for i := range added {
		added[i].PlatformID = f.PlatformID
	}
	if err := s.save(f, append(existing, added...)); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("rom folder scanned",
		zap.String("folder", folderKey),
		zap.Int("added", len(added)),
		zap.Int("total", len(existing)+len(added)),
	)
	return added, nil
}

// PlatformGames returns the records of every folder of a platform, sorted
// by display title.
func (s *Service) PlatformGames(ctx context.Context, platformID string) ([]model.Record, error) {
	id := s.registry.NormalizePlatformID(platformID)
	var out []model.Record
	for _, f := range s.folders.Folders(id) {
		records, err := s.LoadMetadata(ctx, f.Key)
		if err != nil {
			logutil.GetLogger(ctx).Warn("skip unreadable folder",
				zap.String("folder", f.Key),
				zap.Error(err),
			)
			continue
		}
		out = append(out, records...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return platform.SortKey(out[i].DisplayTitle()) < platform.SortKey(out[j].DisplayTitle())
	})
	return out, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
