package store

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/model"
	"go.uber.org/zap"
)

// Stage applies an in-memory edit to the records of a folder. The edit is
// visible to LoadMetadata at once and persisted by FlushStaged, usually
// driven by a Flusher. Edits of one folder are applied one at a time.
func (s *Service) Stage(ctx context.Context, folderKey string, edit func([]model.Record) []model.Record) error {
	f, err := s.folder(folderKey)
	if err != nil {
		return err
	}
	unlock := s.lockFolder(folderKey)
	defer unlock()

	records, err := s.current(ctx, f)
	if err != nil {
		return err
	}
	records = edit(records)

	s.listMu.Lock()
	s.listings[folderKey] = records
	s.staged[folderKey] = struct{}{}
	s.listMu.Unlock()
	return nil
}

// FlushStaged writes the staged records of a folder. A folder without
// staged edits is left alone.
func (s *Service) FlushStaged(ctx context.Context, folderKey string) error {
	f, err := s.folder(folderKey)
	if err != nil {
		return err
	}
	unlock := s.lockFolder(folderKey)
	defer unlock()

	s.listMu.RLock()
	_, pending := s.staged[folderKey]
	records := cloneRecords(s.listings[folderKey])
	s.listMu.RUnlock()
	if !pending {
		return nil
	}
	if err := s.save(f, records); err != nil {
		return fmt.Errorf("flush staged catalog: %w", err)
	}
	logutil.GetLogger(ctx).Debug("staged catalog flushed",
		zap.String("folder", folderKey),
		zap.Int("records", len(records)),
	)
	return nil
}

// dropListing forgets the cached and staged records of a folder.
func (s *Service) dropListing(folderKey string) {
	s.listMu.Lock()
	delete(s.staged, folderKey)
	delete(s.listings, folderKey)
	s.listMu.Unlock()
}
