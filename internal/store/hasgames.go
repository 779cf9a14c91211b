package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/catalog"
	"github.com/xxxsen/romcatalog/internal/metadata"
	"github.com/xxxsen/romcatalog/internal/scanner"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// minCatalogSize is the size a catalog file must exceed to count as games.
const minCatalogSize = 10

// HasGames reports whether any folder of the platform holds a playable
// file or a non-trivial catalog. Answers are cached for the TTL and
// concurrent checks of one platform share a single computation.
func (s *Service) HasGames(ctx context.Context, platformID string) bool {
	id := s.registry.NormalizePlatformID(platformID)
	if v, ok := s.cachedHasGames(id); ok {
		return v
	}
	v, _, _ := s.hasGroup.Do(id, func() (interface{}, error) {
		if v, ok := s.cachedHasGames(id); ok {
			return v, nil
		}
		found := s.computeHasGames(id)
		s.hasMu.Lock()
		s.hasGames[id] = hasGamesEntry{value: found, expires: s.now().Add(s.ttl)}
		s.hasMu.Unlock()
		logutil.GetLogger(ctx).Debug("has games computed",
			zap.String("platform", id),
			zap.Bool("found", found),
		)
		return found, nil
	})
	return v.(bool)
}

func (s *Service) cachedHasGames(id string) (bool, bool) {
	s.hasMu.Lock()
	defer s.hasMu.Unlock()
	entry, ok := s.hasGames[id]
	if !ok || !s.now().Before(entry.expires) {
		return false, false
	}
	return entry.value, true
}

func (s *Service) computeHasGames(id string) bool {
	exts := s.registry.ValidExtensions(id)
	for _, f := range s.folders.Folders(id) {
		if scanner.HasPlayable(f.RealPath, exts) {
			return true
		}
		for _, name := range []string{catalog.FileName, metadata.PegasusFileName, metadata.GamelistFileName} {
			info, err := os.Stat(filepath.Join(f.RealPath, name))
			if err == nil && !info.IsDir() && info.Size() > minCatalogSize {
				return true
			}
		}
	}
	return false
}

// PrewarmHasGames fills the has-games cache of every platform, running at
// most three checks at a time.
func (s *Service) PrewarmHasGames(ctx context.Context) (map[string]bool, error) {
	platforms := s.folders.Platforms()
	results := make([]bool, len(platforms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prewarmParallelism)
	for i, id := range platforms {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.HasGames(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]bool, len(platforms))
	for i, id := range platforms {
		out[id] = results[i]
	}
	return out, nil
}
