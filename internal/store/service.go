package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/xxxsen/romcatalog/internal/catalog"
	"github.com/xxxsen/romcatalog/internal/model"
	"github.com/xxxsen/romcatalog/internal/platform"
	"github.com/xxxsen/romcatalog/internal/reconcile"
	"golang.org/x/sync/singleflight"
)

// DefaultHasGamesTTL is how long a has-games answer stays valid.
const DefaultHasGamesTTL = 30 * time.Minute

const prewarmParallelism = 3

// Service is the catalog facade used by the runners. It owns every cache;
// one instance is built per process and shared.
type Service struct {
	codec    *catalog.Codec
	registry *platform.Registry
	folders  *platform.FolderMap
	engine   *reconcile.Engine

	ttl time.Duration
	now func() time.Time

	listMu   sync.RWMutex
	listings map[string][]model.Record
	staged   map[string]struct{}

	hasMu    sync.Mutex
	hasGames map[string]hasGamesEntry
	hasGroup singleflight.Group

	locks sync.Map
}

type hasGamesEntry struct {
	value   bool
	expires time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithHasGamesTTL overrides the has-games cache lifetime.
func WithHasGamesTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodec shares a catalog codec with other components.
func WithCodec(codec *catalog.Codec) Option {
	return func(s *Service) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// New builds a catalog service over the configured folders.
func New(registry *platform.Registry, folders *platform.FolderMap, opts ...Option) *Service {
	s := &Service{
		codec:    catalog.NewCodec(),
		registry: registry,
		folders:  folders,
		ttl:      DefaultHasGamesTTL,
		now:      time.Now,
		listings: make(map[string][]model.Record),
		staged:   make(map[string]struct{}),
		hasGames: make(map[string]hasGamesEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = reconcile.NewEngine(s.codec)
	return s
}

// Folders returns every configured folder.
func (s *Service) Folders() []platform.Folder {
	return s.folders.All()
}

// Platforms returns the platform ids that have at least one folder.
func (s *Service) Platforms() []string {
	return s.folders.Platforms()
}

// Registry exposes the platform registry.
func (s *Service) Registry() *platform.Registry {
	return s.registry
}

// Invalidate drops the cached listing of a folder.
// Staged edits keep their listing until flushed.
func (s *Service) Invalidate(folderKey string) {
	s.listMu.Lock()
	if _, pending := s.staged[folderKey]; !pending {
		delete(s.listings, folderKey)
	}
	s.listMu.Unlock()
}

// InvalidatePlatform drops every cached answer of a platform.
func (s *Service) InvalidatePlatform(platformID string) {
	for _, f := range s.folders.Folders(platformID) {
		s.Invalidate(f.Key)
	}
	s.hasMu.Lock()
	delete(s.hasGames, platformID)
	s.hasMu.Unlock()
}

func (s *Service) folder(key string) (platform.Folder, error) {
	f, ok := s.folders.Lookup(key)
	if !ok {
		return platform.Folder{}, fmt.Errorf("folder %q is not configured", key)
	}
	return f, nil
}

func (s *Service) lockFolder(key string) func() {
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CatalogPath returns the native catalog file of a folder.
func CatalogPath(f platform.Folder) string {
	return filepath.Join(f.RealPath, catalog.FileName)
}

func cloneRecords(in []model.Record) []model.Record {
	if in == nil {
		return nil
	}
	out := make([]model.Record, len(in))
	copy(out, in)
	return out
}
