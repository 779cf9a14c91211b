package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/romcatalog/internal/config"
	appdb "github.com/xxxsen/romcatalog/internal/db"
	"github.com/xxxsen/romcatalog/internal/platform"
	"github.com/xxxsen/romcatalog/internal/storage"
	"github.com/xxxsen/romcatalog/internal/store"
)

// Env carries the process wide dependencies of the runners.
type Env struct {
	Config  *config.Config
	Service *store.Service
	Out     io.Writer

	storageOnce sync.Once
	storage     storage.Client
	storageErr  error
}

// EnvOption customises an Env.
type EnvOption func(*Env)

// WithOutput redirects runner output, stdout by default.
func WithOutput(w io.Writer) EnvOption {
	return func(e *Env) {
		if w != nil {
			e.Out = w
		}
	}
}

// WithStorage presets the backup storage client.
func WithStorage(c storage.Client) EnvOption {
	return func(e *Env) {
		if c != nil {
			e.storageOnce.Do(func() { e.storage = c })
		}
	}
}

// NewEnv wires the catalog service from configuration.
func NewEnv(cfg *config.Config, opts ...EnvOption) *Env {
	defs := make([]platform.Definition, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		defs = append(defs, platform.Definition{
			ID:         p.ID,
			Aliases:    p.Aliases,
			Extensions: p.Extensions,
			Emulator:   p.Emulator,
		})
	}
	mappings := make([]platform.PrefixMapping, 0, len(cfg.PathMappings))
	for _, m := range cfg.PathMappings {
		mappings = append(mappings, platform.PrefixMapping{Display: m.Display, Real: m.Real})
	}
	folderCfgs := make([]platform.FolderConfig, 0, len(cfg.Folders))
	for _, f := range cfg.Folders {
		folderCfgs = append(folderCfgs, platform.FolderConfig{Key: f.Key, Path: f.Path, Platform: f.Platform})
	}

	registry := platform.NewRegistry(defs)
	folders := platform.NewFolderMap(folderCfgs, registry, platform.NewPrefixResolver(mappings))

	var svcOpts []store.Option
	if cfg.Cache.HasGamesTTLSeconds > 0 {
		svcOpts = append(svcOpts, store.WithHasGamesTTL(time.Duration(cfg.Cache.HasGamesTTLSeconds)*time.Second))
	}

	env := &Env{
		Config:  cfg,
		Service: store.New(registry, folders, svcOpts...),
		Out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// Storage returns the backup storage client, creating it on first use.
func (e *Env) Storage(ctx context.Context) (storage.Client, error) {
	e.storageOnce.Do(func() {
		e.storage, e.storageErr = storage.NewS3Client(ctx, e.Config.S3)
	})
	return e.storage, e.storageErr
}

// OpenIndex opens the configured catalog index.
func (e *Env) OpenIndex(ctx context.Context) (*sql.DB, error) {
	if strings.TrimSpace(e.Config.Index.Path) == "" {
		return nil, errors.New("config.index.path must be set")
	}
	return appdb.Open(ctx, e.Config.Index.Path)
}

// FlushInterval is the debounce window used for staged catalog edits.
func (e *Env) FlushInterval() time.Duration {
	if e.Config.Cache.FlushIntervalSeconds > 0 {
		return time.Duration(e.Config.Cache.FlushIntervalSeconds) * time.Second
	}
	return time.Second
}

type envKey struct{}

// WithEnv attaches env to ctx.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

var errNoEnv = errors.New("runner environment not initialised")

// EnvFrom returns the env attached to ctx.
func EnvFrom(ctx context.Context) (*Env, error) {
	env, ok := ctx.Value(envKey{}).(*Env)
	if !ok || env == nil {
		return nil, errNoEnv
	}
	return env, nil
}

func (e *Env) printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}
