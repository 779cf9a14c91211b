package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/catalog"
	"github.com/xxxsen/romcatalog/internal/platform"
	"github.com/xxxsen/romcatalog/internal/storage"
	"github.com/xxxsen/romcatalog/internal/store"
	"go.uber.org/zap"
)

const catalogContentType = "text/plain; charset=utf-8"

// backupKey is the object key of a folder catalog.
func backupKey(prefix string, f platform.Folder) string {
	return storage.ObjectKey(prefix, f.Key, catalog.FileName)
}

type backupBase struct {
	platform string
	folder   string

	env     *Env
	client  storage.Client
	folders []platform.Folder
	done    int
}

func (b *backupBase) initFlags(f *pflag.FlagSet) {
	f.StringVar(&b.platform, "platform", "", "只处理该平台的目录")
	f.StringVar(&b.folder, "folder", "", "只处理该目录 key")
}

func (b *backupBase) prepare(ctx context.Context) error {
	env, err := EnvFrom(ctx)
	if err != nil {
		return err
	}
	if !env.Config.S3.Enabled() {
		return errors.New("config.s3 host and bucket must be set")
	}
	folders, err := selectFolders(env.Service, b.platform, b.folder)
	if err != nil {
		return err
	}
	client, err := env.Storage(ctx)
	if err != nil {
		return err
	}
	b.env, b.client, b.folders, b.done = env, client, folders, 0
	return nil
}

// BackupCommand uploads the folder catalogs to the object store.
type BackupCommand struct {
	backupBase
}

func (c *BackupCommand) Name() string { return "backup" }

func (c *BackupCommand) Desc() string {
	return "把各目录的 catalog.ini 备份到 S3"
}

func NewBackupCommand() *BackupCommand { return &BackupCommand{} }

func (c *BackupCommand) Init(f *pflag.FlagSet) { c.initFlags(f) }

func (c *BackupCommand) PreRun(ctx context.Context) error {
	if err := c.prepare(ctx); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("starting backup",
		zap.String("bucket", c.env.Config.S3.Bucket),
		zap.Int("folders", len(c.folders)),
	)
	return nil
}

func (c *BackupCommand) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	var errs []error
	for _, f := range c.folders {
		path := store.CatalogPath(f)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logger.Debug("no catalog to back up", zap.String("folder", f.Key))
			continue
		}
		key := backupKey(c.env.Config.S3.Prefix, f)
		if err := c.client.UploadFile(ctx, key, path, catalogContentType); err != nil {
			errs = append(errs, fmt.Errorf("back up %s: %w", f.Key, err))
			continue
		}
		c.done++
		c.env.printf("%s\t%s\n", f.Key, key)
	}
	return errors.Join(errs...)
}

func (c *BackupCommand) PostRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("backup completed", zap.Int("catalogs", c.done))
	return nil
}

// RestoreCommand replaces the folder catalogs with their backups.
type RestoreCommand struct {
	backupBase
}

func (c *RestoreCommand) Name() string { return "restore" }

func (c *RestoreCommand) Desc() string {
	return "从 S3 恢复各目录的 catalog.ini"
}

func NewRestoreCommand() *RestoreCommand { return &RestoreCommand{} }

func (c *RestoreCommand) Init(f *pflag.FlagSet) { c.initFlags(f) }

func (c *RestoreCommand) PreRun(ctx context.Context) error {
	if err := c.prepare(ctx); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("starting restore",
		zap.String("bucket", c.env.Config.S3.Bucket),
		zap.Int("folders", len(c.folders)),
	)
	return nil
}

func (c *RestoreCommand) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	keys, err := c.client.ListKeys(ctx, storage.ObjectKey(c.env.Config.S3.Prefix))
	if err != nil {
		return err
	}
	available := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		available[k] = struct{}{}
	}

	var errs []error
	for _, f := range c.folders {
		key := backupKey(c.env.Config.S3.Prefix, f)
		if _, ok := available[key]; !ok {
			logger.Warn("no backup for folder", zap.String("folder", f.Key), zap.String("key", key))
			continue
		}
		if err := c.client.DownloadToFile(ctx, key, store.CatalogPath(f)); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", f.Key, err))
			continue
		}
		c.env.Service.InvalidatePlatform(f.PlatformID)
		c.done++
		c.env.printf("%s\t%s\n", f.Key, key)
	}
	return errors.Join(errs...)
}

func (c *RestoreCommand) PostRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("restore completed", zap.Int("catalogs", c.done))
	return nil
}

func init() {
	RegisterRunner("backup", func() IRunner { return NewBackupCommand() })
	RegisterRunner("restore", func() IRunner { return NewRestoreCommand() })
}
