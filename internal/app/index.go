package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	appdb "github.com/xxxsen/romcatalog/internal/db"
	"github.com/xxxsen/romcatalog/internal/platform"
	"go.uber.org/zap"
)

// IndexCommand rebuilds the sqlite index from the folder catalogs.
type IndexCommand struct {
	platform string
	folder   string

	env     *Env
	indexHandle
	folders []platform.Folder
	total   int
}

func (c *IndexCommand) Name() string { return "index" }

func (c *IndexCommand) Desc() string {
	return "把 catalog.ini 同步到 sqlite 索引，供 query 检索"
}

func NewIndexCommand() *IndexCommand { return &IndexCommand{} }

func (c *IndexCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.platform, "platform", "", "只重建该平台的目录")
	f.StringVar(&c.folder, "folder", "", "只重建该目录 key")
}

func (c *IndexCommand) PreRun(ctx context.Context) error {
	env, err := EnvFrom(ctx)
	if err != nil {
		return err
	}
	folders, err := selectFolders(env.Service, c.platform, c.folder)
	if err != nil {
		return err
	}
	db, err := env.OpenIndex(ctx)
	if err != nil {
		return err
	}
	c.env, c.db, c.folders, c.total = env, db, folders, 0

	logutil.GetLogger(ctx).Info("starting index rebuild",
		zap.String("index", env.Config.Index.Path),
		zap.Int("folders", len(folders)),
	)
	return nil
}

func (c *IndexCommand) Run(ctx context.Context) error {
	return c.closeOnError(ctx, c.rebuild(ctx))
}

func (c *IndexCommand) rebuild(ctx context.Context) error {
	dao := appdb.NewIndexDAO(c.db)
	var errs []error
	for _, f := range c.folders {
		records, err := c.env.Service.LoadMetadata(ctx, f.Key)
		if err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", f.Key, err))
			continue
		}
		n, err := dao.ReplaceFolder(ctx, f.Key, records)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.total += n
		c.env.printf("%s\t%d indexed\n", f.Key, n)
	}
	return errors.Join(errs...)
}

func (c *IndexCommand) PostRun(ctx context.Context) error {
	defer c.close(ctx)
	count, err := appdb.NewIndexDAO(c.db).Count(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("index rebuild completed",
		zap.Int("indexed", c.total),
		zap.Int("rows", count),
	)
	return nil
}

func init() {
	RegisterRunner("index", func() IRunner { return NewIndexCommand() })
}
