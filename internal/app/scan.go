package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/platform"
	"go.uber.org/zap"
)

// ScanCommand appends newly found rom files to the folder catalogs.
type ScanCommand struct {
	platform string
	folder   string

	env     *Env
	folders []platform.Folder
	added   int
}

func (c *ScanCommand) Name() string { return "scan" }

func (c *ScanCommand) Desc() string {
	return "扫描 ROM 目录，把新发现的游戏追加到 catalog.ini"
}

func NewScanCommand() *ScanCommand { return &ScanCommand{} }

func (c *ScanCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.platform, "platform", "", "只扫描该平台的目录")
	f.StringVar(&c.folder, "folder", "", "只扫描该目录 key")
}

func (c *ScanCommand) PreRun(ctx context.Context) error {
	env, err := EnvFrom(ctx)
	if err != nil {
		return err
	}
	folders, err := selectFolders(env.Service, c.platform, c.folder)
	if err != nil {
		return err
	}
	c.env, c.folders, c.added = env, folders, 0

	logutil.GetLogger(ctx).Info("starting scan", zap.Int("folders", len(folders)))
	return nil
}

func (c *ScanCommand) Run(ctx context.Context) error {
	var errs []error
	for _, f := range c.folders {
		added, err := c.env.Service.ScanRomsFolder(ctx, f.Key)
		if err != nil {
			logutil.GetLogger(ctx).Warn("scan folder failed", zap.String("folder", f.Key), zap.Error(err))
			errs = append(errs, fmt.Errorf("scan %s: %w", f.Key, err))
			continue
		}
		c.added += len(added)
		c.env.printf("%s\t%d added\n", f.Key, len(added))
	}
	return errors.Join(errs...)
}

func (c *ScanCommand) PostRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("scan completed", zap.Int("added", c.added))
	return nil
}

func init() {
	RegisterRunner("scan", func() IRunner { return NewScanCommand() })
}
