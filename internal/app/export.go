package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/metadata"
	"github.com/xxxsen/romcatalog/internal/platform"
	"go.uber.org/zap"
)

// ExportCommand writes the catalog of a folder as Pegasus metadata.
type ExportCommand struct {
	folder string
	out    string

	env    *Env
	target platform.Folder
	path   string
	games  int
}

func (c *ExportCommand) Name() string { return "export" }

func (c *ExportCommand) Desc() string {
	return "把目录的 catalog.ini 导出为 metadata.pegasus.txt"
}

func NewExportCommand() *ExportCommand { return &ExportCommand{} }

func (c *ExportCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.folder, "folder", "", "目录 key")
	f.StringVar(&c.out, "out", "", "输出文件，默认写到目录下的 metadata.pegasus.txt")
}

func (c *ExportCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.folder) == "" {
		return errors.New("export requires --folder")
	}
	env, err := EnvFrom(ctx)
	if err != nil {
		return err
	}
	folders, err := selectFolders(env.Service, "", c.folder)
	if err != nil {
		return err
	}
	c.env, c.target, c.games = env, folders[0], 0
	c.path = strings.TrimSpace(c.out)
	if c.path == "" {
		c.path = filepath.Join(c.target.RealPath, metadata.PegasusFileName)
	}
	return nil
}

func (c *ExportCommand) Run(ctx context.Context) error {
	records, err := c.env.Service.LoadMetadata(ctx, c.target.Key)
	if err != nil {
		return err
	}
	reg := c.env.Service.Registry()
	doc := metadata.FromRecords(c.target.PlatformID, reg.ValidExtensions(c.target.PlatformID).List(), records, filepath.Dir(c.path))
	if err := metadata.WriteDocument(c.path, doc); err != nil {
		return err
	}
	c.games = len(doc.Blocks) - 1
	c.env.printf("%s\t%s\t%d games\n", c.target.Key, c.path, c.games)
	return nil
}

func (c *ExportCommand) PostRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("export completed",
		zap.String("folder", c.target.Key),
		zap.String("path", c.path),
		zap.Int("games", c.games),
	)
	return nil
}

func init() {
	RegisterRunner("export", func() IRunner { return NewExportCommand() })
}
