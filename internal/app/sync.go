package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/dat"
	"github.com/xxxsen/romcatalog/internal/metadata"
	"github.com/xxxsen/romcatalog/internal/reconcile"
	"go.uber.org/zap"
)

// SyncCommand merges a foreign metadata file into the catalogs of a platform.
type SyncCommand struct {
	platform string
	file     string
	format   string

	env    *Env
	source reconcile.Source
	result *reconcile.Result
}

func (c *SyncCommand) Name() string { return "sync" }

func (c *SyncCommand) Desc() string {
	return "把 Pegasus / gamelist.xml / DAT 元数据合并进平台的 catalog.ini"
}

func NewSyncCommand() *SyncCommand { return &SyncCommand{} }

func (c *SyncCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.platform, "platform", "", "目标平台")
	f.StringVar(&c.file, "file", "", "外部元数据文件路径")
	f.StringVar(&c.format, "format", "auto", "元数据格式: auto, pegasus, gamelist, dat")
}

func (c *SyncCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.platform) == "" {
		return errors.New("sync requires --platform")
	}
	if strings.TrimSpace(c.file) == "" {
		return errors.New("sync requires --file")
	}
	env, err := EnvFrom(ctx)
	if err != nil {
		return err
	}
	src, err := sourceFor(c.format, c.file)
	if err != nil {
		return err
	}
	c.env, c.source, c.result = env, src, nil

	logutil.GetLogger(ctx).Info("starting sync",
		zap.String("platform", c.platform),
		zap.String("file", c.file),
		zap.String("format", c.format),
	)
	return nil
}

// sourceFor picks the codec of a foreign file. auto decides by file name.
func sourceFor(format, file string) (reconcile.Source, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto":
		if strings.EqualFold(filepath.Ext(file), ".dat") {
			return dat.Codec{}, nil
		}
		codec, ok := metadata.CodecFor(file)
		if !ok {
			return nil, fmt.Errorf("can not detect metadata format of %s", file)
		}
		return codec, nil
	case "pegasus":
		return metadata.PegasusCodec{}, nil
	case "gamelist":
		return metadata.GamelistCodec{}, nil
	case "dat":
		return dat.Codec{}, nil
	default:
		return nil, fmt.Errorf("unknown metadata format %q", format)
	}
}

func (c *SyncCommand) Run(ctx context.Context) error {
	res, err := c.env.Service.SyncForeign(ctx, c.platform, c.file, c.source)
	c.result = res
	if res != nil {
		keys := make([]string, 0, len(res.Changed))
		for k := range res.Changed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c.env.printf("%s\t%d changed\n", k, len(res.Changed[k]))
		}
	}
	return err
}

func (c *SyncCommand) PostRun(ctx context.Context) error {
	if c.result == nil {
		return nil
	}
	logutil.GetLogger(ctx).Info("sync completed",
		zap.Int("matched", c.result.Matched),
		zap.Int("changed", c.result.ChangedCount()),
	)
	return nil
}

func init() {
	RegisterRunner("sync", func() IRunner { return NewSyncCommand() })
}
