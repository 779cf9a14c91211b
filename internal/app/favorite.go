package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/model"
	"github.com/xxxsen/romcatalog/internal/store"
	"go.uber.org/zap"
)

// FavoriteCommand toggles the favorite flag of games. Edits are staged in
// memory and written by a flusher so a batch of toggles costs one save per
// folder.
type FavoriteCommand struct {
	folder string
	sub    string
	roms   []string
	unset  bool

	env     *Env
	missing []string
}

func (c *FavoriteCommand) Name() string { return "favorite" }

func (c *FavoriteCommand) Desc() string {
	return "收藏或取消收藏游戏"
}

func NewFavoriteCommand() *FavoriteCommand { return &FavoriteCommand{} }

func (c *FavoriteCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.folder, "folder", "", "目录 key")
	f.StringVar(&c.sub, "sub", "", "ROM 所在的子目录")
	f.StringSliceVar(&c.roms, "rom", nil, "ROM 文件名，可重复指定")
	f.BoolVar(&c.unset, "unset", false, "取消收藏")
}

func (c *FavoriteCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.folder) == "" {
		return errors.New("favorite requires --folder")
	}
	if len(c.roms) == 0 {
		return errors.New("favorite requires --rom")
	}
	env, err := EnvFrom(ctx)
	if err != nil {
		return err
	}
	if _, err := selectFolders(env.Service, "", c.folder); err != nil {
		return err
	}
	c.env, c.missing = env, nil
	return nil
}

func (c *FavoriteCommand) Run(ctx context.Context) error {
	svc := c.env.Service
	flusher := store.NewFlusher(c.env.FlushInterval(), svc.FlushStaged)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- flusher.Run(runCtx) }()

	var stageErr error
	for _, rom := range c.roms {
		rom = strings.TrimSpace(rom)
		if rom == "" {
			continue
		}
		found := false
		err := svc.Stage(ctx, c.folder, func(records []model.Record) []model.Record {
			key := model.KeyOf(c.sub, rom)
			for i := range records {
				if records[i].Key() == key {
					records[i].IsFavorite = !c.unset
					found = true
				}
			}
			return records
		})
		if err != nil {
			stageErr = err
			break
		}
		if !found {
			c.missing = append(c.missing, rom)
			continue
		}
		flusher.MarkDirty(c.folder)
	}

	cancel()
	if err := <-done; err != nil {
		return errors.Join(stageErr, err)
	}
	if stageErr != nil {
		return stageErr
	}
	if len(c.missing) > 0 {
		return fmt.Errorf("roms not in catalog of %s: %s", c.folder, strings.Join(c.missing, ", "))
	}
	return nil
}

func (c *FavoriteCommand) PostRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("favorite completed",
		zap.String("folder", c.folder),
		zap.Strings("roms", c.roms),
		zap.Bool("unset", c.unset),
	)
	return nil
}

func init() {
	RegisterRunner("favorite", func() IRunner { return NewFavoriteCommand() })
}
