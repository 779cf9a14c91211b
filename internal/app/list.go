package app

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// ListCommand prints the games of a platform in display order.
type ListCommand struct {
	platform      string
	withIgnored   bool
	favoritesOnly bool

	env   *Env
	count int
}

func (c *ListCommand) Name() string { return "list" }

func (c *ListCommand) Desc() string {
	return "按标题排序列出平台下的游戏"
}

func NewListCommand() *ListCommand { return &ListCommand{} }

func (c *ListCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.platform, "platform", "", "平台")
	f.BoolVar(&c.withIgnored, "with-ignored", false, "同时列出被忽略的文件")
	f.BoolVar(&c.favoritesOnly, "favorite", false, "只列出收藏的游戏")
}

func (c *ListCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.platform) == "" {
		return errors.New("list requires --platform")
	}
	env, err := EnvFrom(ctx)
	if err != nil {
		return err
	}
	c.env, c.count = env, 0
	return nil
}

func (c *ListCommand) Run(ctx context.Context) error {
	games, err := c.env.Service.PlatformGames(ctx, c.platform)
	if err != nil {
		return err
	}
	for _, g := range games {
		if g.Ignore && !c.withIgnored {
			continue
		}
		if c.favoritesOnly && !g.IsFavorite {
			continue
		}
		mark := " "
		if g.IsFavorite {
			mark = "*"
		}
		line := mark + " " + g.DisplayTitle() + "\t" + g.RelPath()
		if emu := c.emulator(g.EmulatorID); emu != "" {
			line += "\t" + emu
		}
		c.env.printf("%s\n", line)
		c.count++
	}
	return nil
}

// emulator falls back to the platform default.
func (c *ListCommand) emulator(id string) string {
	if id != "" {
		return id
	}
	return c.env.Service.Registry().DefaultEmulator(c.platform)
}

func (c *ListCommand) PostRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Debug("list completed",
		zap.String("platform", c.platform),
		zap.Int("games", c.count),
	)
	return nil
}

func init() {
	RegisterRunner("list", func() IRunner { return NewListCommand() })
}
