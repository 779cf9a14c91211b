package app

import (
	"context"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// HasGamesCommand reports which platforms have something to play.
type HasGamesCommand struct {
	platform string

	env *Env
}

func (c *HasGamesCommand) Name() string { return "has-games" }

func (c *HasGamesCommand) Desc() string {
	return "检查平台目录下是否存在可玩的游戏"
}

func NewHasGamesCommand() *HasGamesCommand { return &HasGamesCommand{} }

func (c *HasGamesCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.platform, "platform", "", "只检查该平台，默认检查全部并预热缓存")
}

func (c *HasGamesCommand) PreRun(ctx context.Context) error {
	env, err := EnvFrom(ctx)
	if err != nil {
		return err
	}
	c.env = env
	return nil
}

func (c *HasGamesCommand) Run(ctx context.Context) error {
	svc := c.env.Service
	if id := strings.TrimSpace(c.platform); id != "" {
		c.env.printf("%s\t%t\n", svc.Registry().NormalizePlatformID(id), svc.HasGames(ctx, id))
		return nil
	}
	result, err := svc.PrewarmHasGames(ctx)
	if err != nil {
		return err
	}
	for _, id := range svc.Platforms() {
		c.env.printf("%s\t%t\n", id, result[id])
	}
	return nil
}

func (c *HasGamesCommand) PostRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Debug("has-games completed", zap.String("platform", c.platform))
	return nil
}

func init() {
	RegisterRunner("has-games", func() IRunner { return NewHasGamesCommand() })
}
