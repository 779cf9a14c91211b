package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	appdb "github.com/xxxsen/romcatalog/internal/db"
	"go.uber.org/zap"
)

// QueryCommand searches the sqlite index and prints the hits as JSON.
type QueryCommand struct {
	title         string
	genre         string
	platform      string
	favoritesOnly bool
	withIgnored   bool
	limit         uint

	env  *Env
	indexHandle
	hits int
}

type queryHit struct {
	Folder   string `json:"folder"`
	Platform string `json:"platform"`
	Path     string `json:"path"`
	Title    string `json:"title"`
	Genre    string `json:"genre,omitempty"`
	Favorite bool   `json:"favorite,omitempty"`
}

func (c *QueryCommand) Name() string { return "query" }

func (c *QueryCommand) Desc() string {
	return "按标题或类型检索索引并输出 JSON"
}

func NewQueryCommand() *QueryCommand { return &QueryCommand{} }

func (c *QueryCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.title, "title", "", "标题关键字")
	f.StringVar(&c.genre, "genre", "", "类型关键字")
	f.StringVar(&c.platform, "platform", "", "限定平台")
	f.BoolVar(&c.favoritesOnly, "favorite", false, "只返回收藏的游戏")
	f.BoolVar(&c.withIgnored, "with-ignored", false, "包含被忽略的文件")
	f.UintVar(&c.limit, "limit", 50, "最多返回的条数，0 表示不限")
}

func (c *QueryCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.title) == "" && strings.TrimSpace(c.genre) == "" && !c.favoritesOnly {
		return errors.New("query requires --title, --genre or --favorite")
	}
	env, err := EnvFrom(ctx)
	if err != nil {
		return err
	}
	db, err := env.OpenIndex(ctx)
	if err != nil {
		return err
	}
	c.env, c.db, c.hits = env, db, 0

	logutil.GetLogger(ctx).Info("starting query",
		zap.String("title", c.title),
		zap.String("genre", c.genre),
		zap.String("platform", c.platform),
	)
	return nil
}

func (c *QueryCommand) Run(ctx context.Context) error {
	return c.closeOnError(ctx, c.search(ctx))
}

func (c *QueryCommand) search(ctx context.Context) error {
	q := appdb.Query{
		Title:          strings.TrimSpace(c.title),
		Genre:          strings.TrimSpace(c.genre),
		FavoriteOnly:   c.favoritesOnly,
		IncludeIgnored: c.withIgnored,
		Limit:          c.limit,
	}
	if strings.TrimSpace(c.platform) != "" {
		q.PlatformID = c.env.Service.Registry().NormalizePlatformID(c.platform)
	}
	games, err := appdb.NewIndexDAO(c.db).Search(ctx, q)
	if err != nil {
		return err
	}

	result := make([]queryHit, 0, len(games))
	for _, g := range games {
		result = append(result, queryHit{
			Folder:   g.FolderKey,
			Platform: g.PlatformID,
			Path:     g.RelPath(),
			Title:    g.DisplayTitle(),
			Genre:    g.Genre,
			Favorite: g.IsFavorite,
		})
	}
	c.hits = len(result)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal query result: %w", err)
	}
	c.env.printf("%s\n", data)
	return nil
}

func (c *QueryCommand) PostRun(ctx context.Context) error {
	defer c.close(ctx)
	logutil.GetLogger(ctx).Info("query completed", zap.Int("hits", c.hits))
	return nil
}

func init() {
	RegisterRunner("query", func() IRunner { return NewQueryCommand() })
}
