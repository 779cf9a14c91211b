package cli

import (
	"context"

	"github.com/xxxsen/romcatalog/internal/app"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "romcatalog",
	Short:         "Maintain per-folder game catalogs for emulator frontends",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(cfgPath)
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if level == "" {
			level = "info"
		}
		logger.Init(cfg.Log.File, level, cfg.Log.MaxRotate, cfg.Log.MaxSizeMB, cfg.Log.KeepDays, cfg.Log.Console || cfg.Log.File == "")
		cmd.SetContext(app.WithEnv(commandContext(cmd), app.NewEnv(cfg)))
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Error("exec cmd failed", zap.Error(err))
		return err
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "配置文件路径")
	for _, r := range app.RunnerList() {
		runner := app.MustResolveRunner(r)
		subcmd := &cobra.Command{
			Use:   runner.Name(),
			Short: runner.Desc(),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := commandContext(cmd)
				if err := runner.PreRun(ctx); err != nil {
					return err
				}
				if err := runner.Run(ctx); err != nil {
					return err
				}
				return runner.PostRun(ctx)
			},
		}
		runner.Init(subcmd.Flags())
		rootCmd.AddCommand(subcmd)
	}
}
