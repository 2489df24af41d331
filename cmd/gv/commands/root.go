package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"gitvault/pkg/app"
	"gitvault/pkg/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// 标记在仓库外也能运行的命令
const repoOptional = "repo-optional"

var (
	cfgFile string
	// GV 是所有子命令共享的 App 实例
	GV *app.App
	// injected 表示 GV 由测试注入，不重建也不关闭
	injected bool
)

var rootCmd = &cobra.Command{
	Use:           "gv",
	Short:         "gitvault: content-addressable object store and directory snapshots",
	SilenceUsage:  true,
	SilenceErrors: true,
	// 在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init 自己负责创建环境
		if cmd.Name() == "init" || injected {
			return nil
		}

		var err error
		GV, err = app.NewApp(cmd.Context())
		if err != nil {
			if errors.Is(err, app.ErrNotRepository) && cmd.Annotations[repoOptional] == "true" {
				return nil
			}
			return err
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if GV == nil || injected {
			return nil
		}
		return GV.Close()
	},
}

// Execute 运行 CLI 并返回进程退出码
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, "fatal: "+describe(err))
	return exitCode(err)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml, ./.gv/config.yaml or $HOME/.gv/config.yaml)")

	// flag 优先于配置文件和环境变量
	rootCmd.PersistentFlags().String("repo", "", "repository directory (default ./.git)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	mustBind(config.KeyRepoPath, "repo")
	mustBind(config.KeyLogLevel, "log-level")
}

func mustBind(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", flag, err))
	}
}

func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "Config error:", err)
		os.Exit(exitConfig)
	}
}

func requireRepo() error {
	if GV == nil {
		return fmt.Errorf("%w (run 'gv init' first)", app.ErrNotRepository)
	}
	return nil
}
