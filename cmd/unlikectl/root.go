package main

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xpzouying/instagram-unlike/configs"
	"github.com/xpzouying/instagram-unlike/kvstore"
	"github.com/xpzouying/instagram-unlike/unlike"
)

// app 命令共享的配置和存储
type app struct {
	v *viper.Viper

	configs *unlike.ConfigStore
	runs    *unlike.RunStateStore
}

// newRootCmd 构建命令树。每次调用都有独立的 viper 实例，方便测试。
func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "unlikectl",
		Short:         "Instagram 批量取消点赞命令行工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.String("data", configs.GetDataDir(), "数据目录，保存配置、进度和 cookies")
	flags.String("log-level", "info", "日志级别")
	flags.String("log-file", "", "日志文件路径，按大小滚动")
	flags.Int("width", 100, "状态行最大显示宽度")

	_ = a.v.BindPFlags(flags)
	a.v.SetEnvPrefix("UNLIKE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newRunCmd(a),
		newStatusCmd(a),
		newResetCmd(a),
		newConfigCmd(a),
	)
	return root
}

// init 初始化日志并打开持久化存储
func (a *app) init() error {
	if err := configs.InitLogger(a.v.GetString("log-level"), a.v.GetString("log-file")); err != nil {
		return err
	}

	dataDir := a.dataDir()
	configs.SetDataDir(dataDir)

	settings, err := kvstore.OpenNamespace(dataDir, kvstore.NamespaceSettings)
	if err != nil {
		return errors.Wrap(err, "open settings store")
	}
	local, err := kvstore.OpenNamespace(dataDir, kvstore.NamespaceLocal)
	if err != nil {
		return errors.Wrap(err, "open local store")
	}

	a.configs = unlike.NewConfigStore(settings)
	a.runs = unlike.NewRunStateStore(local)
	return nil
}

func (a *app) dataDir() string {
	return a.v.GetString("data")
}

func execute(ctx context.Context, args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
