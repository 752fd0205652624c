package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/xpzouying/instagram-unlike/browser"
	"github.com/xpzouying/instagram-unlike/configs"
	"github.com/xpzouying/instagram-unlike/cookies"
	"github.com/xpzouying/instagram-unlike/instagram"
	"github.com/xpzouying/instagram-unlike/session"
	"github.com/xpzouying/instagram-unlike/unlike"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "打开浏览器并批量取消点赞，直到没有剩余条目或按 Ctrl+C",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd)
		},
	}

	flags := cmd.Flags()
	flags.Bool("headless", true, "是否无头模式")
	flags.String("bin", "", "浏览器二进制文件路径")
	_ = a.v.BindPFlag("headless", flags.Lookup("headless"))
	_ = a.v.BindPFlag("bin", flags.Lookup("bin"))
	return cmd
}

func (a *app) run(cmd *cobra.Command) error {
	binPath := a.v.GetString("bin")
	if binPath == "" {
		binPath = os.Getenv("ROD_BROWSER_BIN")
	}
	configs.InitHeadless(a.v.GetBool("headless"))
	configs.SetBinPath(binPath)

	manager := browser.NewManager(configs.IsHeadless(), configs.GetBinPath())
	defer manager.Close()

	page, release := manager.NewPageWithRelease()
	defer release()
	defer func() {
		if err := browser.SavePageCookies(page, cookies.GetCookiesFilePath()); err != nil {
			logrus.WithError(err).Warn("保存 cookies 失败")
		}
	}()

	events := unlike.NewBroadcaster()
	updates, unsubscribe := events.Subscribe(64)
	defer unsubscribe()

	sess := session.New(instagram.NewLikesPage(page), a.configs, a.runs, events, session.WithAutoStart(true))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.Run(gctx)
	})
	g.Go(func() error {
		watchUntilStopped(gctx, cmd, updates, a.v.GetInt("width"))
		cancel()
		return nil
	})
	return g.Wait()
}

// watchUntilStopped 打印状态推送，运行结束（出现 Stopped 动作）后返回
func watchUntilStopped(ctx context.Context, cmd *cobra.Command, updates <-chan unlike.Status, width int) {
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			printStatus(out, st, width)
			if !st.Running && strings.HasPrefix(st.Action, unlike.ActionStopped) {
				fmt.Fprintf(out, "Done: %d cycles, %d processed\n", st.Cycles, st.Processed)
				return
			}
		}
	}
}
