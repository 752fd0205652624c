package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/xpzouying/instagram-unlike/configs"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		headless  bool
		binPath   string // 浏览器二进制文件路径
		port      string
		stdioMode bool // 是否使用 STDIO 模式
		dataDir   string
		logLevel  string
		logFile   string
		autoStart bool
	)
	flag.BoolVar(&headless, "headless", true, "是否无头模式")
	flag.StringVar(&binPath, "bin", "", "浏览器二进制文件路径")
	flag.StringVar(&port, "port", ":18060", "端口")
	flag.BoolVar(&stdioMode, "stdio", false, "使用 STDIO 模式（用于 MCP 客户端）")
	flag.StringVar(&dataDir, "data", "", "数据目录，保存配置、进度和 cookies")
	flag.StringVar(&logLevel, "log-level", "info", "日志级别")
	flag.StringVar(&logFile, "log-file", "", "日志文件路径，按大小滚动")
	flag.BoolVar(&autoStart, "auto-start", false, "页面加载后直接开始批量取消点赞")
	flag.Parse()

	if len(binPath) == 0 {
		binPath = os.Getenv("ROD_BROWSER_BIN")
	}

	if err := configs.InitLogger(logLevel, logFile); err != nil {
		logrus.Fatalf("failed to init logger: %v", err)
	}
	configs.InitHeadless(headless)
	configs.SetBinPath(binPath)
	if dataDir != "" {
		configs.SetDataDir(dataDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化会话：浏览器页面 + 持久化存储
	sess, cleanup, err := newLikesSession(configs.GetDataDir(), autoStart)
	if err != nil {
		logrus.Fatalf("failed to init session: %v", err)
	}
	defer cleanup()

	// 创建应用服务器
	appServer := NewAppServer(NewUnlikeService(sess))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.Run(gctx)
	})
	g.Go(func() error {
		// 任意一种服务退出都结束整个进程
		defer stop()

		// 根据模式选择启动方式
		if stdioMode {
			// STDIO 模式：直接运行 MCP 服务器，不启动 HTTP 服务
			logrus.Info("启动 STDIO 模式 MCP 服务器")
			return appServer.StartSTDIO(gctx)
		}
		return appServer.Start(gctx, port)
	})

	if err := g.Wait(); err != nil {
		logrus.Errorf("server exited with error: %v", err)
	}
}
