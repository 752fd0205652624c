package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// AppServer 应用服务器：HTTP API + MCP
type AppServer struct {
	service    *UnlikeService
	mcpServer  *mcp.Server
	router     *gin.Engine
	httpServer *http.Server
}

// NewAppServer 创建应用服务器
func NewAppServer(service *UnlikeService) *AppServer {
	s := &AppServer{service: service}
	s.mcpServer = s.initMCPServer()
	s.router = s.setupRoutes()
	return s
}

// Start 启动 HTTP 服务器，ctx 取消时优雅关闭
func (s *AppServer) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("服务器关闭失败")
		}
	}()

	logrus.Infof("启动 HTTP 服务器: %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "listen and serve")
	}
	logrus.Info("服务器已关闭")
	return nil
}

// StartSTDIO 以 STDIO 模式运行 MCP 服务器，直到 ctx 取消或客户端断开
func (s *AppServer) StartSTDIO(ctx context.Context) error {
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "run stdio mcp server")
	}
	return nil
}
