package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// setupRoutes 设置路由
func (s *AppServer) setupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	router.GET("/health", healthHandler)

	// MCP 端点，Streamable HTTP 传输
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
	router.Any("/mcp", gin.WrapH(mcpHandler))
	router.Any("/mcp/*path", gin.WrapH(mcpHandler))

	api := router.Group("/api/v1")
	{
		api.POST("/message", s.messageHandler)

		api.POST("/unlike/start", s.startUnlikeHandler)
		api.POST("/unlike/stop", s.stopUnlikeHandler)
		api.POST("/unlike/reset", s.resetProgressHandler)
		api.GET("/unlike/status", s.statusHandler)
		api.GET("/unlike/events", s.eventsHandler)

		api.GET("/config", s.getConfigHandler)
		api.PUT("/config", s.updateConfigHandler)
		api.POST("/config/preset/:name", s.applyPresetHandler)
		api.GET("/config/export", s.exportConfigHandler)
		api.POST("/config/import", s.importConfigHandler)
	}

	return router
}

// requestLogger 用 logrus 记录请求
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("http request")
	}
}
