package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xpzouying/instagram-unlike/session"
	"github.com/xpzouying/instagram-unlike/unlike"
)

// eventsBuffer 每个 SSE 连接的状态缓冲
const eventsBuffer = 32

// respondError 返回错误响应
func respondError(c *gin.Context, statusCode int, code, message string, details any) {
	logrus.Errorf("%s %s %d: %s", c.Request.Method, c.Request.URL.Path, statusCode, message)

	c.JSON(statusCode, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// respondSuccess 返回成功响应
func respondSuccess(c *gin.Context, data any, message string) {
	logrus.Infof("%s %s %d", c.Request.Method, c.Request.URL.Path, http.StatusOK)

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// respondServiceError 按错误类型选择状态码
func respondServiceError(c *gin.Context, code, message string, err error) {
	switch {
	case errors.Is(err, session.ErrNotAttached):
		respondError(c, http.StatusServiceUnavailable, "PAGE_NOT_READY", message, err.Error())
	case errors.Is(err, unlike.ErrUnknownPreset):
		respondError(c, http.StatusNotFound, "PRESET_NOT_FOUND", message, err.Error())
	case errors.Is(err, unlike.ErrInvalidConfig):
		respondError(c, http.StatusBadRequest, "INVALID_CONFIG", message, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, code, message, err.Error())
	}
}

// healthHandler 健康检查
func healthHandler(c *gin.Context) {
	respondSuccess(c, map[string]any{
		"status":  "healthy",
		"service": "instagram-unlike",
	}, "服务正常")
}

// messageHandler 原始消息协议：{action} → {success, error?, status?}
func (s *AppServer) messageHandler(c *gin.Context) {
	var msg unlike.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, unlike.Response{Success: false, Error: err.Error()})
		return
	}

	resp, err := s.service.Send(c.Request.Context(), msg.Action)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case resp.Error != "":
		c.JSON(http.StatusBadRequest, resp)
	case errors.Is(err, session.ErrNotAttached):
		c.JSON(http.StatusServiceUnavailable, unlike.Response{Success: false, Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, unlike.Response{Success: false, Error: err.Error()})
	}
}

// startUnlikeHandler 开始批量取消点赞
func (s *AppServer) startUnlikeHandler(c *gin.Context) {
	st, err := s.service.Start(c.Request.Context())
	if err != nil {
		respondServiceError(c, "START_FAILED", "启动失败", err)
		return
	}
	respondSuccess(c, st, "已开始批量取消点赞")
}

// stopUnlikeHandler 停止批量取消点赞
func (s *AppServer) stopUnlikeHandler(c *gin.Context) {
	st, err := s.service.Stop(c.Request.Context())
	if err != nil {
		respondServiceError(c, "STOP_FAILED", "停止失败", err)
		return
	}
	respondSuccess(c, st, "已请求停止")
}

// resetProgressHandler 重置进度
func (s *AppServer) resetProgressHandler(c *gin.Context) {
	st, err := s.service.ResetProgress(c.Request.Context())
	if err != nil {
		respondServiceError(c, "RESET_FAILED", "重置失败", err)
		return
	}
	respondSuccess(c, st, "进度已重置")
}

// statusHandler 当前状态
func (s *AppServer) statusHandler(c *gin.Context) {
	respondSuccess(c, s.service.Status(c.Request.Context()), "")
}

// eventsHandler 以 SSE 推送状态，连接建立时先推送一次当前状态
func (s *AppServer) eventsHandler(c *gin.Context) {
	updates, cancel := s.service.Subscribe(eventsBuffer)
	defer cancel()

	ctx := c.Request.Context()
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent("status", unlike.NewStatusEvent(s.service.Status(ctx)))
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			c.SSEvent("status", unlike.NewStatusEvent(st))
			c.Writer.Flush()
		}
	}
}

// getConfigHandler 读取配置
func (s *AppServer) getConfigHandler(c *gin.Context) {
	respondSuccess(c, s.service.GetConfig(c.Request.Context()), "")
}

// updateConfigHandler 更新配置，未提供的字段保持当前值
func (s *AppServer) updateConfigHandler(c *gin.Context) {
	ctx := c.Request.Context()

	cfg := s.service.GetConfig(ctx).Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "请求参数错误", err.Error())
		return
	}

	view, err := s.service.UpdateConfig(ctx, cfg)
	if err != nil {
		respondServiceError(c, "SAVE_CONFIG_FAILED", "保存配置失败", err)
		return
	}
	respondSuccess(c, view, "配置已保存，下一轮生效")
}

// applyPresetHandler 应用预设
func (s *AppServer) applyPresetHandler(c *gin.Context) {
	name := c.Param("name")
	view, err := s.service.ApplyPreset(c.Request.Context(), name)
	if err != nil {
		respondServiceError(c, "APPLY_PRESET_FAILED", "应用预设失败", err)
		return
	}
	respondSuccess(c, view, "已应用预设 "+name)
}

// exportConfigHandler 导出配置文件
func (s *AppServer) exportConfigHandler(c *gin.Context) {
	data, err := s.service.ExportConfig(c.Request.Context())
	if err != nil {
		respondServiceError(c, "EXPORT_CONFIG_FAILED", "导出配置失败", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="instagram-unlike-config.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// importConfigHandler 导入配置文件，请求体为原始 JSON
func (s *AppServer) importConfigHandler(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "读取请求体失败", err.Error())
		return
	}

	view, err := s.service.ImportConfig(c.Request.Context(), data)
	if err != nil {
		respondServiceError(c, "IMPORT_CONFIG_FAILED", "导入配置失败", err)
		return
	}
	respondSuccess(c, view, "配置已导入")
}
