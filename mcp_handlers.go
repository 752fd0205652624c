package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xpzouying/instagram-unlike/unlike"
)

// MCP 工具处理函数

// handleStartUnlike 开始批量取消点赞
func (s *AppServer) handleStartUnlike(ctx context.Context) *MCPToolResult {
	logrus.Info("MCP: 开始批量取消点赞")

	st, err := s.service.Start(ctx)
	if err != nil {
		return textResult("启动失败: "+err.Error(), true)
	}
	return textResult("已开始批量取消点赞\n\n"+formatStatus(st), false)
}

// handleStopUnlike 停止批量取消点赞
func (s *AppServer) handleStopUnlike(ctx context.Context) *MCPToolResult {
	logrus.Info("MCP: 停止批量取消点赞")

	st, err := s.service.Stop(ctx)
	if err != nil {
		return textResult("停止失败: "+err.Error(), true)
	}
	return textResult("已请求停止，当前这一轮会先跑完\n\n"+formatStatus(st), false)
}

// handleGetStatus 查询状态
func (s *AppServer) handleGetStatus(ctx context.Context) *MCPToolResult {
	logrus.Info("MCP: 查询批量取消点赞状态")
	return textResult(formatStatus(s.service.Status(ctx)), false)
}

// handleResetProgress 重置进度
func (s *AppServer) handleResetProgress(ctx context.Context) *MCPToolResult {
	logrus.Info("MCP: 重置进度")

	st, err := s.service.ResetProgress(ctx)
	if err != nil {
		return textResult("重置失败: "+err.Error(), true)
	}
	return textResult("进度已重置\n\n"+formatStatus(st), false)
}

// handleGetConfig 查看配置
func (s *AppServer) handleGetConfig(ctx context.Context) *MCPToolResult {
	logrus.Info("MCP: 查看配置")
	return textResult(formatConfig(s.service.GetConfig(ctx)), false)
}

// handleApplyPreset 应用预设
func (s *AppServer) handleApplyPreset(ctx context.Context, name string) *MCPToolResult {
	logrus.Infof("MCP: 应用预设 %s", name)

	if name == "" {
		return textResult("操作失败: 缺少name参数，可选: "+strings.Join(unlike.PresetNames(), ", "), true)
	}

	view, err := s.service.ApplyPreset(ctx, name)
	if err != nil {
		return textResult("应用预设失败: "+err.Error(), true)
	}
	return textResult("已应用预设 "+name+"，下一轮生效\n\n"+formatConfig(view), false)
}

func formatStatus(st unlike.Status) string {
	running := "否"
	if st.Running {
		running = "是"
	}
	return fmt.Sprintf(`📊 批量取消点赞状态:
- 运行中: %s
- 已完成轮次: %d
- 已处理帖子: %d
- 当前动作: %s`, running, st.Cycles, st.Processed, st.Action)
}

func formatConfig(view ConfigView) string {
	cfg := view.Config
	eff := view.Effective
	return fmt.Sprintf(`⚙️ 配置（预设: %s）:
- 每批数量: %d（生效 %d）
- 点击间隔: %dms（生效 %dms）
- 选择后等待: %dms（生效 %dms）
- 取消后等待: %dms（生效 %dms）
- 刷新前等待: %dms（生效 %dms）
- 恢复延迟: %dms（生效 %dms）
- 自动重试: %t，最多 %d 次
- 限速保护: %t`,
		view.Preset,
		cfg.BatchSize, eff.BatchSize,
		cfg.Delays.BetweenClicks, eff.Delays.BetweenClicks,
		cfg.Delays.AfterSelect, eff.Delays.AfterSelect,
		cfg.Delays.AfterUnlike, eff.Delays.AfterUnlike,
		cfg.Delays.ReloadWait, eff.Delays.ReloadWait,
		cfg.Delays.ResumeDelay, eff.Delays.ResumeDelay,
		cfg.AutoRetry, cfg.MaxRetries,
		cfg.RespectRateLimit,
	)
}
