package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xpzouying/instagram-unlike/session"
	"github.com/xpzouying/instagram-unlike/unlike"
)

// messageTimeout 页面尚未加载时，消息最多等待这么久
const messageTimeout = 30 * time.Second

// UnlikeService 批量取消点赞业务服务，HTTP 和 MCP 共用
type UnlikeService struct {
	session *session.Session
}

// ConfigView 配置视图：保存的配置、实际生效的配置和匹配的预设名
type ConfigView struct {
	Config    unlike.RunConfig       `json:"config"`
	Effective unlike.EffectiveConfig `json:"effective"`
	Preset    string                 `json:"preset"`
}

// NewUnlikeService 创建服务
func NewUnlikeService(s *session.Session) *UnlikeService {
	return &UnlikeService{session: s}
}

// Send 把协议消息交给当前页面上的控制器
func (s *UnlikeService) Send(ctx context.Context, action string) (unlike.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, messageTimeout)
	defer cancel()

	resp, err := s.session.Send(ctx, unlike.Message{Action: action})
	if err != nil {
		return resp, errors.Wrapf(err, "send %s", action)
	}
	if !resp.Success {
		return resp, errors.New(resp.Error)
	}
	return resp, nil
}

// Start 开始批量取消点赞，立即返回当前状态
func (s *UnlikeService) Start(ctx context.Context) (unlike.Status, error) {
	logrus.Info("开始批量取消点赞")
	if _, err := s.Send(ctx, unlike.ActionStart); err != nil {
		return unlike.Status{}, err
	}
	return s.Status(ctx), nil
}

// Stop 停止批量取消点赞，正在执行的一轮会跑完
func (s *UnlikeService) Stop(ctx context.Context) (unlike.Status, error) {
	logrus.Info("停止批量取消点赞")
	if _, err := s.Send(ctx, unlike.ActionStop); err != nil {
		return unlike.Status{}, err
	}
	return s.Status(ctx), nil
}

// ResetProgress 清空进度计数
func (s *UnlikeService) ResetProgress(ctx context.Context) (unlike.Status, error) {
	logrus.Info("重置批量取消点赞进度")
	if _, err := s.Send(ctx, unlike.ActionResetProgress); err != nil {
		return unlike.Status{}, err
	}
	return s.Status(ctx), nil
}

// Status 当前状态
func (s *UnlikeService) Status(ctx context.Context) unlike.Status {
	return s.session.Status(ctx)
}

// Subscribe 订阅状态推送
func (s *UnlikeService) Subscribe(buffer int) (<-chan unlike.Status, func()) {
	return s.session.Events().Subscribe(buffer)
}

// GetConfig 读取运行配置
func (s *UnlikeService) GetConfig(ctx context.Context) ConfigView {
	return newConfigView(s.session.Configs().Load(ctx))
}

// UpdateConfig 校验并保存运行配置，下一次页面加载时生效
func (s *UnlikeService) UpdateConfig(ctx context.Context, cfg unlike.RunConfig) (ConfigView, error) {
	saved, err := s.session.Configs().Save(ctx, cfg)
	if err != nil {
		return ConfigView{}, err
	}
	return newConfigView(saved), nil
}

// ApplyPreset 应用预设配置
func (s *UnlikeService) ApplyPreset(ctx context.Context, name string) (ConfigView, error) {
	saved, err := s.session.Configs().ApplyPreset(ctx, name)
	if err != nil {
		return ConfigView{}, err
	}
	return newConfigView(saved), nil
}

// ExportConfig 导出配置 JSON
func (s *UnlikeService) ExportConfig(ctx context.Context) ([]byte, error) {
	return unlike.Export(s.session.Configs().Load(ctx))
}

// ImportConfig 导入并保存配置 JSON
func (s *UnlikeService) ImportConfig(ctx context.Context, data []byte) (ConfigView, error) {
	cfg, err := unlike.Import(data)
	if err != nil {
		return ConfigView{}, err
	}
	return s.UpdateConfig(ctx, cfg)
}

func newConfigView(cfg unlike.RunConfig) ConfigView {
	return ConfigView{
		Config:    cfg,
		Effective: cfg.Effective(),
		Preset:    unlike.DetectPreset(cfg),
	}
}
