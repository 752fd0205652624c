// Package session 驱动点赞页的多次加载：每次加载构造一个新的控制器实例，
// 相当于浏览器在页面重载后重新注入内容脚本。
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xpzouying/instagram-unlike/unlike"
)

// ErrNotAttached 当前还没有控制器实例（页面尚未加载完成）
var ErrNotAttached = errors.New("no controller attached to the page")

// Page 会话需要的页面能力
type Page interface {
	unlike.PageAdapter
	unlike.Reloader
	EnsureLikesPage(ctx context.Context) error
	WaitLoaded(ctx context.Context) error
}

// Session 持有一个点赞页，并在每次页面加载后挂载新的控制器
type Session struct {
	page      Page
	configs   *unlike.ConfigStore
	runs      *unlike.RunStateStore
	events    *unlike.Broadcaster
	sleeper   unlike.Sleeper
	autoStart bool

	mu       sync.Mutex
	current  *unlike.Controller
	loads    int
	attached chan struct{}
}

// Option 会话选项
type Option func(*Session)

// WithSleeper 替换控制器使用的等待实现
func WithSleeper(sl unlike.Sleeper) Option {
	return func(s *Session) {
		s.sleeper = sl
	}
}

// WithAutoStart 首次加载且没有待恢复的运行时，直接开始批量取消点赞
func WithAutoStart(v bool) Option {
	return func(s *Session) {
		s.autoStart = v
	}
}

// New 创建会话
func New(page Page, configs *unlike.ConfigStore, runs *unlike.RunStateStore, events *unlike.Broadcaster, opts ...Option) *Session {
	if events == nil {
		events = unlike.NewBroadcaster()
	}
	s := &Session{
		page:     page,
		configs:  configs,
		runs:     runs,
		events:   events,
		sleeper:  unlike.RealSleeper,
		attached: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run 阻塞直到 ctx 取消。每一轮：等待页面加载 → 挂载新控制器 → Boot →
// 等待该实例发出重载。
func (s *Session) Run(ctx context.Context) error {
	if err := s.page.EnsureLikesPage(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(err, "open likes page")
	}

	for {
		if err := s.page.WaitLoaded(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "wait for page load")
		}

		if ended := s.runInstance(ctx); !ended {
			return nil
		}
	}
}

// runInstance 运行一个进程实例；实例发出重载时返回 true，ctx 取消时返回 false
func (s *Session) runInstance(ctx context.Context) bool {
	cfg := s.configs.Load(ctx).Effective()
	id := uuid.NewString()

	instanceCtx, cancel := context.WithCancel(ctx)
	ctrl := unlike.New(instanceCtx, unlike.Deps{
		Page:        s.page,
		Reloader:    s.page,
		State:       s.runs,
		Config:      cfg,
		Broadcaster: s.events,
		Sleeper:     s.sleeper,
		InstanceID:  id,
	})

	// Boot 完成后再挂载，避免外部消息和计数加载交错
	resumed := ctrl.Boot()
	first := s.attach(ctrl)
	logrus.WithField("instance", id).Info("页面已加载，挂载控制器")

	if first && !resumed && s.autoStart {
		ctrl.Start()
	}

	var ended bool
	select {
	case <-ctrl.Done():
		ended = true
	case <-ctx.Done():
	}

	// 页面已卸载，旧实例的等待全部作废
	cancel()
	ctrl.Wait()
	return ended
}

func (s *Session) attach(ctrl *unlike.Controller) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = ctrl
	s.loads++
	if s.loads == 1 {
		close(s.attached)
	}
	return s.loads == 1
}

// Controller 当前挂载的控制器，尚未挂载时为 nil
func (s *Session) Controller() *unlike.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Loads 到目前为止的页面加载次数
func (s *Session) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// Ready 首个控制器挂载后关闭
func (s *Session) Ready() <-chan struct{} {
	return s.attached
}

// Send 把消息交给当前控制器；页面还没加载时等待，直到 ctx 结束
func (s *Session) Send(ctx context.Context, msg unlike.Message) (unlike.Response, error) {
	select {
	case <-s.attached:
	case <-ctx.Done():
		return unlike.Response{}, errors.Wrap(ErrNotAttached, ctx.Err().Error())
	}
	return s.Controller().HandleMessage(msg), nil
}

// Status 当前状态。没有控制器时返回持久化的计数。
func (s *Session) Status(ctx context.Context) unlike.Status {
	if ctrl := s.Controller(); ctrl != nil {
		return ctrl.Status()
	}

	st, err := s.runs.Load(ctx)
	if err != nil {
		logrus.WithError(err).Warn("读取运行状态失败")
		return s.events.Last()
	}
	return unlike.Status{Running: st.Running, Cycles: st.Cycles, Processed: st.Processed, Action: "Waiting for page"}
}

// Events 会话级状态广播，跨页面重载保持订阅
func (s *Session) Events() *unlike.Broadcaster {
	return s.events
}

// Configs 运行配置存储，修改在下一次页面加载时生效
func (s *Session) Configs() *unlike.ConfigStore {
	return s.configs
}

// Runs 运行状态存储
func (s *Session) Runs() *unlike.RunStateStore {
	return s.runs
}
