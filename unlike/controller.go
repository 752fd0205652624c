package unlike

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// State 控制器状态
type State int

const (
	StateIdle State = iota
	StateRunning
	// StateAwaitingReload 已发出重载，本进程实例到此结束
	StateAwaitingReload
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateAwaitingReload:
		return "awaiting_reload"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ActionStopped 停止后的状态文本
const ActionStopped = "Stopped"

// Deps 控制器依赖，每个进程实例（一次页面加载）构造一次
type Deps struct {
	Page        PageAdapter
	Reloader    Reloader
	State       *RunStateStore
	Config      EffectiveConfig
	Broadcaster *Broadcaster
	Sleeper     Sleeper
	InstanceID  string
}

// Controller 负责运行/停止/恢复的生命周期和基于重载的续跑协议。
// 它是唯一读写 RunStateStore 和推送状态的组件。
//
// 续跑协议：持久化的 running 标记是唯一的事实来源。新实例在 Boot 时读取一次，
// 为 true 则等待 resumeDelay 后重新进入运行循环；运行循环每轮成功后持久化进度、
// 发出重载并立即返回，重载之后不再触碰任何共享状态。
type Controller struct {
	// lifetime 进程实例的生命周期，取消即代表页面已被卸载
	lifetime context.Context

	engine   *Engine
	store    *RunStateStore
	reloader Reloader
	events   *Broadcaster
	sleeper  Sleeper
	cfg      EffectiveConfig
	logger   *logrus.Entry

	mu      sync.Mutex
	state   State
	running bool
	// looping 运行循环的 goroutine 是否还在，和 running 分开：stop 只清 running
	looping bool
	// resumeCancelled 等待 resumeDelay 期间收到 stop/start，放弃自动恢复
	resumeCancelled bool
	cancelResume    context.CancelFunc

	cycles    int
	processed int
	action    string

	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

// New 创建控制器
func New(lifetime context.Context, deps Deps) *Controller {
	if deps.Sleeper == nil {
		deps.Sleeper = RealSleeper
	}

	c := &Controller{
		lifetime: lifetime,
		store:    deps.State,
		reloader: deps.Reloader,
		events:   deps.Broadcaster,
		sleeper:  deps.Sleeper,
		cfg:      deps.Config,
		logger:   logrus.WithField("instance", deps.InstanceID),
		state:    StateIdle,
		action:   "Ready",
		done:     make(chan struct{}),
	}
	c.engine = NewEngine(deps.Page, WithSleeper(deps.Sleeper), WithReporter(c.log))
	return c
}

// Boot 读取持久化的进度；如果上一个实例处于运行中，等待 resumeDelay 后恢复。
// 返回是否安排了恢复。
func (c *Controller) Boot() bool {
	st, err := c.store.Load(c.persistCtx())
	if err != nil {
		c.logger.WithError(err).Warn("读取运行状态失败，从零开始")
		st = RunState{}
	}

	c.mu.Lock()
	c.cycles = st.Cycles
	c.processed = st.Processed
	c.mu.Unlock()
	c.logf("Loaded progress: %d cycles, %d processed", st.Cycles, st.Processed)

	if !st.Running {
		return false
	}

	delay := ms(c.cfg.Delays.ResumeDelay)
	c.logf("Resuming bulk unlike in %d seconds...", int(delay.Seconds()))

	resumeCtx, cancel := context.WithCancel(c.lifetime)
	c.mu.Lock()
	c.cancelResume = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		if err := c.sleeper.Sleep(resumeCtx, delay); err != nil {
			return
		}
		c.start(true)
	}()
	return true
}

// Start 进入运行循环。已在运行时什么都不做并返回 false。
// stop 之后旧循环还没退出时，只重新置位 running，由旧循环继续跑。
func (c *Controller) Start() bool {
	return c.start(false)
}

func (c *Controller) start(resume bool) bool {
	c.mu.Lock()
	if resume && c.resumeCancelled {
		c.mu.Unlock()
		return false
	}
	if !resume {
		c.abortResumeLocked()
	}
	if c.running || c.state == StateAwaitingReload {
		c.mu.Unlock()
		return false
	}
	c.running = true
	c.state = StateRunning
	spawn := !c.looping
	c.looping = true
	c.mu.Unlock()

	c.persist()
	if !spawn {
		c.log("Continuing current run...")
		return true
	}
	c.log("Starting bulk unlike...")

	c.wg.Add(1)
	go c.loop()
	return true
}

// abortResumeLocked 取消尚未触发的自动恢复，调用方持有 mu
func (c *Controller) abortResumeLocked() {
	c.resumeCancelled = true
	if c.cancelResume != nil {
		c.cancelResume()
	}
}

// Stop 请求停止。标记立即生效并持久化，但正在执行的一轮会继续跑完，
// 循环在下一次检查标记时退出，且不会再发出重载。
func (c *Controller) Stop() {
	c.mu.Lock()
	c.abortResumeLocked()
	c.running = false
	if c.state != StateAwaitingReload {
		c.state = StateStopped
	}
	c.mu.Unlock()

	c.log("Stop requested by user")
	c.persist()
	c.log(ActionStopped)
}

// ResetProgress 清空计数器和持久化的运行状态
func (c *Controller) ResetProgress() {
	c.mu.Lock()
	c.cycles = 0
	c.processed = 0
	c.mu.Unlock()

	if err := c.store.Reset(c.persistCtx()); err != nil {
		c.logger.WithError(err).Warn("重置运行状态失败")
	}
	c.log("Progress reset")
}

// Status 当前状态快照
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// State 当前状态机状态
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done 在本实例发出页面重载后关闭
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Wait 等待运行循环和待执行的恢复任务结束
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) loop() {
	defer c.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			c.fail(errors.Errorf("%v", r))
		}
	}()

	for c.keepLooping() {
		cycle := c.beginCycle()
		c.logf("=== Cycle %d starting ===", cycle)

		res := c.engine.RunCycle(c.lifetime, c.cfg)
		if c.lifetime.Err() != nil {
			// 页面已卸载，持久化状态保持原样留给下一个实例
			c.endLoop()
			return
		}

		switch res.Kind {
		case ResultContinue:
			total := c.addProcessed(res.Selected)
			c.logf("Selected %d items. Total processed: %d", res.Selected, total)
			c.logf("=== Cycle %d completed successfully ===", cycle)
			c.scheduleReload()
			return

		case ResultDone:
			c.log("No items left—bulk unlike process completed")
			c.finish(ActionStopped)
			return

		case ResultFailed:
			c.logger.WithError(res.Err).WithField("cycle", cycle).Error("cycle failed")
			c.finish(fmt.Sprintf("%s: %v", ActionStopped, res.Err))
			return
		}
	}
}

// scheduleReload 等待 reloadWait 后触发重载，之后本实例不再执行任何逻辑
func (c *Controller) scheduleReload() {
	if !c.keepLooping() {
		return
	}

	c.logf("Waiting %dms before reload...", c.cfg.Delays.ReloadWait)
	if err := c.sleeper.Sleep(c.lifetime, ms(c.cfg.Delays.ReloadWait)); err != nil {
		c.endLoop()
		return
	}
	if !c.keepLooping() {
		return
	}

	c.log("Reloading page for next cycle...")
	if err := c.reloader.Reload(c.lifetime); err != nil {
		c.fail(errors.Wrap(err, "reload page"))
		return
	}

	c.mu.Lock()
	c.state = StateAwaitingReload
	c.looping = false
	c.mu.Unlock()
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Controller) beginCycle() int {
	c.mu.Lock()
	c.cycles++
	n := c.cycles
	c.mu.Unlock()

	c.persist()
	return n
}

func (c *Controller) addProcessed(n int) int {
	c.mu.Lock()
	c.processed += n
	total := c.processed
	c.mu.Unlock()

	c.persist()
	return total
}

func (c *Controller) finish(action string) {
	c.mu.Lock()
	c.running = false
	c.looping = false
	c.state = StateStopped
	c.mu.Unlock()

	c.persist()
	c.log(action)
}

func (c *Controller) fail(err error) {
	c.logger.WithError(err).Error("fatal error in run loop")
	c.log(fmt.Sprintf("Fatal error: %v", err))
	c.finish(fmt.Sprintf("%s: %v", ActionStopped, err))
}

// endLoop 页面卸载导致循环退出
func (c *Controller) endLoop() {
	c.mu.Lock()
	c.looping = false
	c.mu.Unlock()
}

// keepLooping 运行循环的退出检查。退出决定和清除 looping 在同一把锁内完成，
// 这样并发的 Start 要么看到循环还在继续，要么另起一个新循环。
func (c *Controller) keepLooping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		c.looping = false
	}
	return c.running
}

// persist 尽力持久化，失败只记录日志，内存状态依然权威
func (c *Controller) persist() {
	c.mu.Lock()
	st := RunState{Cycles: c.cycles, Processed: c.processed, Running: c.running}
	c.mu.Unlock()

	if err := c.store.Save(c.persistCtx(), st); err != nil {
		c.logger.WithError(err).Warn("保存运行状态失败")
	}
}

func (c *Controller) persistCtx() context.Context {
	return context.WithoutCancel(c.lifetime)
}

// log 更新当前动作并推送状态
func (c *Controller) log(action string) {
	c.mu.Lock()
	c.action = action
	st := c.statusLocked()
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"cycles":    st.Cycles,
		"processed": st.Processed,
	}).Info(action)
	c.events.Publish(st)
}

func (c *Controller) logf(format string, args ...any) {
	c.log(fmt.Sprintf(format, args...))
}

func (c *Controller) statusLocked() Status {
	return Status{
		Running:   c.running,
		Cycles:    c.cycles,
		Processed: c.processed,
		Action:    c.action,
	}
}
