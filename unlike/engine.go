package unlike

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// ConfirmGrace 点击 Unlike 后等待确认弹窗出现的固定时长
	ConfirmGrace = 500 * time.Millisecond

	retryBackoffStep = 5 * time.Second
	retryBackoffMax  = 30 * time.Second

	// progressEvery 每选中多少个条目汇报一次进度
	progressEvery = 10
)

// ResultKind 单轮执行结果类型
type ResultKind int

const (
	ResultContinue ResultKind = iota
	ResultDone
	ResultFailed
)

func (k ResultKind) String() string {
	switch k {
	case ResultContinue:
		return "continue"
	case ResultDone:
		return "done"
	case ResultFailed:
		return "failed"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// CycleResult 单轮执行结果：Continue(selected) / Done / Failed(err)
type CycleResult struct {
	Kind     ResultKind
	Selected int
	Err      error
}

func Continue(selected int) CycleResult { return CycleResult{Kind: ResultContinue, Selected: selected} }
func Done() CycleResult                 { return CycleResult{Kind: ResultDone} }
func Failed(err error) CycleResult      { return CycleResult{Kind: ResultFailed, Err: err} }

// Reporter 接收值得展示给用户的进度文本
type Reporter func(action string)

// Engine 执行一轮 选择→取消点赞，失败时按配置重试
type Engine struct {
	page    PageAdapter
	sleeper Sleeper
	report  Reporter
}

// EngineOption 引擎选项
type EngineOption func(*Engine)

// WithSleeper 替换等待实现
func WithSleeper(s Sleeper) EngineOption {
	return func(e *Engine) {
		e.sleeper = s
	}
}

// WithReporter 设置进度回调
func WithReporter(r Reporter) EngineOption {
	return func(e *Engine) {
		e.report = r
	}
}

// NewEngine 创建执行引擎
func NewEngine(page PageAdapter, opts ...EngineOption) *Engine {
	e := &Engine{
		page:    page,
		sleeper: RealSleeper,
		report:  func(string) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RetryBackoff 第 attempt 次重试前的等待：min(5s*attempt, 30s)
func RetryBackoff(attempt int) time.Duration {
	return min(retryBackoffStep*time.Duration(attempt), retryBackoffMax)
}

// RunCycle 执行一轮。只有控件缺失或意外错误会进入重试；
// 没有可选条目时直接返回 Done，不重试。
func (e *Engine) RunCycle(ctx context.Context, cfg EffectiveConfig) CycleResult {
	retry := 0
	for {
		selected, err := e.attempt(ctx, cfg)
		if err == nil {
			if selected == 0 {
				return Done()
			}
			return Continue(selected)
		}

		// 进程实例正在结束，没有重试的意义
		if ctx.Err() != nil {
			return Failed(err)
		}

		retry++
		e.reportf("Cycle error (attempt %d): %v", retry, err)

		if !cfg.AutoRetry || retry > cfg.MaxRetries {
			e.report("Max retries reached or auto-retry disabled. Stopping.")
			return Failed(err)
		}

		backoff := RetryBackoff(retry)
		e.reportf("Retrying in %d seconds...", int(backoff/time.Second))
		if err := e.sleeper.Sleep(ctx, backoff); err != nil {
			return Failed(err)
		}
	}
}

// attempt 单次尝试，返回成功选中的数量；0 表示已经没有可处理的条目。
// 条目都点击失败（一个也没选中）同样按结束处理，不会点击 Unlike。
func (e *Engine) attempt(ctx context.Context, cfg EffectiveConfig) (selected int, err error) {
	// rod 的 Must* 调用以 panic 报错，这里统一转成错误走重试
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("page operation panicked: %v", r)
		}
	}()

	e.report("Looking for Select button...")
	selectBtn, err := e.page.FindSelectControl(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "select button")
	}
	if err := e.page.ClickItem(ctx, selectBtn); err != nil {
		return 0, errors.Wrap(err, "click select button")
	}
	if err := e.sleeper.Sleep(ctx, ms(cfg.Delays.AfterSelect)); err != nil {
		return 0, err
	}
	e.report("Select button clicked")

	e.reportf("Selecting up to %d items...", cfg.BatchSize)
	items, err := e.page.FindUnselectedItems(ctx, cfg.BatchSize)
	if err != nil {
		return 0, errors.Wrap(err, "find unselected items")
	}
	if len(items) == 0 {
		e.report("No items left to select—stopping")
		return 0, nil
	}

	selected, err = e.selectBatch(ctx, cfg, items)
	if err != nil {
		return 0, err
	}
	e.reportf("Batch selection completed: %d items selected", selected)
	if selected == 0 {
		e.report("No item could be selected—stopping")
		return 0, nil
	}

	if err := e.unlikeSelected(ctx, cfg); err != nil {
		return 0, err
	}
	return selected, nil
}

// selectBatch 逐个点击条目。单个条目点击失败只记录日志，不影响整批。
func (e *Engine) selectBatch(ctx context.Context, cfg EffectiveConfig, items []Control) (int, error) {
	limit := min(len(items), cfg.BatchSize)

	count := 0
	for i := 0; i < limit; i++ {
		if err := e.page.ClickItem(ctx, items[i]); err != nil {
			logrus.WithError(err).WithField("item", items[i].Label()).Warnf("点击第 %d 个条目失败", i)
			continue
		}
		if err := e.sleeper.Sleep(ctx, ms(cfg.Delays.BetweenClicks)); err != nil {
			return count, err
		}
		count++

		if count%progressEvery == 0 {
			e.reportf("Selected %d/%d", count, cfg.BatchSize)
		}
	}
	return count, nil
}

// unlikeSelected 点击 Unlike，并在出现确认弹窗时确认。没有确认弹窗不是错误。
func (e *Engine) unlikeSelected(ctx context.Context, cfg EffectiveConfig) error {
	e.report("Looking for Unlike button...")
	unlikeBtn, err := e.page.FindUnlikeControl(ctx)
	if err != nil {
		return errors.Wrap(err, "unlike button")
	}
	if err := e.page.ClickItem(ctx, unlikeBtn); err != nil {
		return errors.Wrap(err, "click unlike button")
	}
	if err := e.sleeper.Sleep(ctx, ms(cfg.Delays.AfterSelect)); err != nil {
		return err
	}
	e.report("Clicked Unlike button")

	if err := e.sleeper.Sleep(ctx, ConfirmGrace); err != nil {
		return err
	}

	confirmBtn, err := e.page.FindConfirmControl(ctx)
	if IsNotFound(err) {
		e.report("No confirmation needed")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "confirm button")
	}

	if err := e.page.ClickItem(ctx, confirmBtn); err != nil {
		return errors.Wrap(err, "click confirm button")
	}
	if err := e.sleeper.Sleep(ctx, ms(cfg.Delays.AfterUnlike)); err != nil {
		return err
	}
	e.report("Clicked confirmation")
	return nil
}

func (e *Engine) reportf(format string, args ...any) {
	e.report(fmt.Sprintf(format, args...))
}
