package unlike

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() EffectiveConfig {
	return RunConfig{
		Delays: Delays{
			BetweenClicks: 100,
			AfterSelect:   500,
			AfterUnlike:   1000,
			ReloadWait:    1000,
			ResumeDelay:   5000,
		},
		BatchSize:  50,
		AutoRetry:  true,
		MaxRetries: 3,
	}.Effective()
}

func TestRunCycleNoItemsIsDone(t *testing.T) {
	page := newFakePage()
	sleeper := &recordingSleeper{}
	engine := NewEngine(page, WithSleeper(sleeper))

	res := engine.RunCycle(context.Background(), testConfig())

	assert.Equal(t, ResultDone, res.Kind)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, page.count("select"))
	assert.Equal(t, 0, page.count("unlike"), "没有条目时不应查找 Unlike 按钮")
}

func TestRunCycleSelectsAndUnlikes(t *testing.T) {
	tests := []struct {
		name        string
		confirm     bool
		wantSleeps  []time.Duration
		wantClicked []string
	}{
		{
			name:    "无确认弹窗",
			confirm: false,
			wantSleeps: []time.Duration{
				500 * time.Millisecond, // afterSelect
				100 * time.Millisecond, // betweenClicks
				100 * time.Millisecond,
				500 * time.Millisecond, // afterSelect (unlike)
				ConfirmGrace,
			},
			wantClicked: []string{"select", "A", "B", "unlike"},
		},
		{
			name:    "有确认弹窗",
			confirm: true,
			wantSleeps: []time.Duration{
				500 * time.Millisecond,
				100 * time.Millisecond,
				100 * time.Millisecond,
				500 * time.Millisecond,
				ConfirmGrace,
				1000 * time.Millisecond, // afterUnlike
			},
			wantClicked: []string{"select", "A", "B", "unlike", "confirm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newFakePage([]string{"A", "B"})
			page.confirm = tt.confirm
			sleeper := &recordingSleeper{}
			engine := NewEngine(page, WithSleeper(sleeper))

			res := engine.RunCycle(context.Background(), testConfig())

			require.Equal(t, ResultContinue, res.Kind)
			assert.Equal(t, 2, res.Selected)
			assert.Equal(t, tt.wantSleeps, sleeper.all())
			assert.Equal(t, tt.wantClicked, page.clickedItems())
		})
	}
}

func TestRunCycleRespectsBatchSize(t *testing.T) {
	page := newFakePage([]string{"A", "B", "C", "D"})
	engine := NewEngine(page, WithSleeper(&recordingSleeper{}))

	cfg := testConfig()
	cfg.BatchSize = 3
	res := engine.RunCycle(context.Background(), cfg)

	require.Equal(t, ResultContinue, res.Kind)
	assert.Equal(t, 3, res.Selected)
}

func TestRunCycleSwallowsItemClickFailure(t *testing.T) {
	page := newFakePage([]string{"A", "B", "C"})
	page.clickErrs = map[string]error{"B": errors.New("element detached")}
	engine := NewEngine(page, WithSleeper(&recordingSleeper{}))

	res := engine.RunCycle(context.Background(), testConfig())

	require.Equal(t, ResultContinue, res.Kind)
	assert.Equal(t, 2, res.Selected)
	assert.Equal(t, []string{"select", "A", "C", "unlike"}, page.clickedItems())
	assert.Equal(t, 1, page.count("select"), "单个条目失败不应触发重试")
}

func TestRunCycleAllClicksFailedIsDone(t *testing.T) {
	page := newFakePage([]string{"A"})
	page.clickErrs = map[string]error{"A": errors.New("not clickable")}
	engine := NewEngine(page, WithSleeper(&recordingSleeper{}))

	res := engine.RunCycle(context.Background(), testConfig())

	assert.Equal(t, ResultDone, res.Kind)
	assert.Equal(t, 0, page.count("unlike"))
}

func TestRunCycleRetriesSelectNotFound(t *testing.T) {
	page := newFakePage()
	page.selectErr = errors.Wrap(ErrNotFound, "select button")
	sleeper := &recordingSleeper{}
	engine := NewEngine(page, WithSleeper(sleeper))

	cfg := testConfig()
	cfg.AutoRetry = true
	cfg.MaxRetries = 3
	res := engine.RunCycle(context.Background(), cfg)

	require.Equal(t, ResultFailed, res.Kind)
	assert.True(t, IsNotFound(res.Err))
	assert.Equal(t, 4, page.count("select"), "1 次尝试 + 3 次重试")
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}, sleeper.all())
}

func TestRunCycleNoAutoRetry(t *testing.T) {
	page := newFakePage()
	page.selectErr = errors.Wrap(ErrNotFound, "select button")
	sleeper := &recordingSleeper{}
	engine := NewEngine(page, WithSleeper(sleeper))

	cfg := testConfig()
	cfg.AutoRetry = false
	res := engine.RunCycle(context.Background(), cfg)

	assert.Equal(t, ResultFailed, res.Kind)
	assert.Equal(t, 1, page.count("select"))
	assert.Empty(t, sleeper.all())
}

func TestRunCycleRetriesUnlikeNotFound(t *testing.T) {
	page := newFakePage([]string{"A"}, []string{"A"})
	page.unlikeFailures = 1
	sleeper := &recordingSleeper{}
	engine := NewEngine(page, WithSleeper(sleeper))

	res := engine.RunCycle(context.Background(), testConfig())

	require.Equal(t, ResultContinue, res.Kind)
	assert.Equal(t, 1, res.Selected)
	assert.Equal(t, 2, page.count("select"), "重试从选择按钮重新开始")
	assert.Contains(t, sleeper.all(), 5*time.Second)
}

func TestRunCycleRecoversAdapterPanic(t *testing.T) {
	page := newFakePage([]string{"A"})
	page.panicOnSelect = true
	engine := NewEngine(page, WithSleeper(&recordingSleeper{}))

	res := engine.RunCycle(context.Background(), testConfig())

	require.Equal(t, ResultContinue, res.Kind)
	assert.Equal(t, 2, page.count("select"))
}

func TestRunCycleUnexpectedItemsErrorRetries(t *testing.T) {
	page := newFakePage()
	page.itemsErr = errors.New("evaluation failed")
	engine := NewEngine(page, WithSleeper(&recordingSleeper{}))

	cfg := testConfig()
	cfg.MaxRetries = 1
	res := engine.RunCycle(context.Background(), cfg)

	assert.Equal(t, ResultFailed, res.Kind)
	assert.False(t, IsNotFound(res.Err))
	assert.Equal(t, 2, page.count("items"))
}

func TestRunCycleCancelledContext(t *testing.T) {
	page := newFakePage([]string{"A"})
	engine := NewEngine(page, WithSleeper(&recordingSleeper{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := engine.RunCycle(ctx, testConfig())

	assert.Equal(t, ResultFailed, res.Kind)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 1, page.count("select"), "实例结束时不应重试")
}

func TestRunCycleReportsProgress(t *testing.T) {
	items := make([]string, 20)
	for i := range items {
		items[i] = fmt.Sprintf("item-%d", i)
	}
	page := newFakePage(items)

	var reports []string
	engine := NewEngine(page,
		WithSleeper(&recordingSleeper{}),
		WithReporter(func(action string) { reports = append(reports, action) }),
	)

	cfg := testConfig()
	cfg.BatchSize = 25
	res := engine.RunCycle(context.Background(), cfg)

	require.Equal(t, ResultContinue, res.Kind)
	assert.Contains(t, reports, "Selected 10/25")
	assert.Contains(t, reports, "Selected 20/25")
	assert.Contains(t, reports, "Batch selection completed: 20 items selected")
}

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 15 * time.Second},
		{6, 30 * time.Second},
		{10, 30 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryBackoff(tt.attempt), "attempt %d", tt.attempt)
	}
}
