package unlike

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/xpzouying/instagram-unlike/kvstore"
)

// local 命名空间中的运行状态 key
const (
	KeyRunning   = "bulkUnlikeRunning"
	KeyCycles    = "bulkUnlikeCycles"
	KeyProcessed = "bulkUnlikeProcessed"
)

// RunState 跨页面重载持久化的运行状态
type RunState struct {
	Cycles    int  `json:"cycles"`
	Processed int  `json:"processed"`
	Running   bool `json:"running"`
}

// RunStateStore 运行状态的读写，不包含业务逻辑
type RunStateStore struct {
	kv kvstore.Store
}

// NewRunStateStore 创建运行状态存储
func NewRunStateStore(kv kvstore.Store) *RunStateStore {
	return &RunStateStore{kv: kv}
}

// Load 读取运行状态，缺失的字段为零值
func (s *RunStateStore) Load(ctx context.Context) (RunState, error) {
	values, err := s.kv.Get(ctx, KeyRunning, KeyCycles, KeyProcessed)
	if err != nil {
		return RunState{}, errors.Wrap(err, "load run state")
	}

	var state RunState
	fields := []struct {
		key string
		dst any
	}{
		{KeyRunning, &state.Running},
		{KeyCycles, &state.Cycles},
		{KeyProcessed, &state.Processed},
	}
	for _, f := range fields {
		raw, ok := values[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return RunState{}, errors.Wrapf(err, "decode %s", f.key)
		}
	}
	return state, nil
}

// Save 写入完整的运行状态
func (s *RunStateStore) Save(ctx context.Context, state RunState) error {
	err := s.kv.Set(ctx, map[string]any{
		KeyRunning:   state.Running,
		KeyCycles:    state.Cycles,
		KeyProcessed: state.Processed,
	})
	return errors.Wrap(err, "save run state")
}

// SetRunning 只更新运行标记
func (s *RunStateStore) SetRunning(ctx context.Context, running bool) error {
	err := s.kv.Set(ctx, map[string]any{KeyRunning: running})
	return errors.Wrap(err, "save running flag")
}

// Reset 清空计数器并移除运行标记。计数器只能通过这里回退。
func (s *RunStateStore) Reset(ctx context.Context) error {
	err := s.kv.Remove(ctx, KeyRunning, KeyCycles, KeyProcessed)
	return errors.Wrap(err, "reset run state")
}
