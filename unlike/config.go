package unlike

import "time"

// Delays 各阶段等待时长（毫秒）
type Delays struct {
	BetweenClicks int `json:"betweenClicks"`
	AfterSelect   int `json:"afterSelect"`
	AfterUnlike   int `json:"afterUnlike"`
	ReloadWait    int `json:"reloadWait"`
	ResumeDelay   int `json:"resumeDelay"`
}

// RunConfig 用户配置，序列化格式与导入导出的 JSON 一致
type RunConfig struct {
	Delays           Delays `json:"delays"`
	BatchSize        int    `json:"batchSize"`
	AutoRetry        bool   `json:"autoRetry"`
	MaxRetries       int    `json:"maxRetries"`
	RespectRateLimit bool   `json:"respectRateLimit"`
}

// EffectiveConfig 应用限速保护后的实际运行配置
type EffectiveConfig RunConfig

const (
	MinBatchSize  = 1
	MaxBatchSize  = 100
	MinMaxRetries = 1
	MaxMaxRetries = 10

	// RateLimitedBatchSize 开启限速保护后的单轮上限
	RateLimitedBatchSize = 25
)

// valueRange 数值的安全区间 [min,max]
type valueRange struct {
	min, max int
}

var valueRanges = struct {
	betweenClicks, afterSelect, afterUnlike, reloadWait, resumeDelay valueRange
}{
	betweenClicks: valueRange{50, 5000},
	afterSelect:   valueRange{200, 10000},
	afterUnlike:   valueRange{500, 10000},
	reloadWait:    valueRange{500, 10000},
	resumeDelay:   valueRange{3000, 30000},
}

// RateLimitFloors 开启 respectRateLimit 时各延迟的下限
var RateLimitFloors = Delays{
	BetweenClicks: 200,
	AfterSelect:   1000,
	AfterUnlike:   2000,
	ReloadWait:    2000,
	ResumeDelay:   10000,
}

// DefaultConfig 默认配置（与 balanced 预设相同）
func DefaultConfig() RunConfig {
	return RunConfig{
		Delays: Delays{
			BetweenClicks: 100,
			AfterSelect:   500,
			AfterUnlike:   1000,
			ReloadWait:    1000,
			ResumeDelay:   5000,
		},
		BatchSize:        50,
		AutoRetry:        true,
		MaxRetries:       3,
		RespectRateLimit: true,
	}
}

// Validate 把配置收敛到安全范围内。未设置（零值）的字段取默认值后再裁剪。
func (c RunConfig) Validate() RunConfig {
	def := DefaultConfig()
	v := c

	v.Delays.BetweenClicks = clampDefault(c.Delays.BetweenClicks, def.Delays.BetweenClicks, valueRanges.betweenClicks)
	v.Delays.AfterSelect = clampDefault(c.Delays.AfterSelect, def.Delays.AfterSelect, valueRanges.afterSelect)
	v.Delays.AfterUnlike = clampDefault(c.Delays.AfterUnlike, def.Delays.AfterUnlike, valueRanges.afterUnlike)
	v.Delays.ReloadWait = clampDefault(c.Delays.ReloadWait, def.Delays.ReloadWait, valueRanges.reloadWait)
	v.Delays.ResumeDelay = clampDefault(c.Delays.ResumeDelay, def.Delays.ResumeDelay, valueRanges.resumeDelay)

	v.BatchSize = clampDefault(c.BatchSize, def.BatchSize, valueRange{MinBatchSize, MaxBatchSize})
	v.MaxRetries = clampDefault(c.MaxRetries, def.MaxRetries, valueRange{MinMaxRetries, MaxMaxRetries})

	return v
}

// Effective 计算实际运行配置。纯函数：开启限速保护时抬高延迟下限并限制批量大小。
func (c RunConfig) Effective() EffectiveConfig {
	e := EffectiveConfig(c)
	if !c.RespectRateLimit {
		return e
	}

	e.Delays.BetweenClicks = max(e.Delays.BetweenClicks, RateLimitFloors.BetweenClicks)
	e.Delays.AfterSelect = max(e.Delays.AfterSelect, RateLimitFloors.AfterSelect)
	e.Delays.AfterUnlike = max(e.Delays.AfterUnlike, RateLimitFloors.AfterUnlike)
	e.Delays.ReloadWait = max(e.Delays.ReloadWait, RateLimitFloors.ReloadWait)
	e.Delays.ResumeDelay = max(e.Delays.ResumeDelay, RateLimitFloors.ResumeDelay)
	e.BatchSize = min(e.BatchSize, RateLimitedBatchSize)

	return e
}

func clampDefault(value, def int, r valueRange) int {
	if value == 0 {
		value = def
	}
	return max(r.min, min(r.max, value))
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Presets 内置预设
func Presets() map[string]RunConfig {
	return map[string]RunConfig{
		"conservative": {
			Delays:           Delays{BetweenClicks: 300, AfterSelect: 1500, AfterUnlike: 3000, ReloadWait: 2000, ResumeDelay: 10000},
			BatchSize:        20,
			RespectRateLimit: true,
			AutoRetry:        true,
			MaxRetries:       2,
		},
		"balanced": DefaultConfig(),
		"aggressive": {
			Delays:           Delays{BetweenClicks: 50, AfterSelect: 200, AfterUnlike: 500, ReloadWait: 500, ResumeDelay: 3000},
			BatchSize:        100,
			RespectRateLimit: false,
			AutoRetry:        true,
			MaxRetries:       5,
		},
	}
}

// PresetCustom 不匹配任何预设时的名称
const PresetCustom = "custom"

// DetectPreset 返回与配置完全一致的预设名称，否则返回 custom
func DetectPreset(c RunConfig) string {
	for name, p := range Presets() {
		if p == c {
			return name
		}
	}
	return PresetCustom
}
