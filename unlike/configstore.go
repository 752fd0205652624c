package unlike

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/h2non/filetype"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xpzouying/instagram-unlike/kvstore"
)

// KeyConfig settings 命名空间中保存配置的 key
const KeyConfig = "bulkUnlikeConfig"

// ErrUnknownPreset 预设名称不存在
var ErrUnknownPreset = errors.New("preset not found")

// ErrInvalidConfig 导入的内容不是合法的配置 JSON
var ErrInvalidConfig = errors.New("invalid configuration format")

// ConfigStore 读写 settings 命名空间中的运行配置
type ConfigStore struct {
	kv kvstore.Store
}

// NewConfigStore 创建配置存储
func NewConfigStore(kv kvstore.Store) *ConfigStore {
	return &ConfigStore{kv: kv}
}

// Load 读取配置并与默认值合并、校验。
// 读取或解析失败时退回默认配置，只记录告警。
func (s *ConfigStore) Load(ctx context.Context) RunConfig {
	values, err := s.kv.Get(ctx, KeyConfig)
	if err != nil {
		logrus.WithError(err).Warn("读取配置失败，使用默认配置")
		return DefaultConfig()
	}

	raw, ok := values[KeyConfig]
	if !ok {
		return DefaultConfig()
	}

	cfg, err := decodeConfig(raw)
	if err != nil {
		logrus.WithError(err).Warn("解析配置失败，使用默认配置")
		return DefaultConfig()
	}
	return cfg.Validate()
}

// Save 校验后保存，返回实际保存的配置
func (s *ConfigStore) Save(ctx context.Context, cfg RunConfig) (RunConfig, error) {
	validated := cfg.Validate()
	if err := s.kv.Set(ctx, map[string]any{KeyConfig: validated}); err != nil {
		return validated, errors.Wrap(err, "save config")
	}
	return validated, nil
}

// Reset 恢复默认配置
func (s *ConfigStore) Reset(ctx context.Context) (RunConfig, error) {
	return s.Save(ctx, DefaultConfig())
}

// ApplyPreset 保存指定名称的预设
func (s *ConfigStore) ApplyPreset(ctx context.Context, name string) (RunConfig, error) {
	preset, ok := Presets()[name]
	if !ok {
		return RunConfig{}, errors.Wrapf(ErrUnknownPreset, "preset '%s'", name)
	}
	return s.Save(ctx, preset)
}

// PresetNames 按字母序返回所有预设名称
func PresetNames() []string {
	names := make([]string, 0, len(Presets()))
	for name := range Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Export 导出为缩进的 JSON
func Export(cfg RunConfig) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}

// Import 解析导入的 JSON 并校验。二进制文件（图片、压缩包等）直接拒绝。
func Import(data []byte) (RunConfig, error) {
	if kind, _ := filetype.Match(data); kind != filetype.Unknown {
		return RunConfig{}, errors.Wrapf(ErrInvalidConfig, "unexpected %s file", kind.MIME.Value)
	}

	cfg, err := decodeConfig(data)
	if err != nil {
		return RunConfig{}, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return cfg.Validate(), nil
}

// decodeConfig 在默认值之上解码，缺失字段保持默认值
func decodeConfig(data []byte) (RunConfig, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}
