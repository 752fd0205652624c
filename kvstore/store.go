// Package kvstore 提供跨页面重载存活的键值存储（durable KV）。
// 与浏览器扩展的 chrome.storage 一样，分为 settings 与 local 两个独立命名空间，
// 每个命名空间落地为一个 JSON 文件。
package kvstore

import (
	"context"
	"encoding/json"
)

// Store 键值存储接口
type Store interface {
	// Get 读取指定的 key，不存在的 key 不会出现在返回值中
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	// Set 写入一组 key，值会被序列化为 JSON
	Set(ctx context.Context, values map[string]any) error
	// Remove 删除指定的 key，不存在的 key 会被忽略
	Remove(ctx context.Context, keys ...string) error
}

const (
	// NamespaceSettings 同步的设置命名空间
	NamespaceSettings = "settings"
	// NamespaceLocal 本地运行状态命名空间
	NamespaceLocal = "local"
)

func encodeValues(values map[string]any) (map[string]json.RawMessage, error) {
	encoded := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		if raw, ok := v.(json.RawMessage); ok {
			encoded[k] = raw
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		encoded[k] = data
	}
	return encoded, nil
}
