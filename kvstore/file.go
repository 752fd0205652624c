package kvstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FileStore 基于 JSON 文件的持久化实现。
// 每次写入都整体落盘（临时文件 + rename），进程重启后数据依然可读。
type FileStore struct {
	mu   sync.RWMutex
	path string
	data map[string]json.RawMessage
}

// NewFileStore 打开（或创建）指定路径的存储文件
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: make(map[string]json.RawMessage),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenNamespace 在数据目录下打开指定命名空间，文件名为 <namespace>.json
func OpenNamespace(dataDir, namespace string) (*FileStore, error) {
	return NewFileStore(filepath.Join(dataDir, namespace+".json"))
}

// Path 返回存储文件路径
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "read store file %s", s.path)
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.data); err != nil {
		return errors.Wrapf(err, "decode store file %s", s.path)
	}
	if s.data == nil {
		s.data = make(map[string]json.RawMessage)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if v, ok := s.data[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

func (s *FileStore) Set(ctx context.Context, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded, err := encodeValues(values)
	if err != nil {
		return errors.Wrap(err, "encode values")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]json.RawMessage, len(s.data)+len(encoded))
	for k, v := range s.data {
		next[k] = v
	}
	for k, v := range encoded {
		next[k] = v
	}
	if err := s.flush(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

func (s *FileStore) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]json.RawMessage, len(s.data))
	for k, v := range s.data {
		next[k] = v
	}
	for _, k := range keys {
		delete(next, k)
	}
	if err := s.flush(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

// flush 原子写入：先写临时文件再 rename，避免进程中断留下半个文件
func (s *FileStore) flush(data map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return errors.Wrap(err, "create store directory")
	}

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode store")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return errors.Wrap(err, "write temp store file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "replace store file")
	}

	logrus.WithField("path", s.path).Debug("store flushed")
	return nil
}
