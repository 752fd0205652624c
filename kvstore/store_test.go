package kvstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	ctx := context.Background()

	newFile := func(t *testing.T) Store {
		s, err := NewFileStore(filepath.Join(t.TempDir(), "local.json"))
		require.NoError(t, err)
		return s
	}
	newMemory := func(t *testing.T) Store { return NewMemoryStore() }

	tests := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{name: "文件存储", open: newFile},
		{name: "内存存储", open: newMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.open(t)

			require.NoError(t, s.Set(ctx, map[string]any{
				"bulkUnlikeCycles":  3,
				"bulkUnlikeRunning": true,
			}))

			got, err := s.Get(ctx, "bulkUnlikeCycles", "bulkUnlikeRunning", "missing")
			require.NoError(t, err)
			assert.Len(t, got, 2)
			assert.JSONEq(t, "3", string(got["bulkUnlikeCycles"]))
			assert.JSONEq(t, "true", string(got["bulkUnlikeRunning"]))

			require.NoError(t, s.Remove(ctx, "bulkUnlikeRunning", "missing"))
			got, err = s.Get(ctx, "bulkUnlikeRunning", "bulkUnlikeCycles")
			require.NoError(t, err)
			assert.NotContains(t, got, "bulkUnlikeRunning")
			assert.Contains(t, got, "bulkUnlikeCycles")
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := OpenNamespace(dir, NamespaceLocal)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, map[string]any{"bulkUnlikeProcessed": 42}))

	second, err := OpenNamespace(dir, NamespaceLocal)
	require.NoError(t, err)
	got, err := second.Get(ctx, "bulkUnlikeProcessed")
	require.NoError(t, err)

	var processed int
	require.NoError(t, json.Unmarshal(got["bulkUnlikeProcessed"], &processed))
	assert.Equal(t, 42, processed)
	assert.Equal(t, filepath.Join(dir, "local.json"), second.Path())

	_, err = os.Stat(filepath.Join(dir, "local.json.tmp"))
	assert.True(t, os.IsNotExist(err), "临时文件应在 rename 后消失")
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestFileStoreCancelledContext(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "local.json"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Set(ctx, map[string]any{"k": 1}), context.Canceled)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
