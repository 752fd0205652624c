package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpzouying/instagram-unlike/kvstore"
	"github.com/xpzouying/instagram-unlike/session"
	"github.com/xpzouying/instagram-unlike/unlike"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubControl string

func (c stubControl) Label() string { return string(c) }

// emptyLikesPage 一个已经没有点赞记录的页面
type emptyLikesPage struct{}

func (emptyLikesPage) EnsureLikesPage(ctx context.Context) error { return nil }
func (emptyLikesPage) WaitLoaded(ctx context.Context) error      { return nil }
func (emptyLikesPage) Reload(ctx context.Context) error          { return nil }
func (emptyLikesPage) FindSelectControl(ctx context.Context) (unlike.Control, error) {
	return stubControl("select"), nil
}
func (emptyLikesPage) FindUnselectedItems(ctx context.Context, limit int) ([]unlike.Control, error) {
	return nil, nil
}
func (emptyLikesPage) ClickItem(ctx context.Context, item unlike.Control) error { return nil }
func (emptyLikesPage) FindUnlikeControl(ctx context.Context) (unlike.Control, error) {
	return nil, errors.Wrap(unlike.ErrNotFound, "unlike")
}
func (emptyLikesPage) FindConfirmControl(ctx context.Context) (unlike.Control, error) {
	return nil, errors.Wrap(unlike.ErrNotFound, "confirm")
}

var noWait = unlike.SleeperFunc(func(ctx context.Context, d time.Duration) error {
	return ctx.Err()
})

// newTestServer 返回应用服务器；run 为 true 时在后台运行会话
func newTestServer(t *testing.T, run bool) *AppServer {
	t.Helper()

	sess := session.New(
		emptyLikesPage{},
		unlike.NewConfigStore(kvstore.NewMemoryStore()),
		unlike.NewRunStateStore(kvstore.NewMemoryStore()),
		unlike.NewBroadcaster(),
		session.WithSleeper(noWait),
	)

	if run {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = sess.Run(ctx)
		}()
		t.Cleanup(func() {
			cancel()
			<-done
		})
		<-sess.Ready()
	}

	return NewAppServer(NewUnlikeService(sess))
}

func doRequest(s *AppServer, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)

	w := doRequest(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestConfigEndpoints(t *testing.T) {
	s := newTestServer(t, false)

	t.Run("默认配置", func(t *testing.T) {
		w := doRequest(s, http.MethodGet, "/api/v1/config", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var view ConfigView
		decodeData(t, w, &view)
		assert.Equal(t, unlike.DefaultConfig(), view.Config)
		assert.Equal(t, "balanced", view.Preset)
		assert.Equal(t, unlike.RateLimitedBatchSize, view.Effective.BatchSize)
	})

	t.Run("部分更新并截断", func(t *testing.T) {
		w := doRequest(s, http.MethodPut, "/api/v1/config", []byte(`{"batchSize": 500}`))
		require.Equal(t, http.StatusOK, w.Code)

		var view ConfigView
		decodeData(t, w, &view)
		assert.Equal(t, unlike.MaxBatchSize, view.Config.BatchSize)
		assert.Equal(t, unlike.DefaultConfig().Delays, view.Config.Delays)
		assert.Equal(t, unlike.PresetCustom, view.Preset)
	})

	t.Run("应用预设", func(t *testing.T) {
		w := doRequest(s, http.MethodPost, "/api/v1/config/preset/conservative", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var view ConfigView
		decodeData(t, w, &view)
		assert.Equal(t, "conservative", view.Preset)
	})

	t.Run("未知预设", func(t *testing.T) {
		w := doRequest(s, http.MethodPost, "/api/v1/config/preset/reckless", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "PRESET_NOT_FOUND")
	})

	t.Run("导出再导入", func(t *testing.T) {
		w := doRequest(s, http.MethodGet, "/api/v1/config/export", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		exported := w.Body.Bytes()

		doRequest(s, http.MethodPost, "/api/v1/config/preset/aggressive", nil)

		w = doRequest(s, http.MethodPost, "/api/v1/config/import", exported)
		require.Equal(t, http.StatusOK, w.Code)
		var view ConfigView
		decodeData(t, w, &view)
		assert.Equal(t, "conservative", view.Preset)
	})

	t.Run("导入二进制文件", func(t *testing.T) {
		png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
		w := doRequest(s, http.MethodPost, "/api/v1/config/import", png)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_CONFIG")
	})
}

func TestMessageProtocol(t *testing.T) {
	s := newTestServer(t, true)

	t.Run("getStatus", func(t *testing.T) {
		w := doRequest(s, http.MethodPost, "/api/v1/message", []byte(`{"action":"getStatus"}`))
		require.Equal(t, http.StatusOK, w.Code)

		var resp unlike.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Status)
		assert.False(t, resp.Status.Running)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		for _, key := range []string{"running", "cycles", "processed", "action"} {
			assert.Contains(t, raw, key)
		}
		assert.NotContains(t, raw, "status")
	})

	t.Run("stop 应答不带状态快照", func(t *testing.T) {
		w := doRequest(s, http.MethodPost, "/api/v1/message", []byte(`{"action":"stop"}`))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
	})

	t.Run("未知动作", func(t *testing.T) {
		w := doRequest(s, http.MethodPost, "/api/v1/message", []byte(`{"action":"explode"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp unlike.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "explode")
	})

	t.Run("缺少 action", func(t *testing.T) {
		w := doRequest(s, http.MethodPost, "/api/v1/message", []byte(`{}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMessageBeforePageLoad(t *testing.T) {
	s := newTestServer(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/message", strings.NewReader(`{"action":"start"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStartRunsUntilNoItemsLeft(t *testing.T) {
	s := newTestServer(t, true)

	w := doRequest(s, http.MethodPost, "/api/v1/unlike/start", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		st := s.service.Status(context.Background())
		return !st.Running && st.Cycles == 1 && st.Action == unlike.ActionStopped
	}, 5*time.Second, 10*time.Millisecond)

	w = doRequest(s, http.MethodPost, "/api/v1/unlike/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/api/v1/unlike/status", nil)
	var st unlike.Status
	decodeData(t, w, &st)
	assert.Equal(t, 0, st.Cycles)
	assert.Equal(t, 0, st.Processed)
}

func TestStatusEventsStream(t *testing.T) {
	s := newTestServer(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/unlike/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.router.ServeHTTP(w, req)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.Contains(t, body, "event:status")
	assert.Contains(t, body, `"type":"status"`)
	assert.Contains(t, body, `"running":false`)
}

func TestMCPHandlers(t *testing.T) {
	s := newTestServer(t, true)
	ctx := context.Background()

	res := s.handleGetConfig(ctx)
	assert.False(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, "balanced")

	res = s.handleApplyPreset(ctx, "")
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, "aggressive")

	res = s.handleApplyPreset(ctx, "aggressive")
	assert.False(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, "aggressive")

	res = s.handleGetStatus(ctx)
	assert.False(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, "运行中: 否")

	converted := convertToMCPResult(s.handleStopUnlike(ctx))
	assert.False(t, converted.IsError)
	require.Len(t, converted.Content, 1)
}
