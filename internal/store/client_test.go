package store_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/dramaverse/internal/model"
	"github.com/user/dramaverse/internal/store"
)

func intPtr(v int) *int { return &v }

// errEnvelope 远端错误响应信封
type errEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func TestUnauthenticatedShortCircuit(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := store.NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.ListEntries(ctx, "", "", 1, 20)
	assert.ErrorIs(t, err, store.ErrUnauthenticated)

	_, err = c.CreateEntry(ctx, "", 1, model.StatusWatching, nil)
	assert.ErrorIs(t, err, store.ErrUnauthenticated)

	_, err = c.UpdateEntry(ctx, "", 1, store.EntryPatch{})
	assert.ErrorIs(t, err, store.ErrUnauthenticated)

	err = c.DeleteEntry(ctx, "", 1)
	assert.ErrorIs(t, err, store.ErrUnauthenticated)

	_, err = c.Stats(ctx, "")
	assert.ErrorIs(t, err, store.ErrUnauthenticated)

	assert.Zero(t, atomic.LoadInt32(&hits), "没有凭证时不得发出任何网络请求")
}

func TestExpiredTokenMapsToUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(errEnvelope{Code: 401, Message: "Token 无效或已过期"})
	}))
	defer srv.Close()

	c := store.NewClient(srv.URL)
	_, err := c.ListEntries(context.Background(), "stale-token", "", 1, 20)
	assert.ErrorIs(t, err, store.ErrUnauthenticated)
}

func TestListEntriesDropsUnknownStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": 1, "content_id": 10, "status": "watching"},
				{"id": 2, "content_id": 11, "status": "paused"},
				{"id": 3, "content_id": 12, "status": "completed"},
			},
			"total": 3,
			"status_counts": map[string]int{
				"want_to_watch": 0, "watching": 1, "completed": 1, "dropped": 0,
			},
		})
	}))
	defer srv.Close()

	c := store.NewClient(srv.URL)
	page, err := c.ListEntries(context.Background(), "tok", "", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 2, "未知状态的记录要在边界处被丢弃")
	assert.Equal(t, model.StatusWatching, page.Items[0].Status)
	assert.Equal(t, model.StatusCompleted, page.Items[1].Status)
}

func TestListEntriesRejectsUnknownFilter(t *testing.T) {
	c := store.NewClient("http://localhost:1")
	_, err := c.ListEntries(context.Background(), "tok", model.WatchStatus("bogus"), 1, 20)
	assert.Error(t, err)
}

func TestCreateEntryDuplicateMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errEnvelope{Code: 400, Message: "该内容已在追剧列表中"})
	}))
	defer srv.Close()

	c := store.NewClient(srv.URL)
	_, err := c.CreateEntry(context.Background(), "tok", 1, model.StatusWantToWatch, nil)
	assert.ErrorIs(t, err, store.ErrDuplicateEntry)
}

func TestUpdateEntryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(errEnvelope{Code: 404, Message: "追剧记录不存在"})
	}))
	defer srv.Close()

	c := store.NewClient(srv.URL)
	status := model.StatusCompleted
	_, err := c.UpdateEntry(context.Background(), "tok", 42, store.EntryPatch{Status: &status})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteEntryNotFoundTreatedAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := store.NewClient(srv.URL)
	err := c.DeleteEntry(context.Background(), "tok", 42)
	assert.NoError(t, err, "目标已不在列表里，用户想要的结果已经达成")
}

func TestFindEntryByContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": 1, "content_id": 10, "status": "watching"},
				{"id": 2, "content_id": 20, "status": "completed"},
			},
			"total":         2,
			"status_counts": map[string]int{"watching": 1, "completed": 1},
		})
	}))
	defer srv.Close()

	c := store.NewClient(srv.URL)

	entry, err := c.FindEntryByContent(context.Background(), "tok", 20)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.ID)

	entry, err = c.FindEntryByContent(context.Background(), "tok", 999)
	require.NoError(t, err)
	assert.Nil(t, entry, "未追剧的内容返回 nil 而不是错误")
}

func TestTransientErrorKeepsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(errEnvelope{Code: 500, Message: "获取追剧列表失败"})
	}))
	defer srv.Close()

	c := store.NewClient(srv.URL)
	_, err := c.ListEntries(context.Background(), "tok", "", 1, 20)
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrUnauthenticated)
	assert.NotErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "获取追剧列表失败")
}

func TestGetContentCachesMetadata(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		json.NewEncoder(w).Encode(model.Content{ID: 7, Title: "缓存测试", Episodes: intPtr(8)})
	}))
	defer srv.Close()

	c := store.NewClient(srv.URL)
	ctx := context.Background()

	first, err := c.GetContent(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := c.GetContent(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.Title, second.Title)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "内容元数据第二次应命中缓存")
}

func TestGetContentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := store.NewClient(srv.URL)
	content, err := c.GetContent(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, content)
}
