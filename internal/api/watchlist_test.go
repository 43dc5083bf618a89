package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/dramaverse/internal/api"
	"github.com/user/dramaverse/internal/config"
	"github.com/user/dramaverse/internal/model"
	"github.com/user/dramaverse/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func intPtr(v int) *int { return &v }

// newTestEnv 启动一套完整的接口栈：内存 sqlite + 真实路由
func newTestEnv(t *testing.T) (*gin.Engine, *repository.Repositories) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	repos := repository.NewRepositories(db)
	cfg := &config.Config{
		AppSecret: "test-secret",
		JWTExpiry: time.Hour,
		SiteName:  "DramaVerse",
	}

	api.RegisterValidations()

	r := gin.New()
	api.RegisterRoutes(r, api.NewHandler(repos, cfg))
	return r, repos
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.TokenResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func seedContent(t *testing.T, repos *repository.Repositories, title string, episodes *int) *model.Content {
	t.Helper()
	c := &model.Content{
		Title:       title,
		Year:        2024,
		Country:     "韩国",
		ContentType: model.TypeDrama,
		Genres:      []string{"romance"},
		Rating:      8.5,
		Episodes:    episodes,
	}
	require.NoError(t, repos.Content.Create(c))
	return c
}

func TestWatchlistRequiresAuth(t *testing.T) {
	r, _ := newTestEnv(t)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/watchlist"},
		{http.MethodPost, "/api/watchlist"},
		{http.MethodGet, "/api/watchlist/stats"},
		{http.MethodPut, "/api/watchlist/1"},
		{http.MethodDelete, "/api/watchlist/1"},
	} {
		w := doJSON(t, r, req.method, req.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", req.method, req.path)
	}
}

func TestCreateSnapshotsEpisodesFromContent(t *testing.T) {
	r, repos := newTestEnv(t)
	token := registerUser(t, r, "snap@example.com")
	content := seedContent(t, repos, "黑暗荣耀", intPtr(16))

	w := doJSON(t, r, http.MethodPost, "/api/watchlist", token, gin.H{
		"content_id": content.ID,
		"status":     "watching",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var entry model.WatchlistEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, model.StatusWatching, entry.Status)
	require.NotNil(t, entry.TotalEpisodes)
	assert.Equal(t, 16, *entry.TotalEpisodes)
	require.NotNil(t, entry.Content, "回读应带上内容元数据")
	assert.Equal(t, "黑暗荣耀", entry.Content.Title)
}

func TestCreateRejectsUnknownStatusAndMissingContent(t *testing.T) {
	r, repos := newTestEnv(t)
	token := registerUser(t, r, "reject@example.com")
	content := seedContent(t, repos, "测试剧", nil)

	w := doJSON(t, r, http.MethodPost, "/api/watchlist", token, gin.H{
		"content_id": content.ID,
		"status":     "paused",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "未知状态在绑定阶段就要被拒绝")

	w = doJSON(t, r, http.MethodPost, "/api/watchlist", token, gin.H{
		"content_id": 99999,
		"status":     "watching",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "不存在的内容不能入列表")

	// 400 专属于重复添加，校验失败不能占用这个状态码
	assert.NotEqual(t, http.StatusBadRequest, w.Code)
}

func TestDuplicateCreateKeepsOriginalEntry(t *testing.T) {
	r, repos := newTestEnv(t)
	token := registerUser(t, r, "dup@example.com")
	content := seedContent(t, repos, "请回答1988", intPtr(20))

	w := doJSON(t, r, http.MethodPost, "/api/watchlist", token, gin.H{
		"content_id": content.ID,
		"status":     "want_to_watch",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 同一内容再次添加，即使换了状态也要被 400 挡下
	w = doJSON(t, r, http.MethodPost, "/api/watchlist", token, gin.H{
		"content_id": content.ID,
		"status":     "completed",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/watchlist", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page model.WatchlistPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, model.StatusWantToWatch, page.Items[0].Status, "重复添加不得改动已有记录")
}

func TestStatusFilterKeepsCountsStable(t *testing.T) {
	r, repos := newTestEnv(t)
	token := registerUser(t, r, "filter@example.com")

	statuses := []string{"want_to_watch", "watching", "watching", "completed"}
	for i, s := range statuses {
		content := seedContent(t, repos, fmt.Sprintf("剧集 %d", i), nil)
		w := doJSON(t, r, http.MethodPost, "/api/watchlist", token, gin.H{
			"content_id": content.ID,
			"status":     s,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// 未过滤
	w := doJSON(t, r, http.MethodGet, "/api/watchlist", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all model.WatchlistPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Equal(t, 4, all.Total)
	assert.Equal(t, 2, all.StatusCounts[model.StatusWatching])
	assert.Equal(t, 0, all.StatusCounts[model.StatusDropped], "零计数的状态也要出现")

	// 过滤在看：items 和 total 收窄，计数保持完整集合
	w = doJSON(t, r, http.MethodGet, "/api/watchlist?status=watching", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var filtered model.WatchlistPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filtered))
	assert.Equal(t, 2, filtered.Total)
	assert.Len(t, filtered.Items, 2)
	assert.Equal(t, all.StatusCounts, filtered.StatusCounts, "切换筛选时计数不得跳动")

	// 未知状态值直接 400
	w = doJSON(t, r, http.MethodGet, "/api/watchlist?status=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartialUpdatePreservesOtherFields(t *testing.T) {
	r, repos := newTestEnv(t)
	token := registerUser(t, r, "update@example.com")
	content := seedContent(t, repos, "进度条测试", intPtr(12))

	w := doJSON(t, r, http.MethodPost, "/api/watchlist", token, gin.H{
		"content_id": content.ID,
		"status":     "watching",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var entry model.WatchlistEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))

	// 只改进度，状态保持
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/watchlist/%d", entry.ID), token, gin.H{
		"progress": 5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated model.WatchlistEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, model.StatusWatching, updated.Status)
	require.NotNil(t, updated.Progress)
	assert.Equal(t, 5, *updated.Progress)

	// 只改状态，进度保持
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/watchlist/%d", entry.ID), token, gin.H{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, model.StatusCompleted, updated.Status)
	require.NotNil(t, updated.Progress)
	assert.Equal(t, 5, *updated.Progress)

	// 未知状态被校验挡下
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/watchlist/%d", entry.ID), token, gin.H{
		"status": "paused",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// 不存在的记录是硬错误
	w = doJSON(t, r, http.MethodPut, "/api/watchlist/99999", token, gin.H{
		"status": "completed",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteEntry(t *testing.T) {
	r, repos := newTestEnv(t)
	token := registerUser(t, r, "delete@example.com")
	content := seedContent(t, repos, "待删除", nil)

	w := doJSON(t, r, http.MethodPost, "/api/watchlist", token, gin.H{
		"content_id": content.ID,
		"status":     "dropped",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var entry model.WatchlistEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/watchlist/%d", entry.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// 再删一次是 404，是否视作成功由客户端决定
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/watchlist/%d", entry.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/watchlist", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page model.WatchlistPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Total)
}

func TestUsersAreIsolated(t *testing.T) {
	r, repos := newTestEnv(t)
	tokenA := registerUser(t, r, "alice@example.com")
	tokenB := registerUser(t, r, "bob@example.com")
	content := seedContent(t, repos, "共享内容", nil)

	w := doJSON(t, r, http.MethodPost, "/api/watchlist", tokenA, gin.H{
		"content_id": content.ID,
		"status":     "watching",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var entry model.WatchlistEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))

	// 同一内容别的用户可以各自添加
	w = doJSON(t, r, http.MethodPost, "/api/watchlist", tokenB, gin.H{
		"content_id": content.ID,
		"status":     "want_to_watch",
	})
	assert.Equal(t, http.StatusOK, w.Code, "唯一约束是 (user, content) 而不是 content")

	// 用户 B 碰不到用户 A 的记录
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/watchlist/%d", entry.ID), tokenB, gin.H{
		"status": "dropped",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/watchlist/%d", entry.ID), tokenB, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWatchlistStats(t *testing.T) {
	r, repos := newTestEnv(t)
	token := registerUser(t, r, "stats@example.com")

	statuses := []string{"completed", "completed", "watching", "dropped"}
	for i, s := range statuses {
		content := seedContent(t, repos, fmt.Sprintf("统计剧 %d", i), nil)
		w := doJSON(t, r, http.MethodPost, "/api/watchlist", token, gin.H{
			"content_id": content.ID,
			"status":     s,
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/watchlist/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats model.WatchlistStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 4, stats.TotalContent)
	assert.Equal(t, 2, stats.StatusCounts[model.StatusCompleted])
	assert.Equal(t, 1, stats.StatusCounts[model.StatusWatching])
	assert.Equal(t, 0, stats.StatusCounts[model.StatusWantToWatch])
	assert.Equal(t, 50, stats.CompletionRate())
	assert.Len(t, stats.RecentActivity, 4)
}

func TestStatsEmptyWatchlist(t *testing.T) {
	r, _ := newTestEnv(t)
	token := registerUser(t, r, "empty@example.com")

	w := doJSON(t, r, http.MethodGet, "/api/watchlist/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats model.WatchlistStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.TotalContent)
	assert.Equal(t, 0, stats.CompletionRate())
	assert.NotNil(t, stats.RecentActivity)
	assert.Empty(t, stats.RecentActivity)
}
