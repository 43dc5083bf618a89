package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/dramaverse/internal/model"
	"github.com/user/dramaverse/internal/service"
	"github.com/user/dramaverse/internal/store"
)

// 追剧相关的 htmx 片段接口
// 所有变更都以远端返回的记录为准重新渲染片段，页面上的乐观状态只存在
// 于请求在途的一瞬间，响应落地后一律被权威状态覆盖

// watchItem 列表卡片的渲染数据：记录本体加上该状态下可用的操作
type watchItem struct {
	Entry        *model.WatchlistEntry
	Actions      []service.QuickAction
	EditProgress bool
}

// WatchlistButtonHTMX 详情页追剧按钮片段
// GET /htmx/watchlist/button?content_id=xxx
func (h *Handler) WatchlistButtonHTMX(c *gin.Context) {
	contentID, _ := strconv.Atoi(c.Query("content_id"))
	if contentID <= 0 {
		c.String(http.StatusOK, "")
		return
	}

	token := h.token(c)
	entry, err := h.Watchlist.StatusFor(c.Request.Context(), token, contentID)
	if err != nil {
		log.Printf("[WatchlistButtonHTMX] 查询状态失败: %v", err)
	}

	h.renderButton(c, contentID, entry, gin.H{})
}

// AddEntryHTMX 添加追剧记录
// POST /htmx/watchlist  表单: content_id, status, total_episodes(可选)
func (h *Handler) AddEntryHTMX(c *gin.Context) {
	contentID, _ := strconv.Atoi(c.PostForm("content_id"))
	if contentID <= 0 {
		c.String(http.StatusBadRequest, "参数错误")
		return
	}

	status, err := model.ParseWatchStatus(c.PostForm("status"))
	if err != nil {
		c.String(http.StatusBadRequest, "未知的追剧状态")
		return
	}

	var totalEpisodes *int
	if v, convErr := strconv.Atoi(c.PostForm("total_episodes")); convErr == nil && v > 0 {
		totalEpisodes = &v
	}

	token := h.token(c)
	entry, err := h.Watchlist.Add(c.Request.Context(), token, contentID, status, totalEpisodes)
	switch {
	case errors.Is(err, store.ErrUnauthenticated):
		h.renderButton(c, contentID, nil, gin.H{"NeedLogin": true})
		return
	case errors.Is(err, store.ErrDuplicateEntry):
		// 已有记录，entry 是对账后的权威状态
		h.renderButton(c, contentID, entry, gin.H{"Notice": "该内容已在你的追剧列表中"})
		return
	case err != nil:
		log.Printf("[AddEntryHTMX] 添加失败: %v", err)
		h.renderButton(c, contentID, nil, gin.H{"Error": "操作失败，请稍后重试"})
		return
	}

	h.renderButton(c, contentID, entry, gin.H{})
}

// SetStatusHTMX 切换追剧状态（菜单直选或快捷操作）
// POST /htmx/watchlist/:id/status  表单: status 或 action
func (h *Handler) SetStatusHTMX(c *gin.Context) {
	entryID, _ := strconv.Atoi(c.Param("id"))
	contentID, _ := strconv.Atoi(c.PostForm("content_id"))
	token := h.token(c)
	ctx := c.Request.Context()

	var (
		entry *model.WatchlistEntry
		err   error
	)
	switch c.PostForm("action") {
	case "start_watching":
		entry, err = h.Watchlist.StartWatching(ctx, token, entryID)
	case "mark_completed":
		entry, err = h.Watchlist.MarkCompleted(ctx, token, entryID)
	default:
		var status model.WatchStatus
		status, err = model.ParseWatchStatus(c.PostForm("status"))
		if err != nil {
			c.String(http.StatusBadRequest, "未知的追剧状态")
			return
		}
		entry, err = h.Watchlist.SetStatus(ctx, token, entryID, status)
	}

	h.renderMutationResult(c, contentID, entry, err)
}

// SetProgressHTMX 更新观看进度
// POST /htmx/watchlist/:id/progress  表单: progress
func (h *Handler) SetProgressHTMX(c *gin.Context) {
	entryID, _ := strconv.Atoi(c.Param("id"))
	progress, convErr := strconv.Atoi(c.PostForm("progress"))
	if convErr != nil || progress < 0 {
		c.String(http.StatusBadRequest, "进度必须是非负整数")
		return
	}

	entry, err := h.Watchlist.SetProgress(c.Request.Context(), h.token(c), entryID, progress)
	h.renderMutationResult(c, 0, entry, err)
}

// RemoveEntryHTMX 移除追剧记录
// DELETE /htmx/watchlist/:id
func (h *Handler) RemoveEntryHTMX(c *gin.Context) {
	entryID, _ := strconv.Atoi(c.Param("id"))
	contentID, _ := strconv.Atoi(c.Query("content_id"))
	token := h.token(c)

	err := h.Watchlist.Remove(c.Request.Context(), token, entryID)
	if errors.Is(err, store.ErrUnauthenticated) {
		h.renderButton(c, contentID, nil, gin.H{"NeedLogin": true})
		return
	}
	if err != nil {
		log.Printf("[RemoveEntryHTMX] 移除失败: %v", err)
	}

	// 列表页发起的移除：重新渲染整个列表片段，计数 Tab 一并刷新
	if c.Query("source") == "list" {
		h.renderList(c)
		return
	}

	h.renderButton(c, contentID, nil, gin.H{})
}

// WatchlistListHTMX 追剧列表片段（筛选 Tab / 翻页都打这里）
// GET /htmx/watchlist/list?status=&page=
func (h *Handler) WatchlistListHTMX(c *gin.Context) {
	h.renderList(c)
}

// WatchlistStatsHTMX 追剧统计面板片段
// GET /htmx/watchlist/stats
func (h *Handler) WatchlistStatsHTMX(c *gin.Context) {
	token := h.token(c)
	if token == "" {
		c.HTML(http.StatusOK, "partials/watchlist_stats.html", gin.H{"NeedLogin": true})
		return
	}

	stats, err := h.Watchlist.Stats(c.Request.Context(), token)
	if err != nil {
		log.Printf("[WatchlistStatsHTMX] 获取统计失败: %v", err)
		c.HTML(http.StatusOK, "partials/watchlist_stats.html", gin.H{
			"Error": "统计加载失败，请稍后重试",
		})
		return
	}

	c.HTML(http.StatusOK, "partials/watchlist_stats.html", gin.H{
		"Stats":    stats,
		"Statuses": model.AllWatchStatuses,
	})
}

// ==================== 渲染辅助 ====================

// renderButton 渲染详情页追剧按钮片段
func (h *Handler) renderButton(c *gin.Context, contentID int, entry *model.WatchlistEntry, extra gin.H) {
	data := gin.H{
		"ContentID": contentID,
		"Entry":     entry,
		"Statuses":  model.AllWatchStatuses,
		"LoggedIn":  h.token(c) != "",
	}
	for k, v := range extra {
		data[k] = v
	}
	c.HTML(http.StatusOK, "partials/watchlist_button.html", data)
}

// renderMutationResult 状态/进度变更后的统一渲染
// source=button 回按钮片段，其余回列表片段；记录已不存在时也走这里兜底
func (h *Handler) renderMutationResult(c *gin.Context, contentID int, entry *model.WatchlistEntry, err error) {
	fromButton := c.PostForm("source") == "button"

	switch {
	case errors.Is(err, store.ErrUnauthenticated):
		if fromButton {
			h.renderButton(c, contentID, nil, gin.H{"NeedLogin": true})
		} else {
			c.String(http.StatusUnauthorized, "未登录")
		}
		return
	case errors.Is(err, store.ErrNotFound):
		// 记录在别处被删了，以远端为准刷新视图
		if fromButton {
			h.renderButton(c, contentID, nil, gin.H{"Notice": "记录已不存在，已为你刷新"})
		} else {
			h.renderList(c)
		}
		return
	case err != nil:
		log.Printf("[renderMutationResult] 操作失败: %v", err)
		if fromButton {
			refetched, _ := h.Watchlist.StatusFor(c.Request.Context(), h.token(c), contentID)
			h.renderButton(c, contentID, refetched, gin.H{"Error": "操作失败，请稍后重试"})
		} else {
			h.renderList(c)
		}
		return
	}

	if fromButton {
		h.renderButton(c, contentID, entry, gin.H{})
		return
	}
	h.renderList(c)
}

// listParams 解析列表的筛选和分页参数，未知状态值回落到全部
func (h *Handler) listParams(c *gin.Context) (model.WatchStatus, int) {
	var status model.WatchStatus
	if v := c.Query("status"); v != "" {
		if s, err := model.ParseWatchStatus(v); err == nil {
			status = s
		}
	}
	// 变更类请求从表单带筛选上下文
	if v := c.PostForm("status_filter"); v != "" {
		if s, err := model.ParseWatchStatus(v); err == nil {
			status = s
		}
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if v := c.PostForm("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			page = p
		}
	}
	if page < 1 {
		page = 1
	}
	return status, page
}

// listRenderData 组装列表片段的渲染数据
func (h *Handler) listRenderData(list *model.WatchlistPage, status model.WatchStatus, page int) gin.H {
	items := make([]watchItem, 0, len(list.Items))
	for _, e := range list.Items {
		items = append(items, watchItem{
			Entry:        e,
			Actions:      h.Watchlist.QuickActions(e),
			EditProgress: h.Watchlist.CanEditProgress(e),
		})
	}

	totalPages := (list.Total + watchlistPageSize - 1) / watchlistPageSize

	return gin.H{
		"Items":         items,
		"Total":         list.Total,
		"StatusCounts":  list.StatusCounts,
		"AllCount":      list.AllCount(),
		"CurrentStatus": status,
		"Statuses":      model.AllWatchStatuses,
		"Page":          page,
		"TotalPages":    totalPages,
		"PrevPage":      page - 1,
		"NextPage":      page + 1,
		"HasPrev":       page > 1,
		"HasNext":       page < totalPages,
	}
}

// renderList 拉取并渲染追剧列表片段
func (h *Handler) renderList(c *gin.Context) {
	token := h.token(c)
	if token == "" {
		c.HTML(http.StatusOK, "partials/watchlist_list.html", gin.H{"NeedLogin": true})
		return
	}

	status, page := h.listParams(c)

	list, err := h.Watchlist.List(c.Request.Context(), token, status, page, watchlistPageSize)
	if err != nil {
		log.Printf("[renderList] 加载列表失败: %v", err)
		c.HTML(http.StatusOK, "partials/watchlist_list.html", gin.H{
			"Error": "追剧列表加载失败，请稍后重试",
		})
		return
	}

	// 删光最后一页后自动回退到前一页
	if len(list.Items) == 0 && page > 1 {
		page--
		list, err = h.Watchlist.List(c.Request.Context(), token, status, page, watchlistPageSize)
		if err != nil {
			log.Printf("[renderList] 回退翻页失败: %v", err)
			c.HTML(http.StatusOK, "partials/watchlist_list.html", gin.H{
				"Error": "追剧列表加载失败，请稍后重试",
			})
			return
		}
	}

	c.HTML(http.StatusOK, "partials/watchlist_list.html", h.listRenderData(list, status, page))
}
