package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/dramaverse/internal/middleware"
	"github.com/user/dramaverse/internal/model"
	"github.com/user/dramaverse/internal/repository"
	"github.com/user/dramaverse/internal/utils"
)

// recentActivityLimit 统计接口返回的最近动态条数
const recentActivityLimit = 5

// ListWatchlist 分页列出当前用户的追剧记录
// GET /api/watchlist?status=&page=&limit=
// status_counts 永远按未过滤的完整集合统计，切 Tab 时计数不跳动
func (h *Handler) ListWatchlist(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var status model.WatchStatus
	if v := c.Query("status"); v != "" {
		s, err := model.ParseWatchStatus(v)
		if err != nil {
			utils.BadRequest(c, "无效的追剧状态")
			return
		}
		status = s
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 1000 {
		limit = 20
	}
	offset := (page - 1) * limit

	items, err := h.Repos.Watchlist.ListByUser(userID, status, limit, offset)
	if err != nil {
		log.Printf("[ListWatchlist] 查询失败: %v", err)
		utils.InternalServerError(c, "获取追剧列表失败")
		return
	}

	total, err := h.Repos.Watchlist.CountByUser(userID, status)
	if err != nil {
		log.Printf("[ListWatchlist] 计数失败: %v", err)
		utils.InternalServerError(c, "获取追剧列表失败")
		return
	}

	counts, err := h.Repos.Watchlist.StatusCounts(userID)
	if err != nil {
		log.Printf("[ListWatchlist] 状态统计失败: %v", err)
		utils.InternalServerError(c, "获取追剧列表失败")
		return
	}

	if items == nil {
		items = []*model.WatchlistEntry{}
	}

	c.JSON(http.StatusOK, model.WatchlistPage{
		Items:        items,
		Total:        total,
		StatusCounts: counts,
	})
}

// CreateWatchlistEntryReq 新增追剧记录请求
type CreateWatchlistEntryReq struct {
	ContentID     int    `json:"content_id" binding:"required"`
	Status        string `json:"status" binding:"required,watchstatus"`
	TotalEpisodes *int   `json:"total_episodes" binding:"omitempty,gte=0"`
}

// CreateWatchlistEntry 新增追剧记录
// POST /api/watchlist；重复添加返回 400
func (h *Handler) CreateWatchlistEntry(c *gin.Context) {
	userID := middleware.GetUserID(c)

	// 400 留给重复添加这一种冲突，校验类失败一律 422，
	// 客户端才能放心把创建的 400 映射成重复错误
	var req CreateWatchlistEntryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.UnprocessableEntity(c, "无效的请求数据")
		return
	}

	content, err := h.Repos.Content.FindByID(req.ContentID)
	if err != nil {
		log.Printf("[CreateWatchlistEntry] 查询内容失败: %v", err)
		utils.InternalServerError(c, "添加失败")
		return
	}
	if content == nil {
		utils.UnprocessableEntity(c, "内容不存在")
		return
	}

	// 集数在创建时从内容元数据快照一份，之后不跟随内容变更
	totalEpisodes := req.TotalEpisodes
	if totalEpisodes == nil {
		totalEpisodes = content.Episodes
	}

	entry := &model.WatchlistEntry{
		UserID:        userID,
		ContentID:     req.ContentID,
		Status:        model.WatchStatus(req.Status),
		TotalEpisodes: totalEpisodes,
	}

	if err := h.Repos.Watchlist.Create(entry); err != nil {
		if repository.IsDuplicate(err) {
			utils.BadRequest(c, "该内容已在追剧列表中")
			return
		}
		log.Printf("[CreateWatchlistEntry] 创建失败: %v", err)
		utils.InternalServerError(c, "添加失败")
		return
	}

	created, err := h.Repos.Watchlist.GetByID(userID, entry.ID)
	if err != nil || created == nil {
		log.Printf("[CreateWatchlistEntry] 回读失败: %v", err)
		utils.InternalServerError(c, "添加失败")
		return
	}

	c.JSON(http.StatusOK, created)
}

// UpdateWatchlistEntryReq 部分更新请求，缺省字段保持原值
type UpdateWatchlistEntryReq struct {
	Status   *string `json:"status" binding:"omitempty,watchstatus"`
	Progress *int    `json:"progress" binding:"omitempty,gte=0"`
}

// UpdateWatchlistEntry 更新状态/进度
// PUT /api/watchlist/:id
func (h *Handler) UpdateWatchlistEntry(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的记录 ID")
		return
	}

	var req UpdateWatchlistEntryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.UnprocessableEntity(c, "无效的请求数据")
		return
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Progress != nil {
		// 进度超出集数只做提示不拦截，远端以记录为准
		updates["progress"] = *req.Progress
	}

	entry, err := h.Repos.Watchlist.UpdateFields(userID, id, updates)
	if err != nil {
		log.Printf("[UpdateWatchlistEntry] 更新失败: %v", err)
		utils.InternalServerError(c, "更新失败")
		return
	}
	if entry == nil {
		utils.NotFound(c, "追剧记录不存在")
		return
	}

	c.JSON(http.StatusOK, entry)
}

// DeleteWatchlistEntry 删除追剧记录
// DELETE /api/watchlist/:id；目标不存在返回 404，由客户端视作成功
func (h *Handler) DeleteWatchlistEntry(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的记录 ID")
		return
	}

	deleted, err := h.Repos.Watchlist.Delete(userID, id)
	if err != nil {
		log.Printf("[DeleteWatchlistEntry] 删除失败: %v", err)
		utils.InternalServerError(c, "删除失败")
		return
	}
	if !deleted {
		utils.NotFound(c, "追剧记录不存在")
		return
	}

	c.Status(http.StatusNoContent)
}

// WatchlistStats 追剧统计
// GET /api/watchlist/stats
func (h *Handler) WatchlistStats(c *gin.Context) {
	userID := middleware.GetUserID(c)

	counts, err := h.Repos.Watchlist.StatusCounts(userID)
	if err != nil {
		log.Printf("[WatchlistStats] 状态统计失败: %v", err)
		utils.InternalServerError(c, "获取统计失败")
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	recent, err := h.Repos.Watchlist.RecentActivity(userID, recentActivityLimit)
	if err != nil {
		log.Printf("[WatchlistStats] 最近动态查询失败: %v", err)
		utils.InternalServerError(c, "获取统计失败")
		return
	}
	if recent == nil {
		recent = []*model.WatchlistEntry{}
	}

	c.JSON(http.StatusOK, model.WatchlistStats{
		StatusCounts:   counts,
		TotalContent:   total,
		RecentActivity: recent,
	})
}
