package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/dramaverse/internal/model"
	"github.com/user/dramaverse/internal/repository"
	"github.com/user/dramaverse/internal/utils"
)

// ListContent 分页列出内容
// GET /api/content?page=&limit=&search=&country=&content_type=&genre=&year=
func (h *Handler) ListContent(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	year, _ := strconv.Atoi(c.Query("year"))

	filter := repository.ContentFilter{
		Search:      c.Query("search"),
		Country:     c.Query("country"),
		ContentType: c.Query("content_type"),
		Genre:       c.Query("genre"),
		Year:        year,
	}

	contents, total, err := h.Repos.Content.List(filter, limit, (page-1)*limit)
	if err != nil {
		log.Printf("[ListContent] 查询失败: %v", err)
		utils.InternalServerError(c, "获取内容列表失败")
		return
	}
	if contents == nil {
		contents = []*model.Content{}
	}

	c.JSON(http.StatusOK, model.ContentPage{
		Contents: contents,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

// GetContent 内容详情
// GET /api/content/:id
func (h *Handler) GetContent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的内容 ID")
		return
	}

	content, err := h.Repos.Content.FindByID(id)
	if err != nil {
		log.Printf("[GetContent] 查询失败: %v", err)
		utils.InternalServerError(c, "获取内容失败")
		return
	}
	if content == nil {
		utils.NotFound(c, "内容不存在")
		return
	}

	c.JSON(http.StatusOK, content)
}

// Trending 热门内容（带缓存，评分与入库时间排序由仓库决定）
// GET /api/trending?limit=
func (h *Handler) Trending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	cacheKey := "trending:" + strconv.Itoa(limit)
	if cached, found := utils.CacheGet(cacheKey); found {
		if contents, ok := cached.([]*model.Content); ok {
			c.JSON(http.StatusOK, contents)
			return
		}
	}

	contents, err := h.Repos.Content.Trending(limit)
	if err != nil {
		log.Printf("[Trending] 查询失败: %v", err)
		utils.InternalServerError(c, "获取热门内容失败")
		return
	}
	if contents == nil {
		contents = []*model.Content{}
	}

	utils.CacheSet(cacheKey, contents, 5*time.Minute)
	c.JSON(http.StatusOK, contents)
}

// Countries 国家/地区列表
// GET /api/countries
func (h *Handler) Countries(c *gin.Context) {
	countries, err := h.Repos.Content.Countries()
	if err != nil {
		log.Printf("[Countries] 查询失败: %v", err)
		utils.InternalServerError(c, "获取国家列表失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": countries})
}

// GenreList 题材列表
// GET /api/genres
func (h *Handler) GenreList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"genres": model.Genres})
}

// ContentTypeList 内容类型列表
// GET /api/content-types
func (h *Handler) ContentTypeList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"content_types": model.ContentTypes})
}

// ==================== 管理后台 ====================

// ContentCreateReq 新增内容请求
type ContentCreateReq struct {
	Title         string   `json:"title" binding:"required"`
	OriginalTitle string   `json:"original_title"`
	PosterURL     string   `json:"poster_url" binding:"required"`
	BannerURL     string   `json:"banner_url"`
	Synopsis      string   `json:"synopsis" binding:"required"`
	Year          int      `json:"year" binding:"required,gte=1888"`
	Country       string   `json:"country" binding:"required"`
	ContentType   string   `json:"content_type" binding:"required,oneof=drama movie series anime"`
	Genres        []string `json:"genres" binding:"required,min=1"`
	Rating        float64  `json:"rating" binding:"gte=0,lte=10"`
	Episodes      *int     `json:"episodes" binding:"omitempty,gte=0"`
	Duration      *int     `json:"duration" binding:"omitempty,gte=0"`
}

// AdminCreateContent 管理员新增内容
// POST /api/admin/content
func (h *Handler) AdminCreateContent(c *gin.Context) {
	var req ContentCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "无效的请求数据")
		return
	}

	content := &model.Content{
		Title:         req.Title,
		OriginalTitle: req.OriginalTitle,
		PosterURL:     req.PosterURL,
		BannerURL:     req.BannerURL,
		Synopsis:      req.Synopsis,
		Year:          req.Year,
		Country:       req.Country,
		ContentType:   req.ContentType,
		Genres:        req.Genres,
		Rating:        req.Rating,
		Episodes:      req.Episodes,
		Duration:      req.Duration,
	}

	if err := h.Repos.Content.Create(content); err != nil {
		log.Printf("[AdminCreateContent] 创建失败: %v", err)
		utils.InternalServerError(c, "创建内容失败")
		return
	}

	utils.CacheDelete("trending:10")
	c.JSON(http.StatusOK, content)
}

// ContentUpdateReq 更新内容请求，缺省字段保持原值
type ContentUpdateReq struct {
	Title         *string   `json:"title"`
	OriginalTitle *string   `json:"original_title"`
	PosterURL     *string   `json:"poster_url"`
	BannerURL     *string   `json:"banner_url"`
	Synopsis      *string   `json:"synopsis"`
	Year          *int      `json:"year" binding:"omitempty,gte=1888"`
	Country       *string   `json:"country"`
	ContentType   *string   `json:"content_type" binding:"omitempty,oneof=drama movie series anime"`
	Genres        *[]string `json:"genres"`
	Rating        *float64  `json:"rating" binding:"omitempty,gte=0,lte=10"`
	Episodes      *int      `json:"episodes" binding:"omitempty,gte=0"`
	Duration      *int      `json:"duration" binding:"omitempty,gte=0"`
}

// AdminUpdateContent 管理员更新内容
// PUT /api/admin/content/:id
func (h *Handler) AdminUpdateContent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的内容 ID")
		return
	}

	var req ContentUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "无效的请求数据")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.OriginalTitle != nil {
		updates["original_title"] = *req.OriginalTitle
	}
	if req.PosterURL != nil {
		updates["poster_url"] = *req.PosterURL
	}
	if req.BannerURL != nil {
		updates["banner_url"] = *req.BannerURL
	}
	if req.Synopsis != nil {
		updates["synopsis"] = *req.Synopsis
	}
	if req.Year != nil {
		updates["year"] = *req.Year
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.ContentType != nil {
		updates["content_type"] = *req.ContentType
	}
	if req.Genres != nil {
		updates["genres"] = *req.Genres
	}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Episodes != nil {
		updates["episodes"] = *req.Episodes
	}
	if req.Duration != nil {
		updates["duration"] = *req.Duration
	}

	found, err := h.Repos.Content.UpdateFields(id, updates)
	if err != nil {
		log.Printf("[AdminUpdateContent] 更新失败: %v", err)
		utils.InternalServerError(c, "更新内容失败")
		return
	}
	if !found {
		utils.NotFound(c, "内容不存在")
		return
	}

	content, err := h.Repos.Content.FindByID(id)
	if err != nil || content == nil {
		utils.InternalServerError(c, "更新内容失败")
		return
	}

	c.JSON(http.StatusOK, content)
}

// AdminDeleteContent 管理员删除内容
// DELETE /api/admin/content/:id
func (h *Handler) AdminDeleteContent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的内容 ID")
		return
	}

	deleted, err := h.Repos.Content.Delete(id)
	if err != nil {
		log.Printf("[AdminDeleteContent] 删除失败: %v", err)
		utils.InternalServerError(c, "删除内容失败")
		return
	}
	if !deleted {
		utils.NotFound(c, "内容不存在")
		return
	}

	utils.Success(c, nil)
}
