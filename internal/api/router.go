package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/dramaverse/internal/middleware"
)

// RegisterRoutes 注册远端存储接口的全部路由
func RegisterRoutes(r *gin.Engine, h *Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// ==================== 认证 ====================
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	// ==================== 内容目录（匿名可读）====================
	api.GET("/content", h.ListContent)
	api.GET("/content/:id", h.GetContent)
	api.GET("/trending", h.Trending)
	api.GET("/countries", h.Countries)
	api.GET("/genres", h.GenreList)
	api.GET("/content-types", h.ContentTypeList)

	// ==================== 追剧列表（必须带 Bearer Token）====================
	watchlist := api.Group("/watchlist")
	watchlist.Use(middleware.BearerAuth(h.Config.AppSecret))
	{
		watchlist.GET("", h.ListWatchlist)
		watchlist.POST("", h.CreateWatchlistEntry)
		watchlist.GET("/stats", h.WatchlistStats)
		watchlist.PUT("/:id", h.UpdateWatchlistEntry)
		watchlist.DELETE("/:id", h.DeleteWatchlistEntry)
	}

	// ==================== 管理后台 ====================
	admin := api.Group("/admin")
	admin.Use(middleware.BearerAuth(h.Config.AppSecret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/content", h.AdminCreateContent)
		admin.PUT("/content/:id", h.AdminUpdateContent)
		admin.DELETE("/content/:id", h.AdminDeleteContent)
	}
}
