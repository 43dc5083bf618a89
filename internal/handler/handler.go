package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/dramaverse/internal/config"
	"github.com/user/dramaverse/internal/model"
	"github.com/user/dramaverse/internal/service"
	"github.com/user/dramaverse/internal/store"
	"golang.org/x/sync/errgroup"
)

// browsePageSize 目录页每页条数
const browsePageSize = 24

// watchlistPageSize 追剧列表每页条数
const watchlistPageSize = 20

// Handler HTTP 处理器
// 页面本身不直接碰数据库，所有数据都通过远端存储客户端获取
type Handler struct {
	Store     *store.Client
	Watchlist *service.WatchlistService
	Config    *config.Config
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config) *Handler {
	client := store.NewClient(cfg.APIBaseURL)
	return &Handler{
		Store:     client,
		Watchlist: service.NewWatchlistService(client),
		Config:    cfg,
	}
}

// RenderData 统一封装公共渲染数据
func (h *Handler) RenderData(c *gin.Context, data gin.H) gin.H {
	// 基础数据
	res := gin.H{
		"SiteName": h.Config.SiteName,
		"SiteUrl":  h.Config.SiteUrl,
		"Path":     c.Request.URL.Path,
		"Referer":  c.Request.Referer(),
	}

	// 注入用户信息
	if su, ok := h.currentUser(c); ok {
		res["UserInfo"] = su
	}

	// 菜单高亮逻辑
	res["ActiveMenu"] = h.getActiveMenu(c.Request.URL.Path)

	// 合并传入的数据
	for k, v := range data {
		res[k] = v
	}

	return res
}

// getActiveMenu 根据路径判断当前高亮菜单
func (h *Handler) getActiveMenu(path string) string {
	switch {
	case path == "/":
		return "home"
	case strings.HasPrefix(path, "/browse"), strings.HasPrefix(path, "/content"):
		return "browse"
	case strings.HasPrefix(path, "/watchlist"):
		return "watchlist"
	case strings.HasPrefix(path, "/dashboard"):
		return "user"
	default:
		return ""
	}
}

// currentUser 从 Session 取当前用户
func (h *Handler) currentUser(c *gin.Context) (model.SessionUser, bool) {
	session := sessions.Default(c)
	if userinfo := session.Get("userinfo"); userinfo != nil {
		if su, ok := userinfo.(model.SessionUser); ok {
			return su, true
		}
	}
	return model.SessionUser{}, false
}

// token 当前用户访问远端接口的凭证，未登录返回空串
func (h *Handler) token(c *gin.Context) string {
	su, _ := h.currentUser(c)
	return su.Token
}

// ==================== 公开页面 ====================

// Home 首页
func (h *Handler) Home(c *gin.Context) {
	trending, err := h.Store.Trending(c.Request.Context(), 12)
	if err != nil {
		log.Printf("[Home] 获取热门内容失败: %v", err)
	}

	c.HTML(http.StatusOK, "home.html", h.RenderData(c, gin.H{
		"Title":    h.Config.SiteName + " - 追剧从这里开始",
		"Trending": trending,
	}))
}

// Browse 内容目录页
func (h *Handler) Browse(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	year, _ := strconv.Atoi(c.Query("year"))

	filter := store.CatalogFilter{
		Search:      strings.TrimSpace(c.Query("search")),
		Country:     c.Query("country"),
		ContentType: c.Query("content_type"),
		Genre:       c.Query("genre"),
		Year:        year,
	}

	var (
		result    *model.ContentPage
		countries []string
	)

	// 目录和筛选项互不依赖，并发取
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		result, err = h.Store.ListContent(ctx, filter, page, browsePageSize)
		return err
	})
	g.Go(func() error {
		var err error
		countries, err = h.Store.Countries(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("[Browse] 获取目录失败: %v", err)
		c.HTML(http.StatusOK, "browse.html", h.RenderData(c, gin.H{
			"Title": "浏览 - " + h.Config.SiteName,
			"Error": "目录加载失败，请稍后重试",
		}))
		return
	}

	totalPages := (result.Total + browsePageSize - 1) / browsePageSize

	c.HTML(http.StatusOK, "browse.html", h.RenderData(c, gin.H{
		"Title":        "浏览 - " + h.Config.SiteName,
		"Contents":     result.Contents,
		"Total":        result.Total,
		"Page":         page,
		"TotalPages":   totalPages,
		"PrevPage":     page - 1,
		"NextPage":     page + 1,
		"HasPrev":      page > 1,
		"HasNext":      page < totalPages,
		"Filter":       filter,
		"Countries":    countries,
		"ContentTypes": model.ContentTypes,
		"Genres":       model.Genres,
	}))
}

// ContentDetail 内容详情页
func (h *Handler) ContentDetail(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		h.NotFound(c)
		return
	}

	content, err := h.Store.GetContent(c.Request.Context(), id)
	if err != nil {
		log.Printf("[ContentDetail] 获取内容 %d 失败: %v", id, err)
		h.NotFound(c)
		return
	}
	if content == nil {
		h.NotFound(c)
		return
	}

	// 已登录用户查当前追剧状态，失败只记日志，按未追剧展示
	entry, err := h.Watchlist.StatusFor(c.Request.Context(), h.token(c), id)
	if err != nil {
		log.Printf("[ContentDetail] 查询追剧状态失败: %v", err)
	}

	title := content.Title
	if content.Year > 0 {
		title += " (" + strconv.Itoa(content.Year) + ")"
	}

	c.HTML(http.StatusOK, "content.html", h.RenderData(c, gin.H{
		"Title":    title + " - " + h.Config.SiteName,
		"Content":  content,
		"Entry":    entry,
		"Statuses": model.AllWatchStatuses,
	}))
}

// NotFound 404 页面
func (h *Handler) NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
		"Title": "页面未找到 - " + h.Config.SiteName,
	}))
}

// ==================== 认证页面 ====================

// LoginPage 登录页面
func (h *Handler) LoginPage(c *gin.Context) {
	if _, ok := h.currentUser(c); ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", h.RenderData(c, gin.H{
		"Title":    "登录 - " + h.Config.SiteName,
		"Redirect": c.Query("redirect"),
	}))
}

// Login 登录处理，凭证换取由远端接口签发的 Token
func (h *Handler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	redirect := c.PostForm("redirect")

	if redirect == "" || !strings.HasPrefix(redirect, "/") {
		redirect = "/"
	}

	res, err := h.Store.Login(c.Request.Context(), email, password)
	if err != nil {
		msg := "邮箱或密码错误"
		if !isAuthFailure(err) {
			log.Printf("[Login] 登录失败: %v", err)
			msg = "登录失败，请稍后重试"
		}
		c.HTML(http.StatusOK, "login.html", h.RenderData(c, gin.H{
			"Title": "登录 - " + h.Config.SiteName,
			"Error": msg,
		}))
		return
	}

	h.establishSession(c, res)
	c.Redirect(http.StatusFound, redirect)
}

// RegisterPage 注册页面
func (h *Handler) RegisterPage(c *gin.Context) {
	if _, ok := h.currentUser(c); ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "register.html", h.RenderData(c, gin.H{
		"Title": "注册 - " + h.Config.SiteName,
	}))
}

// Register 注册处理
func (h *Handler) Register(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirm_password")

	if password != confirmPassword {
		c.HTML(http.StatusOK, "register.html", h.RenderData(c, gin.H{
			"Title": "注册 - " + h.Config.SiteName,
			"Error": "两次输入的密码不一致",
		}))
		return
	}

	if len(password) < 6 {
		c.HTML(http.StatusOK, "register.html", h.RenderData(c, gin.H{
			"Title": "注册 - " + h.Config.SiteName,
			"Error": "密码至少需要 6 个字符",
		}))
		return
	}

	res, err := h.Store.Register(c.Request.Context(), email, username, password)
	if err != nil {
		log.Printf("[Register] 注册失败: %v", err)
		c.HTML(http.StatusOK, "register.html", h.RenderData(c, gin.H{
			"Title": "注册 - " + h.Config.SiteName,
			"Error": "注册失败，邮箱可能已被使用",
		}))
		return
	}

	h.establishSession(c, res)
	c.Redirect(http.StatusFound, "/")
}

// Logout 登出
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)

	// 清理 Session
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

// establishSession 登录成功后写 Session 和 Token Cookie
func (h *Handler) establishSession(c *gin.Context, res *store.LoginResp) {
	c.SetCookie("token", res.AccessToken, int(h.Config.JWTExpiry.Seconds()), "/", "", false, true)

	session := sessions.Default(c)
	session.Set("userinfo", model.SessionUser{
		ID:       res.User.ID,
		Email:    res.User.Email,
		Username: res.User.Username,
		Role:     res.User.Role,
		Token:    res.AccessToken,
	})
	session.Save()
}

// isAuthFailure 登录失败里区分凭证错误和远端故障
func isAuthFailure(err error) bool {
	return errors.Is(err, store.ErrUnauthenticated)
}

// ==================== 用户中心 ====================

// Dashboard 用户中心，展示追剧统计概览
func (h *Handler) Dashboard(c *gin.Context) {
	su, ok := h.currentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	stats, err := h.Watchlist.Stats(c.Request.Context(), su.Token)
	if err != nil {
		if errors.Is(err, store.ErrUnauthenticated) {
			h.Logout(c)
			return
		}
		log.Printf("[Dashboard] 获取统计失败: %v", err)
	}

	c.HTML(http.StatusOK, "dashboard.html", h.RenderData(c, gin.H{
		"Title":    "用户中心 - " + h.Config.SiteName,
		"User":     su,
		"Stats":    stats,
		"Statuses": model.AllWatchStatuses,
	}))
}

// WatchlistPage 追剧列表页
// 列表和统计互不依赖，并发拉取
func (h *Handler) WatchlistPage(c *gin.Context) {
	su, ok := h.currentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/auth/login?redirect=/watchlist")
		return
	}

	status, page := h.listParams(c)

	var (
		list  *model.WatchlistPage
		stats *model.WatchlistStats
	)

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		list, err = h.Watchlist.List(ctx, su.Token, status, page, watchlistPageSize)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = h.Watchlist.Stats(ctx, su.Token)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, store.ErrUnauthenticated) {
			h.Logout(c)
			return
		}
		log.Printf("[WatchlistPage] 加载追剧列表失败: %v", err)
		c.HTML(http.StatusOK, "watchlist.html", h.RenderData(c, gin.H{
			"Title": "我的追剧 - " + h.Config.SiteName,
			"Error": "追剧列表加载失败，请稍后重试",
		}))
		return
	}

	data := h.listRenderData(list, status, page)
	data["Title"] = "我的追剧 - " + h.Config.SiteName
	data["Stats"] = stats

	c.HTML(http.StatusOK, "watchlist.html", h.RenderData(c, data))
}
