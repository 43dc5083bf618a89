package router

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
	"github.com/user/dramaverse/internal/handler"
	"github.com/user/dramaverse/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== 公开页面 ====================
	r.GET("/", h.Home)
	r.GET("/browse", h.Browse)
	r.GET("/content/:id", h.ContentDetail)

	// ==================== 认证页面 ====================
	auth := r.Group("/auth")
	{
		auth.GET("/login", h.LoginPage)
		auth.POST("/login", h.Login)
		auth.GET("/register", h.RegisterPage)
		auth.POST("/register", h.Register)
		auth.POST("/logout", h.Logout)
	}

	// ==================== 用户页面（需要登录）====================
	user := r.Group("")
	user.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		user.GET("/watchlist", h.WatchlistPage)
		user.GET("/dashboard", h.Dashboard)
	}

	// ==================== htmx 片段 ====================
	// 变更接口不挂强制鉴权：未登录的动作要在这里被温和地拦下来，
	// 渲染登录引导而不是裸 401
	htmx := r.Group("/htmx")
	htmx.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		htmx.GET("/watchlist/button", h.WatchlistButtonHTMX)
		htmx.GET("/watchlist/list", h.WatchlistListHTMX)
		htmx.GET("/watchlist/stats", h.WatchlistStatsHTMX)
		htmx.POST("/watchlist", h.AddEntryHTMX)
		htmx.POST("/watchlist/:id/status", h.SetStatusHTMX)
		htmx.POST("/watchlist/:id/progress", h.SetProgressHTMX)
		htmx.DELETE("/watchlist/:id", h.RemoveEntryHTMX)
	}

	// 404 页面
	r.NoRoute(h.NotFound)
}

// LoadTemplates 使用 multitemplate 加载模板，解决模板继承问题
func LoadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	// 获取布局和局部模板
	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	partials, err := filepath.Glob(templatesDir + "/partials/*.html")
	if err != nil {
		panic(err)
	}

	// 组装模板文件列表
	assemble := func(view string) []string {
		files := make([]string, 0)
		files = append(files, layouts...)
		files = append(files, partials...)
		files = append(files, view)
		return files
	}

	// 模板函数
	funcMap := template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"default": func(defaultValue, value interface{}) interface{} {
			switch v := value.(type) {
			case string:
				if v == "" {
					return defaultValue
				}
			case int:
				if v == 0 {
					return defaultValue
				}
			case nil:
				return defaultValue
			}
			return value
		},
		"js": func(s string) template.JS {
			return template.JS(s)
		},
	}

	// 注册所有页面模板
	pages := []string{
		"home", "browse", "content",
		"watchlist", "dashboard",
		"login", "register", "404",
	}

	for _, page := range pages {
		viewPath := templatesDir + "/pages/" + page + ".html"
		r.AddFromFilesFuncs(page+".html", funcMap, assemble(viewPath)...)
	}

	// htmx 片段需要单独渲染，局部模板也注册为独立模板
	fragments := []string{
		"watchlist_button", "watchlist_list", "watchlist_stats",
	}
	for _, name := range fragments {
		// 片段文件放在首位，渲染时执行的就是它
		files := []string{templatesDir + "/partials/" + name + ".html"}
		for _, p := range partials {
			if p != files[0] {
				files = append(files, p)
			}
		}
		r.AddFromFilesFuncs("partials/"+name+".html", funcMap, files...)
	}

	return r
}
