package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/user/dramaverse/internal/config"
	"github.com/user/dramaverse/internal/middleware"
	"github.com/user/dramaverse/internal/model"
	"github.com/user/dramaverse/internal/repository"
	"github.com/user/dramaverse/internal/utils"
)

// Handler 远端存储接口的 HTTP 处理器
type Handler struct {
	Repos  *repository.Repositories
	Config *config.Config
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config) *Handler {
	return &Handler{
		Repos:  repos,
		Config: cfg,
	}
}

// RegisterValidations 注册自定义校验规则
// watchstatus：只接受四个已知追剧状态，未知值在绑定阶段就拒绝
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("watchstatus", func(fl validator.FieldLevel) bool {
			return model.WatchStatus(fl.Field().String()).Valid()
		})
	}
}

// ==================== 认证 ====================

// RegisterReq 注册请求
type RegisterReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Username string `json:"username"`
}

// LoginReq 登录请求
type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResp 令牌响应
type TokenResp struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

// Register 注册并签发 Token
func (h *Handler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "无效的请求数据")
		return
	}

	existing, _ := h.Repos.User.FindByEmail(req.Email)
	if existing != nil {
		utils.BadRequest(c, "该邮箱已被注册")
		return
	}

	// 默认截取邮箱 @ 符号前的内容作为用户名
	username := req.Username
	if username == "" {
		username = req.Email
		if parts := strings.Split(req.Email, "@"); len(parts) > 0 {
			username = parts[0]
		}
	}

	user, err := h.Repos.User.Create(req.Email, username, req.Password)
	if err != nil {
		utils.InternalServerError(c, "注册失败")
		return
	}

	h.respondToken(c, user)
}

// Login 登录并签发 Token
func (h *Handler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "无效的请求数据")
		return
	}

	user, err := h.Repos.User.FindByEmail(req.Email)
	if err != nil || user == nil || !h.Repos.User.CheckPassword(user, req.Password) {
		utils.Unauthorized(c, "邮箱或密码错误")
		return
	}

	h.respondToken(c, user)
}

func (h *Handler) respondToken(c *gin.Context, user *model.User) {
	token, err := middleware.GenerateToken(user.ID, user.Email, user.Role, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		utils.InternalServerError(c, "签发 Token 失败")
		return
	}

	c.JSON(http.StatusOK, TokenResp{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}
