package store

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/user/dramaverse/internal/model"
)

// CatalogFilter 内容目录筛选条件
type CatalogFilter struct {
	Search      string
	Country     string
	ContentType string
	Genre       string
	Year        int
}

// ListContent 分页浏览内容目录（匿名可读，不带 Token）
func (c *Client) ListContent(ctx context.Context, f CatalogFilter, page, limit int) (*model.ContentPage, error) {
	query := url.Values{}
	if f.Search != "" {
		query.Set("search", f.Search)
	}
	if f.Country != "" {
		query.Set("country", f.Country)
	}
	if f.ContentType != "" {
		query.Set("content_type", f.ContentType)
	}
	if f.Genre != "" {
		query.Set("genre", f.Genre)
	}
	if f.Year > 0 {
		query.Set("year", strconv.Itoa(f.Year))
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var res model.ContentPage
	if err := c.do(ctx, http.MethodGet, "/api/content", "", query, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetContent 内容详情，缓存优先（内容元数据基本不变，短 TTL 足够）
// 内容不存在返回 (nil, nil)
func (c *Client) GetContent(ctx context.Context, id int) (*model.Content, error) {
	cacheKey := "content:" + strconv.Itoa(id)
	if cached, found := c.contentCache.Get(cacheKey); found {
		return cached, nil
	}

	var content model.Content
	err := c.do(ctx, http.MethodGet, "/api/content/"+strconv.Itoa(id), "", nil, nil, &content)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.contentCache.Set(cacheKey, &content)
	return &content, nil
}

// Trending 热门内容
func (c *Client) Trending(ctx context.Context, limit int) ([]*model.Content, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var contents []*model.Content
	if err := c.do(ctx, http.MethodGet, "/api/trending", "", query, nil, &contents); err != nil {
		return nil, err
	}
	return contents, nil
}

// Countries 国家/地区列表
func (c *Client) Countries(ctx context.Context) ([]string, error) {
	var res struct {
		Countries []string `json:"countries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/countries", "", nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Countries, nil
}

// LoginResp 登录/注册响应
type LoginResp struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

// Login 登录换取 Bearer Token
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResp, error) {
	var res LoginResp
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", nil, credentialsReq{
		Email:    email,
		Password: password,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Register 注册并换取 Bearer Token
func (c *Client) Register(ctx context.Context, email, username, password string) (*LoginResp, error) {
	var res LoginResp
	err := c.do(ctx, http.MethodPost, "/api/auth/register", "", nil, credentialsReq{
		Email:    email,
		Password: password,
		Username: username,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
