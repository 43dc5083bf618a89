package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/dramaverse/internal/model"
	"github.com/user/dramaverse/internal/utils"
)

// requestTimeout 单次请求的超时上限，远端无响应时尽快失败而不是挂死页面
const requestTimeout = 10 * time.Second

// Client 远端存储客户端
// 追剧数据永远不落本地缓存，每次都走网络；只有内容元数据走 TTL 缓存
type Client struct {
	baseURL      string
	httpClient   *http.Client
	contentCache *utils.TTLCache[*model.Content]
}

// NewClient 创建客户端，baseURL 形如 http://localhost:5008
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		contentCache: utils.NewTTLCache[*model.Content](1000, 10*time.Minute),
	}
}

// do 发送请求并解码 JSON 响应
// 401/404 映射为哨兵错误；其余非 2xx 带状态码原样抛出，由调用方继续分类
func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("编码请求体失败: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求远端接口失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 错误响应统一是 {code, message, ...} 信封，尽量带上 message
		var envelope struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, &envelope)
		return &apiError{Status: resp.StatusCode, Message: envelope.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解码响应失败: %w", err)
	}
	return nil
}
