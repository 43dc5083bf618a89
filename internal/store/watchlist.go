package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/user/dramaverse/internal/model"
)

// findScanLimit FindEntryByContent 一次拉取的最大条数
// 远端没有按内容查单条的接口，只能整单拉回来线性扫，列表很大时会慢
const findScanLimit = 1000

// ListEntries 分页获取追剧列表
// status 为空表示不过滤；返回的 StatusCounts 始终是完整集合的统计
func (c *Client) ListEntries(ctx context.Context, token string, status model.WatchStatus, page, limit int) (*model.WatchlistPage, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("未知的追剧状态: %q", status)
	}

	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var res model.WatchlistPage
	if err := c.do(ctx, http.MethodGet, "/api/watchlist", token, query, nil, &res); err != nil {
		return nil, err
	}

	// 边界防御：状态值不在四个已知枚举里的记录直接丢弃，绝不进渲染层
	items := res.Items[:0]
	for _, e := range res.Items {
		if !e.Status.Valid() {
			log.Printf("[ListEntries] 丢弃未知状态的记录 id=%d status=%q", e.ID, e.Status)
			continue
		}
		items = append(items, e)
	}
	res.Items = items

	return &res, nil
}

// FindEntryByContent 查某部内容的追剧记录，没有则返回 nil
// 实现是对完整列表的线性扫描（O(n)），不要在大列表的循环里反复调用
func (c *Client) FindEntryByContent(ctx context.Context, token string, contentID int) (*model.WatchlistEntry, error) {
	page, err := c.ListEntries(ctx, token, "", 1, findScanLimit)
	if err != nil {
		return nil, err
	}
	for _, e := range page.Items {
		if e.ContentID == contentID {
			return e, nil
		}
	}
	return nil, nil
}

type createEntryReq struct {
	ContentID     int    `json:"content_id"`
	Status        string `json:"status"`
	TotalEpisodes *int   `json:"total_episodes,omitempty"`
}

// CreateEntry 新增追剧记录
// 远端对重复添加返回 400，映射为 ErrDuplicateEntry，调用方应重新拉取对账
func (c *Client) CreateEntry(ctx context.Context, token string, contentID int, status model.WatchStatus, totalEpisodes *int) (*model.WatchlistEntry, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	if !status.Valid() {
		return nil, fmt.Errorf("未知的追剧状态: %q", status)
	}

	var entry model.WatchlistEntry
	err := c.do(ctx, http.MethodPost, "/api/watchlist", token, nil, createEntryReq{
		ContentID:     contentID,
		Status:        string(status),
		TotalEpisodes: totalEpisodes,
	}, &entry)
	if err != nil {
		if statusOf(err) == http.StatusBadRequest {
			return nil, ErrDuplicateEntry
		}
		return nil, err
	}
	return &entry, nil
}

// EntryPatch 部分更新，nil 字段远端保持原值
type EntryPatch struct {
	Status   *model.WatchStatus `json:"status,omitempty"`
	Progress *int               `json:"progress,omitempty"`
}

// UpdateEntry 更新状态/进度，目标不存在返回 ErrNotFound
func (c *Client) UpdateEntry(ctx context.Context, token string, id int, patch EntryPatch) (*model.WatchlistEntry, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("未知的追剧状态: %q", *patch.Status)
	}

	var entry model.WatchlistEntry
	if err := c.do(ctx, http.MethodPut, "/api/watchlist/"+strconv.Itoa(id), token, nil, patch, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry 删除追剧记录
// 目标已经不存在时视作成功：用户想要的结果（不在列表里）已经达成
func (c *Client) DeleteEntry(ctx context.Context, token string, id int) error {
	if token == "" {
		return ErrUnauthenticated
	}

	err := c.do(ctx, http.MethodDelete, "/api/watchlist/"+strconv.Itoa(id), token, nil, nil, nil)
	if errors.Is(err, ErrNotFound) {
		log.Printf("[DeleteEntry] 记录 %d 已不存在，按成功处理", id)
		return nil
	}
	return err
}

// Stats 获取追剧统计
func (c *Client) Stats(ctx context.Context, token string) (*model.WatchlistStats, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	var stats model.WatchlistStats
	if err := c.do(ctx, http.MethodGet, "/api/watchlist/stats", token, nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
