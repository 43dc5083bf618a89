package model

import (
	"fmt"
	"time"
)

// WatchStatus 追剧状态（封闭枚举，客户端与服务端共用同一套值）
type WatchStatus string

const (
	StatusWantToWatch WatchStatus = "want_to_watch" // 想看
	StatusWatching    WatchStatus = "watching"      // 在看
	StatusCompleted   WatchStatus = "completed"     // 看完
	StatusDropped     WatchStatus = "dropped"       // 弃剧
)

// AllWatchStatuses 固定展示顺序的全部状态
var AllWatchStatuses = []WatchStatus{
	StatusWantToWatch,
	StatusWatching,
	StatusCompleted,
	StatusDropped,
}

var watchStatusLabels = map[WatchStatus]string{
	StatusWantToWatch: "想看",
	StatusWatching:    "在看",
	StatusCompleted:   "看完",
	StatusDropped:     "弃剧",
}

var watchStatusIcons = map[WatchStatus]string{
	StatusWantToWatch: "📌",
	StatusWatching:    "▶️",
	StatusCompleted:   "✅",
	StatusDropped:     "❌",
}

// Valid 判断是否为四个已知状态之一
func (s WatchStatus) Valid() bool {
	_, ok := watchStatusLabels[s]
	return ok
}

// Label 状态的中文展示名
func (s WatchStatus) Label() string {
	return watchStatusLabels[s]
}

// Icon 状态图标
func (s WatchStatus) Icon() string {
	return watchStatusIcons[s]
}

// ParseWatchStatus 解析状态字符串，未知值一律拒绝
func ParseWatchStatus(v string) (WatchStatus, error) {
	s := WatchStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("未知的追剧状态: %q", v)
	}
	return s, nil
}

// WatchlistEntry 单个用户对单部内容的追剧记录
// (user_id, content_id) 唯一，由数据库唯一索引保证
type WatchlistEntry struct {
	ID            int         `json:"id" db:"id"`
	UserID        int         `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_content"`
	ContentID     int         `json:"content_id" db:"content_id" gorm:"uniqueIndex:idx_user_content"`
	Status        WatchStatus `json:"status" db:"status" gorm:"type:varchar(20)"`
	Progress      *int        `json:"progress,omitempty" db:"progress"`
	TotalEpisodes *int        `json:"total_episodes,omitempty" db:"total_episodes"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at" gorm:"index"`
	Content       *Content    `json:"content,omitempty"` // 关联查询时填充
}

// ProgressText 进度展示文本，如 "5/12"；没有集数信息时返回空串
func (e *WatchlistEntry) ProgressText() string {
	if e.Progress == nil || e.TotalEpisodes == nil || *e.TotalEpisodes <= 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", *e.Progress, *e.TotalEpisodes)
}

// ProgressPercent 进度百分比（0-100），用于进度条
func (e *WatchlistEntry) ProgressPercent() int {
	if e.Progress == nil || e.TotalEpisodes == nil || *e.TotalEpisodes <= 0 {
		return 0
	}
	pct := *e.Progress * 100 / *e.TotalEpisodes
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// WatchlistPage 追剧列表的一页
// StatusCounts 始终统计未过滤的完整集合，切换筛选 Tab 时计数保持稳定
type WatchlistPage struct {
	Items        []*WatchlistEntry   `json:"items"`
	Total        int                 `json:"total"`
	StatusCounts map[WatchStatus]int `json:"status_counts"`
}

// AllCount 全部状态计数之和
func (p *WatchlistPage) AllCount() int {
	total := 0
	for _, n := range p.StatusCounts {
		total += n
	}
	return total
}

// WatchlistStats 追剧统计概览
type WatchlistStats struct {
	StatusCounts   map[WatchStatus]int `json:"status_counts"`
	TotalContent   int                 `json:"total_content"`
	RecentActivity []*WatchlistEntry   `json:"recent_activity"`
}

// CompletionRate 完成率（取整百分比），总数为 0 时返回 0
func (s *WatchlistStats) CompletionRate() int {
	if s.TotalContent <= 0 {
		return 0
	}
	completed := float64(s.StatusCounts[StatusCompleted])
	return int(completed/float64(s.TotalContent)*100 + 0.5)
}
