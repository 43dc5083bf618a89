package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/user/dramaverse/internal/model"
	"github.com/user/dramaverse/internal/store"
)

// WatchlistService 状态流转控制器
// 负责把用户动作翻译成远端存储调用，并守住合法的状态转换：
//
//	未追剧 --(选状态添加)--> 四个状态任意一个
//	任意已追剧状态 --(菜单直选)--> 任意其他状态
//	想看 --(开始观看)--> 在看        （快捷入口，等价于直选）
//	在看 --(标记看完)--> 看完        （快捷入口，等价于直选）
//	在看 --(改进度)--> 在看          （自转换，与状态无关）
//	任意已追剧状态 --(移除)--> 未追剧
//
// 看完/弃剧都不是终态，随时可以改回来
type WatchlistService struct {
	store *store.Client
}

// NewWatchlistService 创建控制器
func NewWatchlistService(client *store.Client) *WatchlistService {
	return &WatchlistService{store: client}
}

// StatusFor 查某部内容当前的追剧记录，未追剧返回 (nil, nil)
// 匿名用户直接按未追剧处理，不发网络请求
func (s *WatchlistService) StatusFor(ctx context.Context, token string, contentID int) (*model.WatchlistEntry, error) {
	if token == "" {
		return nil, nil
	}
	return s.store.FindEntryByContent(ctx, token, contentID)
}

// Add 添加追剧记录（未追剧 -> 所选状态）
// 和已有记录撞车时（重复添加），以远端为准重新拉取对账，
// 返回已有记录和 ErrDuplicateEntry，让界面展示现状并给个温和提示
func (s *WatchlistService) Add(ctx context.Context, token string, contentID int, status model.WatchStatus, totalEpisodes *int) (*model.WatchlistEntry, error) {
	if token == "" {
		// 没凭证不发请求，直接引导登录
		return nil, store.ErrUnauthenticated
	}

	entry, err := s.store.CreateEntry(ctx, token, contentID, status, totalEpisodes)
	if errors.Is(err, store.ErrDuplicateEntry) {
		existing, findErr := s.store.FindEntryByContent(ctx, token, contentID)
		if findErr != nil {
			log.Printf("[WatchlistService.Add] 冲突后对账失败: %v", findErr)
			return nil, findErr
		}
		return existing, store.ErrDuplicateEntry
	}
	return entry, err
}

// SetStatus 把记录改到任意状态（菜单直选）
// 目标不存在时透传 ErrNotFound，调用方应刷新视图
func (s *WatchlistService) SetStatus(ctx context.Context, token string, entryID int, status model.WatchStatus) (*model.WatchlistEntry, error) {
	if token == "" {
		return nil, store.ErrUnauthenticated
	}
	if !status.Valid() {
		return nil, fmt.Errorf("未知的追剧状态: %q", status)
	}
	return s.store.UpdateEntry(ctx, token, entryID, store.EntryPatch{Status: &status})
}

// StartWatching 快捷入口：想看 -> 在看
func (s *WatchlistService) StartWatching(ctx context.Context, token string, entryID int) (*model.WatchlistEntry, error) {
	return s.SetStatus(ctx, token, entryID, model.StatusWatching)
}

// MarkCompleted 快捷入口：在看 -> 看完
func (s *WatchlistService) MarkCompleted(ctx context.Context, token string, entryID int) (*model.WatchlistEntry, error) {
	return s.SetStatus(ctx, token, entryID, model.StatusCompleted)
}

// SetProgress 更新观看进度（自转换，不碰状态）
// 进度只做非负校验；超出集数不拦截，远端以记录为准
func (s *WatchlistService) SetProgress(ctx context.Context, token string, entryID, progress int) (*model.WatchlistEntry, error) {
	if token == "" {
		return nil, store.ErrUnauthenticated
	}
	if progress < 0 {
		return nil, fmt.Errorf("进度不能为负数: %d", progress)
	}
	return s.store.UpdateEntry(ctx, token, entryID, store.EntryPatch{Progress: &progress})
}

// Remove 移除追剧记录（任意状态 -> 未追剧）
// 幂等：远端已不存在时也算成功
func (s *WatchlistService) Remove(ctx context.Context, token string, entryID int) error {
	if token == "" {
		return store.ErrUnauthenticated
	}
	return s.store.DeleteEntry(ctx, token, entryID)
}

// Stats 追剧统计
func (s *WatchlistService) Stats(ctx context.Context, token string) (*model.WatchlistStats, error) {
	if token == "" {
		return nil, store.ErrUnauthenticated
	}
	return s.store.Stats(ctx, token)
}

// List 分页拉取追剧列表
func (s *WatchlistService) List(ctx context.Context, token string, status model.WatchStatus, page, limit int) (*model.WatchlistPage, error) {
	if token == "" {
		return nil, store.ErrUnauthenticated
	}
	return s.store.ListEntries(ctx, token, status, page, limit)
}

// QuickAction 列表卡片上提供的快捷操作
type QuickAction struct {
	Key   string // start_watching / mark_completed
	Label string
}

// QuickActions 根据当前状态决定卡片上亮哪些快捷按钮
// 「移除」永远可用，不在这里返回；进度输入框见 CanEditProgress
func (s *WatchlistService) QuickActions(e *model.WatchlistEntry) []QuickAction {
	switch e.Status {
	case model.StatusWantToWatch:
		return []QuickAction{{Key: "start_watching", Label: "开始观看"}}
	case model.StatusWatching:
		return []QuickAction{{Key: "mark_completed", Label: "标记看完"}}
	default:
		return nil
	}
}

// CanEditProgress 只有「在看」且集数已知时才提供进度输入
func (s *WatchlistService) CanEditProgress(e *model.WatchlistEntry) bool {
	return e.Status == model.StatusWatching && e.TotalEpisodes != nil && *e.TotalEpisodes > 0
}
