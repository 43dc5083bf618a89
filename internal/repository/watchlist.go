package repository

import (
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/user/dramaverse/internal/model"
	"gorm.io/gorm"
)

type WatchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// IsDuplicate 判断错误是否由 (user_id, content_id) 唯一索引冲突引起
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	// 23505 = unique_violation
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Create 创建追剧记录，重复添加返回唯一索引冲突错误
func (r *WatchlistRepository) Create(e *model.WatchlistEntry) error {
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	return r.db.Create(e).Error
}

// GetByID 按记录 ID 查找（限定用户）
func (r *WatchlistRepository) GetByID(userID, id int) (*model.WatchlistEntry, error) {
	var e model.WatchlistEntry
	err := r.db.Preload("Content").
		Where("user_id = ? AND id = ?", userID, id).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByUserAndContent 按 (用户, 内容) 查找
func (r *WatchlistRepository) GetByUserAndContent(userID, contentID int) (*model.WatchlistEntry, error) {
	var e model.WatchlistEntry
	err := r.db.Preload("Content").
		Where("user_id = ? AND content_id = ?", userID, contentID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByUser 按用户分页列出追剧记录，status 为空表示不过滤
func (r *WatchlistRepository) ListByUser(userID int, status model.WatchStatus, limit, offset int) ([]*model.WatchlistEntry, error) {
	var entries []*model.WatchlistEntry
	q := r.db.Preload("Content").Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

// CountByUser 统计用户追剧记录数，status 为空表示全部
func (r *WatchlistRepository) CountByUser(userID int, status model.WatchStatus) (int, error) {
	var count int64
	q := r.db.Model(&model.WatchlistEntry{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&count).Error
	return int(count), err
}

// StatusCounts 各状态计数（完整集合，不受筛选影响）
// 四个状态全部出现在结果里，没有记录的补 0
func (r *WatchlistRepository) StatusCounts(userID int) (map[model.WatchStatus]int, error) {
	type row struct {
		Status model.WatchStatus
		Count  int
	}
	var rows []row
	err := r.db.Model(&model.WatchlistEntry{}).
		Select("status, count(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.WatchStatus]int, len(model.AllWatchStatuses))
	for _, s := range model.AllWatchStatuses {
		counts[s] = 0
	}
	for _, rw := range rows {
		if rw.Status.Valid() {
			counts[rw.Status] = rw.Count
		}
	}
	return counts, nil
}

// UpdateFields 部分更新，未提供的字段保持原值
// 返回更新后的完整记录；记录不存在时返回 (nil, nil)
func (r *WatchlistRepository) UpdateFields(userID, id int, updates map[string]interface{}) (*model.WatchlistEntry, error) {
	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		res := r.db.Model(&model.WatchlistEntry{}).
			Where("user_id = ? AND id = ?", userID, id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, nil
		}
	}
	return r.GetByID(userID, id)
}

// Delete 删除追剧记录，返回是否真的删掉了一行
func (r *WatchlistRepository) Delete(userID, id int) (bool, error) {
	res := r.db.Where("user_id = ? AND id = ?", userID, id).
		Delete(&model.WatchlistEntry{})
	return res.RowsAffected > 0, res.Error
}

// RecentActivity 最近更新的记录（带内容信息），按 updated_at 倒序
func (r *WatchlistRepository) RecentActivity(userID, limit int) ([]*model.WatchlistEntry, error) {
	var entries []*model.WatchlistEntry
	err := r.db.Preload("Content").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
