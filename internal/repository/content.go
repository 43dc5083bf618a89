package repository

import (
	"errors"
	"time"

	"github.com/user/dramaverse/internal/model"
	"gorm.io/gorm"
)

type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// ContentFilter 内容列表筛选条件
type ContentFilter struct {
	Search      string
	Country     string
	ContentType string
	Genre       string
	Year        int
}

func (r *ContentRepository) applyFilter(f ContentFilter) *gorm.DB {
	q := r.db.Model(&model.Content{})
	if f.Search != "" {
		kw := "%" + f.Search + "%"
		q = q.Where("title LIKE ? OR original_title LIKE ? OR synopsis LIKE ?", kw, kw, kw)
	}
	if f.Country != "" {
		q = q.Where("country = ?", f.Country)
	}
	if f.ContentType != "" {
		q = q.Where("content_type = ?", f.ContentType)
	}
	if f.Genre != "" {
		// genres 以 JSON 数组存储，按带引号的值匹配
		q = q.Where("genres LIKE ?", "%\""+f.Genre+"\"%")
	}
	if f.Year > 0 {
		q = q.Where("year = ?", f.Year)
	}
	return q
}

// List 按条件分页列出内容
func (r *ContentRepository) List(f ContentFilter, limit, offset int) ([]*model.Content, int, error) {
	var total int64
	if err := r.applyFilter(f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contents []*model.Content
	err := r.applyFilter(f).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&contents).Error
	return contents, int(total), err
}

// FindByID 按 ID 查找内容
func (r *ContentRepository) FindByID(id int) (*model.Content, error) {
	var c model.Content
	err := r.db.First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Trending 热门内容（高分优先，新入库优先）
func (r *ContentRepository) Trending(limit int) ([]*model.Content, error) {
	var contents []*model.Content
	err := r.db.Order("rating DESC, created_at DESC").
		Limit(limit).
		Find(&contents).Error
	return contents, err
}

// Countries 已收录内容覆盖的国家/地区列表
func (r *ContentRepository) Countries() ([]string, error) {
	var countries []string
	err := r.db.Model(&model.Content{}).
		Distinct("country").
		Order("country ASC").
		Pluck("country", &countries).Error
	return countries, err
}

// Create 新增内容
func (r *ContentRepository) Create(c *model.Content) error {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return r.db.Create(c).Error
}

// UpdateFields 部分更新内容，返回是否命中记录
func (r *ContentRepository) UpdateFields(id int, updates map[string]interface{}) (bool, error) {
	updates["updated_at"] = time.Now()
	res := r.db.Model(&model.Content{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// Delete 删除内容
func (r *ContentRepository) Delete(id int) (bool, error) {
	res := r.db.Delete(&model.Content{}, id)
	return res.RowsAffected > 0, res.Error
}

// Count 内容总数
func (r *ContentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Content{}).Count(&count).Error
	return count, err
}
