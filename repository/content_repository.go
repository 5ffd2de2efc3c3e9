package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"
	domainErrors "github.com/ShimJerry/shop-contents-manage/domain/errors"
	domainRepo "github.com/ShimJerry/shop-contents-manage/domain/repository"

	"gorm.io/gorm"
)

// contentRepository GORM 实现 ContentRepository 接口
// 同时实现 ws.ContentStore 接口供 Hub 使用
type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository 构造函数
func NewContentRepository(db *gorm.DB) domainRepo.ContentRepository {
	return &contentRepository{db: db}
}

// ================= domain.ContentRepository 接口实现 =================

// GetByContentID 根据业务 ID 查询内容
func (r *contentRepository) GetByContentID(contentID string) (*entity.ContentRecord, error) {
	var record entity.ContentRecord
	err := r.db.Where("content_id = ?", contentID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // 返回 nil 表示不存在，调用方需处理
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByCreator 列表查询不读取 document 列
func (r *contentRepository) ListByCreator(creatorID string) ([]entity.ContentRecord, error) {
	var records []entity.ContentRecord
	err := r.db.
		Select("id", "content_id", "title", "version", "creator_id", "created_at", "updated_at").
		Where("creator_id = ?", creatorID).
		Order("updated_at DESC").
		Find(&records).Error
	return records, err
}

// Create 创建新内容（仅用于首次创建）
// ⚠️ 禁止使用 GORM Save，它会覆盖 document 和 version
func (r *contentRepository) Create(record *entity.ContentRecord) error {
	err := r.db.Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainErrors.ErrContentAlreadyExists
	}
	return err
}

// UpdateDocument 只更新文档字段（协同编辑热路径）
// ✅ 支持版本跳跃：内存中可能积累了多个版本，一次性刷盘
func (r *contentRepository) UpdateDocument(contentID string, document []byte, title string, oldVersion, newVersion int64) error {
	result := r.db.Model(&entity.ContentRecord{}).
		// ⚠️ 关键：WHERE 使用 oldVersion（上次持久化的版本）
		Where("content_id = ? AND version = ?", contentID, oldVersion).
		Updates(map[string]interface{}{
			"document": string(document),
			"title":    title,
			"version":  newVersion,
		})

	if result.Error != nil {
		return result.Error
	}

	// RowsAffected == 0：版本冲突或内容不存在
	if result.RowsAffected == 0 {
		return domainErrors.ErrOptimisticLock
	}

	return nil
}

// Delete 删除内容
func (r *contentRepository) Delete(contentID string) error {
	result := r.db.Where("content_id = ?", contentID).Delete(&entity.ContentRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrContentNotFound
	}
	return nil
}

// ================= ws.ContentStore 接口实现 =================
// 这些方法供 Hub 直接调用，无需额外适配器

// GetContentState 获取文档状态
// 内容不存在时返回明确错误，阻止幽灵房间的创建
func (r *contentRepository) GetContentState(contentID string) (entity.Content, int64, error) {
	record, err := r.GetByContentID(contentID)
	if err != nil {
		return entity.Content{}, 0, err
	}
	if record == nil {
		return entity.Content{}, 0, domainErrors.ErrContentNotFound
	}

	doc, err := record.Decode()
	if err != nil {
		return entity.Content{}, 0, err
	}
	return doc, record.Version, nil
}

// SaveContentState 保存房间内的文档（支持版本跳跃）
func (r *contentRepository) SaveContentState(contentID string, state []byte, oldVersion, newVersion int64) error {
	var meta struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(state, &meta); err != nil {
		return fmt.Errorf("decode document title: %w", err)
	}
	return r.UpdateDocument(contentID, state, meta.Title, oldVersion, newVersion)
}
