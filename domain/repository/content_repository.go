package repository

import "github.com/ShimJerry/shop-contents-manage/domain/entity"

// ContentRepository 内容数据仓库接口
type ContentRepository interface {
	// GetByContentID 根据业务 ID 获取内容，不存在返回 (nil, nil)
	GetByContentID(contentID string) (*entity.ContentRecord, error)

	// ListByCreator 列出某个用户创建的内容（不含 Document）
	ListByCreator(creatorID string) ([]entity.ContentRecord, error)

	// Create 创建新内容
	// 注意：禁止使用 GORM Save，它会覆盖 document 和 version
	Create(record *entity.ContentRecord) error

	// UpdateDocument 更新文档（协同编辑的热路径）
	// oldVersion: 上次持久化的版本号，用于乐观锁检查
	// newVersion: 要写入的新版本号（允许跳跃）
	// 版本不匹配返回 ErrOptimisticLock
	UpdateDocument(contentID string, document []byte, title string, oldVersion, newVersion int64) error

	// Delete 删除内容
	// 注意：删除前必须先通过 Hub.CloseRoom 关闭内存中的协同房间
	Delete(contentID string) error
}
