package repository

import "github.com/ShimJerry/shop-contents-manage/domain/entity"

// UserRepository 用户数据仓库接口
type UserRepository interface {
	// Upsert 存在则更新，不存在则创建
	Upsert(user *entity.User) error

	// GetByID 根据 Clerk user_id 获取用户，不存在返回 (nil, nil)
	GetByID(userID string) (*entity.User, error)

	// Delete 删除用户（user.deleted 事件）
	Delete(userID string) error
}
