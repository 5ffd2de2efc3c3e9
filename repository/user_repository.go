package repository

import (
	"errors"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"
	domainRepo "github.com/ShimJerry/shop-contents-manage/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository GORM 实现 UserRepository 接口
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 构造函数
func NewUserRepository(db *gorm.DB) domainRepo.UserRepository {
	return &userRepository{db: db}
}

// Upsert 创建或更新用户（Clerk Webhook 同步使用）
// clause.OnConflict 在 PostgreSQL 下生成 ON CONFLICT，在 MySQL 下生成 ON DUPLICATE KEY UPDATE
func (r *userRepository) Upsert(user *entity.User) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}}, // 冲突字段
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "avatar_url", "updated_at"}),
	}).Create(user).Error
}

// GetByID 根据 Clerk user_id 查询用户
func (r *userRepository) GetByID(userID string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

// Delete 删除用户，用户不存在时不报错（webhook 可能重复投递）
func (r *userRepository) Delete(userID string) error {
	return r.db.Where("id = ?", userID).Delete(&entity.User{}).Error
}
