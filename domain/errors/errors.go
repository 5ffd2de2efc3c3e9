package errors

import (
	"errors"
	"fmt"
)

// ================= 业务领域错误定义 =================
// 所有业务逻辑相关的错误统一在此定义，避免跨包重复定义

// ErrContentNotFound 内容不存在
var ErrContentNotFound = errors.New("content not found in database")

// ErrContentAlreadyExists 内容 ID 已被占用
var ErrContentAlreadyExists = errors.New("content already exists")

// ErrOptimisticLock 乐观锁冲突错误
// 当数据库中的版本与期望版本不匹配时返回此错误
var ErrOptimisticLock = errors.New("optimistic lock error: version mismatch, please refresh and retry")

// ErrUnauthorized 当前用户无权操作此内容
var ErrUnauthorized = errors.New("unauthorized")

// ErrRoomClosing 房间正在关闭，客户端应稍后重试
var ErrRoomClosing = errors.New("room is closing, retry later")

// ErrInvalidOperation 操作指令格式错误（校验失败、缺少字段）
var ErrInvalidOperation = errors.New("invalid operation")

// ErrUnknownComponentType 工厂不认识的组件类型
var ErrUnknownComponentType = errors.New("unknown component type")

// ErrTargetNotFound 文档内找不到指定的组件或标签
var ErrTargetNotFound = errors.New("component or tab not found")

// VersionConflictError 客户端基于的版本与当前版本不一致
type VersionConflictError struct {
	CurrentVersion  int64
	ExpectedVersion int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: current %d, expected %d", e.CurrentVersion, e.ExpectedVersion)
}
