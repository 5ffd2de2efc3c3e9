package ws

import (
	"encoding/json"

	"github.com/ShimJerry/shop-contents-manage/internal/operation"
)

type MessageType string

const (
	// 核心协同消息
	TypeOperation  MessageType = "operation"   // 客户端提交的变更命令
	TypeStatePatch MessageType = "state-patch" // 服务端广播的文档增量（RFC 7396 merge patch）
	TypeCursorMove MessageType = "cursor-move" // 光标 / 选中组件同步

	// 系统消息
	TypeUserJoin  MessageType = "user-join"  // 用户加入房间
	TypeUserLeave MessageType = "user-leave" // 用户离开房间
	TypeSync      MessageType = "sync"       // 全量同步（用于新用户加入）
	TypeAck       MessageType = "ack"        // 命令已应用
	TypeError     MessageType = "error"      // 错误消息
)

// WSMessage 统一的 WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`     // 消息类型
	SenderID  string          `json:"senderId"` // 发送者id
	Payload   json.RawMessage `json:"payload"`  // 消息内容
	Timestamp int64           `json:"ts"`       // 时间戳
}

// SyncPayload sync 消息的 payload（新用户加入时发送）
type SyncPayload struct {
	Content json.RawMessage `json:"content"`
	Version int64           `json:"version"`
	Users   []UserInfo      `json:"users"`
}

// OperationPayload operation 消息的 payload
// Version 是客户端认为的当前版本，不一致时拒绝
type OperationPayload struct {
	RequestID string              `json:"requestId,omitempty"`
	Version   int64               `json:"version"`
	Operation operation.Operation `json:"operation"`
}

// StatePatchPayload 一次提交产生的增量，Version 为提交后的版本
type StatePatchPayload struct {
	Patch   json.RawMessage `json:"patch"`
	Version int64           `json:"version"`
}

// AckPayload 回复给命令发送者
type AckPayload struct {
	RequestID string `json:"requestId,omitempty"`
	Version   int64  `json:"version"`
}

// UserInfo 用户基础信息
type UserInfo struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Color    string `json:"color,omitempty"`
}

// ========== 错误码系统 ==========
// 前端根据 Code 判断错误类型，而不是匹配 Message 字符串

type ErrorCode string

const (
	ErrVersionConflict  ErrorCode = "VERSION_CONFLICT"  // 版本冲突
	ErrOperationInvalid ErrorCode = "OPERATION_INVALID" // 命令格式或字段错误
	ErrRoomNotFound     ErrorCode = "ROOM_NOT_FOUND"    // 房间不存在
	ErrRoomClosing      ErrorCode = "ROOM_CLOSING"      // 房间正在关闭，稍后重连
	ErrContentDeleted   ErrorCode = "CONTENT_DELETED"   // 内容已被删除
	ErrUnauthorized     ErrorCode = "UNAUTHORIZED"      // 未授权
	ErrInternalError    ErrorCode = "INTERNAL_ERROR"    // 服务器内部错误
)

// ErrorPayload 错误消息的 payload 结构
type ErrorPayload struct {
	Code      ErrorCode `json:"code"`                // 错误码（前端用于判断逻辑）
	Message   string    `json:"message"`             // 错误描述（用于调试/日志，可本地化）
	RequestID string    `json:"requestId,omitempty"` // 对应的命令
}

// newServerMessage 构造服务端消息，payload 序列化失败时返回 nil
func newServerMessage(msgType MessageType, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		SenderID:  "server",
		Payload:   raw,
		Timestamp: nowMillis(),
	})
	if err != nil {
		return nil
	}
	return data
}
