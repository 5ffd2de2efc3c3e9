package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	domainErrors "github.com/ShimJerry/shop-contents-manage/domain/errors"

	"github.com/gorilla/websocket"
)

// 心跳配置
const (
	pongWait       = 60 * time.Second    // 等待 Pong 响应的最大时间
	pingPeriod     = (pongWait * 9) / 10 // Ping 发送间隔，必须小于 pongWait
	writeWait      = 10 * time.Second    // 写消息超时时间
	maxMessageSize = 512 * 1024          // 最大消息大小，防止恶意攻击
)

// Client 代表一个 WebSocket 客户端连接
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	ContentID string
	UserInfo  UserInfo
	Room      *Room       // 所属房间引用，Register 时设置
	send      chan []byte // 发送消息缓冲区
}

// NewClient 创建客户端实例
func NewClient(hub *Hub, conn *websocket.Conn, contentID string, userInfo UserInfo) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		ContentID: contentID,
		UserInfo:  userInfo,
		send:      make(chan []byte, 256),
	}
}

// WritePump 负责写消息和发送心跳 Ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				// send channel 已关闭，发送关闭帧
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			// 定时发送 Ping 保活
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump 负责读消息和处理心跳 Pong
func (c *Client) ReadPump() {
	defer func() {
		if c.Room != nil {
			c.Room.Unregister(c)
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))

	// 收到 Pong 时重置读超时
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Client] 连接异常关闭: %v", err)
			}
			break
		}

		// 收到消息也重置读超时
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError(ErrOperationInvalid, "消息不是合法的 JSON", "")
			continue
		}

		switch msg.Type {
		case TypeOperation:
			c.handleOperation(msg.Payload)
		case TypeCursorMove:
			c.handleCursorMove(message)
		}
	}
}

// handleOperation 执行变更命令，成功回 ack，增量由房间广播给所有人
func (c *Client) handleOperation(raw json.RawMessage) {
	var payload OperationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.sendError(ErrOperationInvalid, fmt.Sprintf("payload 解析失败: %v", err), "")
		return
	}

	if c.Room == nil {
		c.sendError(ErrRoomNotFound, c.ContentID, payload.RequestID)
		return
	}

	version, err := c.Room.ApplyOperation(&payload.Operation, payload.Version)
	if err != nil {
		var versionErr *domainErrors.VersionConflictError

		switch {
		case errors.As(err, &versionErr):
			c.sendError(ErrVersionConflict, fmt.Sprintf("current: %d, expected: %d",
				versionErr.CurrentVersion, versionErr.ExpectedVersion), payload.RequestID)
		case errors.Is(err, domainErrors.ErrInvalidOperation),
			errors.Is(err, domainErrors.ErrUnknownComponentType):
			c.sendError(ErrOperationInvalid, err.Error(), payload.RequestID)
		case errors.Is(err, domainErrors.ErrRoomClosing):
			c.sendError(ErrRoomClosing, "房间正在关闭，请重新连接", payload.RequestID)
		default:
			c.sendError(ErrInternalError, err.Error(), payload.RequestID)
		}
		log.Printf("[Client] 用户 [%s] 命令 %s 处理失败: %v", c.UserInfo.UserName, payload.Operation.Kind, err)
		return
	}

	c.reply(newServerMessage(TypeAck, AckPayload{RequestID: payload.RequestID, Version: version}))
	log.Printf("[Client] 用户 [%s] 命令 %s 已应用，新版本: %d",
		c.UserInfo.UserName, payload.Operation.Kind, version)
}

// handleCursorMove 处理光标移动消息
// 光标是非关键消息，阻塞时静默跳过
func (c *Client) handleCursorMove(message []byte) {
	if c.Room != nil {
		c.Room.Broadcast(message, c, false)
	}
}

// sendError 发送结构化错误消息
func (c *Client) sendError(code ErrorCode, message, requestID string) {
	c.reply(newServerMessage(TypeError, ErrorPayload{
		Code:      code,
		Message:   message,
		RequestID: requestID,
	}))
}

// reply 已加入房间时经由房间投递，保证排在之前的增量后面
func (c *Client) reply(data []byte) {
	if data == nil {
		return
	}
	if c.Room != nil {
		c.Room.SendTo(c, data)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
