package controller

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ShimJerry/shop-contents-manage/api/middleware"
	domainErrors "github.com/ShimJerry/shop-contents-manage/domain/errors"
	"github.com/ShimJerry/shop-contents-manage/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler WebSocket 连接处理器
type WSHandler struct {
	hub      *ws.Hub
	verify   middleware.TokenVerifier
	upgrader websocket.Upgrader
}

// NewWSHandler 构造函数，verify 为 nil 时使用 Clerk 校验
func NewWSHandler(hub *ws.Hub, verify middleware.TokenVerifier, allowedOrigins []string) *WSHandler {
	if verify == nil {
		verify = middleware.ClerkVerifier
	}
	return &WSHandler{
		hub:    hub,
		verify: verify,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 配置 CORS
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 开发环境允许所有
				if origin == "" || strings.HasPrefix(origin, "http://localhost") {
					return true
				}
				// 生产环境检查白名单
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				log.Printf("[WS] ⚠️ 拒绝来自 %s 的连接", origin)
				return false
			},
		},
	}
}

// HandleWS 处理 WebSocket 升级请求
// GET /ws?contentId=xxx&token=yyy
// ⚠️ 需要在 URL 查询参数或 Sec-WebSocket-Protocol 中携带 JWT Token
func (h *WSHandler) HandleWS(c *gin.Context) {
	contentID := c.Query("contentId")
	if contentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contentId 不能为空"})
		return
	}

	// 1. 验证 JWT Token（从 URL 参数获取，因为 WebSocket 不支持自定义 Header）
	token := c.Query("token")
	if token == "" {
		// 也尝试从 Sec-WebSocket-Protocol 获取（某些客户端实现）
		token = c.GetHeader("Sec-WebSocket-Protocol")
	}

	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少认证 token"})
		return
	}

	// 2. 验证 JWT
	userID, err := h.verify(c.Request.Context(), token)
	if err != nil {
		log.Printf("[WS] ❌ Token 验证失败: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token 无效", "details": err.Error()})
		return
	}

	// 3. 获取或创建房间（会验证内容存在性）
	room, err := h.hub.GetOrCreateRoom(contentID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrContentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "内容不存在"})
			return
		}
		if errors.Is(err, domainErrors.ErrRoomClosing) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "房间正在关闭，请稍后重连"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// 4. 升级为 WebSocket 连接
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] ❌ 升级 WebSocket 失败: %v", err)
		return
	}

	// 5. 创建客户端并注册到房间
	userInfo := ws.UserInfo{
		UserID:   userID,
		UserName: userID,
		Color:    generateUserColor(userID),
	}

	client := ws.NewClient(h.hub, conn, contentID, userInfo)

	// 注册到房间
	if err := room.Register(client); err != nil {
		log.Printf("[WS] ❌ 注册客户端失败: %v", err)
		conn.Close()
		return
	}

	log.Printf("[WS] ✅ 用户 [%s] 连接到内容 [%s]", userInfo.UserID, contentID)

	// 6. 启动读写协程
	go client.WritePump()
	go client.ReadPump()
}

// generateUserColor 根据用户 ID 生成协作光标颜色
func generateUserColor(userID string) string {
	// 使用用户 ID 的哈希值生成一致的颜色
	colors := []string{
		"#FF6B6B", // 红色
		"#4ECDC4", // 青色
		"#45B7D1", // 蓝色
		"#96CEB4", // 绿色
		"#FFEAA7", // 黄色
		"#DDA0DD", // 梅红
		"#98D8C8", // 薄荷
		"#F7DC6F", // 金色
	}

	// 简单哈希
	hash := 0
	for _, c := range userID {
		hash = hash*31 + int(c)
	}
	if hash < 0 {
		hash = -hash
	}

	return colors[hash%len(colors)]
}
