package middleware

import "github.com/gin-gonic/gin"

// ContextKey 定义 Context 中使用的常量 key

const (
	// ContextKeyUserID 存储 Clerk 用户 ID 的 Context key
	ContextKeyUserID = "userID"
)

// UserID 读取认证中间件注入的用户 ID
func UserID(c *gin.Context) (string, bool) {
	userID := c.GetString(ContextKeyUserID)
	return userID, userID != ""
}
