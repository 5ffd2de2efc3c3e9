package route

import (
	"github.com/ShimJerry/shop-contents-manage/api/controller"
	"github.com/ShimJerry/shop-contents-manage/api/middleware"

	"github.com/gin-gonic/gin"
)

// Dependencies 路由依赖注入结构
type Dependencies struct {
	ContentController *controller.ContentController
	WSHandler         *controller.WSHandler
	WebhookController *controller.WebhookController
	Verifier          middleware.TokenVerifier // 为 nil 时使用 Clerk 校验
}

// Setup 配置所有路由
func Setup(router *gin.Engine, deps *Dependencies) {
	// --- 公开路由 ---

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "shop-contents-manage",
		})
	})

	// Clerk Webhook（使用签名验证，不使用 JWT）
	if deps.WebhookController != nil {
		router.POST("/webhook/clerk", deps.WebhookController.HandleClerkWebhook)
	}

	// --- WebSocket 路由 ---
	// WebSocket 自行在 Handler 中验证 Token
	if deps.WSHandler != nil {
		router.GET("/ws", deps.WSHandler.HandleWS)
	}

	// --- API 路由（需要 Clerk JWT 认证）---
	api := router.Group("/api")
	api.Use(middleware.ClerkAuth(deps.Verifier))
	{
		// 内容 CRUD
		api.GET("/contents", deps.ContentController.ListContents)
		api.GET("/contents/:contentId", deps.ContentController.GetContent)
		api.POST("/contents", deps.ContentController.CreateContent)
		api.DELETE("/contents/:contentId", deps.ContentController.DeleteContent)

		// 命令与商品视图
		api.POST("/contents/:contentId/operations", deps.ContentController.ApplyOperation)
		api.GET("/contents/:contentId/product-view", deps.ContentController.GetProductView)
	}
}
