package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ShimJerry/shop-contents-manage/api/controller"
	"github.com/ShimJerry/shop-contents-manage/api/route"
	"github.com/ShimJerry/shop-contents-manage/bootstrap"
	"github.com/ShimJerry/shop-contents-manage/internal/ws"
	"github.com/ShimJerry/shop-contents-manage/repository"
	"github.com/ShimJerry/shop-contents-manage/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("[Server] Shop Contents Server 启动中...")

	// 加载环境变量
	env := bootstrap.LoadEnv()

	// 初始化 Clerk
	bootstrap.InitClerk(env.ClerkSecretKey)

	// 连接数据库
	db := bootstrap.NewDatabase(env.DBDriver, env.DatabaseURL)

	// 依赖注入 - Repository 层
	contentRepo := repository.NewContentRepository(db)
	userRepo := repository.NewUserRepository(db)

	// WebSocket Hub
	hub := ws.NewHub(contentRepo.(ws.ContentStore))

	// 依赖注入 - UseCase 层
	contentUseCase := usecase.NewContentUseCase(contentRepo, hub)

	// 依赖注入 - Controller 层
	contentController := controller.NewContentController(contentUseCase)
	wsHandler := controller.NewWSHandler(hub, nil, env.AllowedOrigins)
	webhookController, err := controller.NewWebhookController(userRepo, contentUseCase, env.WebhookSecret)
	if err != nil {
		log.Fatalf("[Server] ❌ Webhook 配置错误: %v", err)
	}

	// 启动 Hub 事件循环
	go hub.Run()

	// 配置 Gin 路由
	router := gin.Default()

	// CORS 配置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     env.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 设置路由
	route.Setup(router, &route.Dependencies{
		ContentController: contentController,
		WSHandler:         wsHandler,
		WebhookController: webhookController,
	})

	// 启动 HTTP 服务
	srv := &http.Server{
		Addr:    ":" + env.Port,
		Handler: router,
	}

	go func() {
		log.Printf("[Server] 服务已启动: http://localhost:%s", env.Port)
		log.Printf("[Server] API 端点:")
		log.Printf("   GET    /health                                 - 健康检查")
		log.Printf("   GET    /api/contents                           - 我的内容列表")
		log.Printf("   GET    /api/contents/:contentId                - 获取内容")
		log.Printf("   POST   /api/contents                           - 创建内容")
		log.Printf("   DELETE /api/contents/:contentId                - 删除内容")
		log.Printf("   POST   /api/contents/:contentId/operations     - 执行变更命令")
		log.Printf("   GET    /api/contents/:contentId/product-view   - 读取商品视图")
		log.Printf("   GET    /ws?contentId=xxx&token=xxx             - WebSocket 连接")
		log.Printf("   POST   /webhook/clerk                          - Clerk Webhook")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] 服务启动失败: %v", err)
		}
	}()

	// 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Server] 收到停机信号，正在优雅关闭...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[Server] ⚠️ HTTP 服务强制关闭: %v", err)
	}

	// 房间刷盘并通知在线用户
	hub.Shutdown()

	log.Println("[Server] 服务已安全停止")
}
