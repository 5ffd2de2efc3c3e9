package bootstrap

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Env 环境变量配置结构
type Env struct {
	DatabaseURL    string   // 数据库连接字符串
	DBDriver       string   // postgres 或 mysql
	ClerkSecretKey string   // Clerk API 密钥
	WebhookSecret  string   // Clerk Webhook 签名密钥
	Port           string   // 服务端口
	AllowedOrigins []string // CORS 与 WebSocket 白名单
}

// LoadEnv 加载环境变量
// 开发环境从 .env 文件加载，生产环境从系统环境变量读取
func LoadEnv() *Env {
	// 尝试加载 .env 文件（生产环境可能没有）
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env 文件未找到，将使用系统环境变量")
	}

	env := &Env{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBDriver:       strings.ToLower(os.Getenv("DB_DRIVER")),
		ClerkSecretKey: os.Getenv("CLERK_SECRET_KEY"),
		WebhookSecret:  os.Getenv("CLERK_WEBHOOK_SECRET"),
		Port:           os.Getenv("PORT"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	// 默认值
	if env.Port == "" {
		env.Port = "8080"
	}
	if env.DBDriver == "" {
		env.DBDriver = DriverPostgres
	}
	if len(env.AllowedOrigins) == 0 {
		env.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	// 必需变量检查
	if env.DatabaseURL == "" {
		log.Fatal("❌ 缺少必需环境变量: DATABASE_URL")
	}

	log.Printf("✅ 环境变量加载完成, 端口: %s, 数据库: %s", env.Port, env.DBDriver)
	return env
}

// splitList 逗号分隔，忽略空项
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
