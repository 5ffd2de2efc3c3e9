package bootstrap

import (
	"log"

	"github.com/clerk/clerk-sdk-go/v2"
)

// InitClerk 设置 Clerk 全局密钥，jwt.Verify 依赖它拉取公钥
func InitClerk(secret string) {
	if secret == "" {
		log.Fatal("未找到CLERK_SECRET_KEY")
	}
	clerk.SetKey(secret)

	log.Println("Clerk初始化成功")
}
