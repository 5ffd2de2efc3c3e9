package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"
	domainRepo "github.com/ShimJerry/shop-contents-manage/domain/repository"

	"github.com/gin-gonic/gin"
	svix "github.com/svix/svix-webhooks/go"
)

// Clerk 用户事件
const (
	eventUserCreated = "user.created"
	eventUserUpdated = "user.updated"
	eventUserDeleted = "user.deleted"
)

// ContentOwnerCleaner 用户注销时清理其名下内容
type ContentOwnerCleaner interface {
	DeleteContentsByCreator(creatorID string) (int, error)
}

// WebhookController 处理 Clerk Webhook 回调，维护 users 表与内容归属
type WebhookController struct {
	userRepo domainRepo.UserRepository
	contents ContentOwnerCleaner
	verifier *svix.Webhook // nil 表示未配置密钥，跳过签名验证
	now      func() time.Time
}

// NewWebhookController 构造函数，webhookSecret 为空时跳过签名验证（仅限开发环境）
func NewWebhookController(userRepo domainRepo.UserRepository, contents ContentOwnerCleaner, webhookSecret string) (*WebhookController, error) {
	wc := &WebhookController{
		userRepo: userRepo,
		contents: contents,
		now:      time.Now,
	}

	if webhookSecret == "" {
		log.Println("[Webhook] ⚠️ 未配置 CLERK_WEBHOOK_SECRET，跳过签名验证（仅限开发环境）")
		return wc, nil
	}

	verifier, err := svix.NewWebhook(webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("init webhook verifier: %w", err)
	}
	wc.verifier = verifier
	return wc, nil
}

// clerkEvent Clerk Webhook 事件
type clerkEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// clerkUser user.created / user.updated / user.deleted 的 data 部分
type clerkUser struct {
	ID             string `json:"id"`
	EmailAddresses []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	ImageURL              string `json:"image_url"`
}

// primaryEmail 优先取主邮箱，没有标记时取第一个
func (u clerkUser) primaryEmail() string {
	for _, addr := range u.EmailAddresses {
		if addr.ID == u.PrimaryEmailAddressID {
			return addr.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

func (u clerkUser) displayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HandleClerkWebhook 处理 Clerk Webhook 回调
// POST /webhook/clerk
// 处理失败返回 500，Svix 会按退避策略重新投递
func (wc *WebhookController) HandleClerkWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "无法读取请求体"})
		return
	}

	if wc.verifier != nil {
		if err := wc.verifier.Verify(body, c.Request.Header); err != nil {
			log.Printf("[Webhook] ❌ 签名验证失败: %v", err)
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "签名验证失败"})
			return
		}
	}

	var event clerkEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "无效的 JSON 格式"})
		return
	}

	var user clerkUser
	if err := json.Unmarshal(event.Data, &user); err != nil || user.ID == "" {
		// 非用户事件的 data 结构不同，忽略即可
		log.Printf("[Webhook] ℹ️ 忽略事件: %s", event.Type)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	switch event.Type {
	case eventUserCreated, eventUserUpdated:
		err = wc.syncUser(user)
	case eventUserDeleted:
		err = wc.removeUser(user.ID)
	default:
		log.Printf("[Webhook] ℹ️ 忽略事件: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Webhook] ❌ 处理 %s (%s) 失败: %v", event.Type, user.ID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "处理失败", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (wc *WebhookController) syncUser(data clerkUser) error {
	now := wc.now()
	user := &entity.User{
		ID:        data.ID,
		Email:     data.primaryEmail(),
		Name:      data.displayName(),
		AvatarURL: data.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := wc.userRepo.Upsert(user); err != nil {
		return err
	}

	log.Printf("[Webhook] ✅ 用户同步成功: %s (%s)", user.ID, user.Email)
	return nil
}

// removeUser 先删除用户名下的内容（会关闭在线房间），再删除用户
func (wc *WebhookController) removeUser(userID string) error {
	deleted, err := wc.contents.DeleteContentsByCreator(userID)
	if err != nil {
		return fmt.Errorf("delete contents: %w", err)
	}
	if err := wc.userRepo.Delete(userID); err != nil {
		return err
	}

	log.Printf("[Webhook] 🗑️ 用户已删除: %s，清理内容 %d 个", userID, deleted)
	return nil
}
