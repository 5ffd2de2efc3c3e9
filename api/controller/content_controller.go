package controller

import (
	"errors"
	"log"
	"net/http"

	"github.com/ShimJerry/shop-contents-manage/api/middleware"
	domainErrors "github.com/ShimJerry/shop-contents-manage/domain/errors"
	"github.com/ShimJerry/shop-contents-manage/internal/operation"
	"github.com/ShimJerry/shop-contents-manage/usecase"

	"github.com/gin-gonic/gin"
)

// --- 响应结构定义 ---

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	// 版本冲突时返回当前版本，客户端据此刷新
	CurrentVersion int64 `json:"currentVersion,omitempty"`
}

// MessageResponse 消息响应结构
type MessageResponse struct {
	Message   string `json:"message"`
	ContentID string `json:"contentId,omitempty"`
}

// OperationResponse 命令执行结果
type OperationResponse struct {
	ContentID string `json:"contentId"`
	Version   int64  `json:"version"`
}

// --- 控制器定义 ---

// ContentController 内容 HTTP 控制器
type ContentController struct {
	contentUseCase *usecase.ContentUseCase
}

// NewContentController 创建 ContentController 实例
func NewContentController(contentUseCase *usecase.ContentUseCase) *ContentController {
	return &ContentController{contentUseCase: contentUseCase}
}

// ListContents 当前用户创建的内容
// GET /api/contents
func (cc *ContentController) ListContents(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "未获取到用户信息"})
		return
	}

	list, err := cc.contentUseCase.ListContents(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contents": list})
}

// GetContent 获取内容
// GET /api/contents/:contentId
// 支持 Hub 内存优先读取，回退到数据库
func (cc *ContentController) GetContent(c *gin.Context) {
	contentID := c.Param("contentId")

	view, err := cc.contentUseCase.GetContent(contentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateContentRequest 创建内容请求结构
type CreateContentRequest struct {
	ContentID string `json:"contentId" binding:"omitempty,max=64"`
	Title     string `json:"title" binding:"max=255"`
}

// CreateContent 创建空白内容
// POST /api/contents
// 请求体: { "contentId": "xxx", "title": "..." }，contentId 可选
func (cc *ContentController) CreateContent(c *gin.Context) {
	var req CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "请求格式无效", Details: err.Error()})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "未获取到用户信息"})
		return
	}

	view, err := cc.contentUseCase.CreateContent(req.ContentID, req.Title, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// DeleteContent 删除内容
// DELETE /api/contents/:contentId
// 注意：此操作会强制关闭协同编辑房间，踢出所有在线用户
func (cc *ContentController) DeleteContent(c *gin.Context) {
	contentID := c.Param("contentId")

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "未获取到用户信息"})
		return
	}

	if err := cc.contentUseCase.DeleteContent(contentID, userID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Message:   "内容已删除",
		ContentID: contentID,
	})
}

// ApplyOperationRequest 命令请求结构
type ApplyOperationRequest struct {
	Version   int64               `json:"version" binding:"min=0"`
	Operation operation.Operation `json:"operation"`
}

// ApplyOperation 执行一条变更命令
// POST /api/contents/:contentId/operations
// 请求体: { "version": 3, "operation": { "kind": "add-component", ... } }
func (cc *ContentController) ApplyOperation(c *gin.Context) {
	contentID := c.Param("contentId")

	var req ApplyOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "请求格式无效", Details: err.Error()})
		return
	}

	version, err := cc.contentUseCase.ApplyOperation(contentID, &req.Operation, req.Version)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, OperationResponse{ContentID: contentID, Version: version})
}

// GetProductView 读取商品视图
// GET /api/contents/:contentId/product-view?componentId=xxx&tabId=yyy
func (cc *ContentController) GetProductView(c *gin.Context) {
	componentID := c.Query("componentId")
	if componentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "componentId 不能为空"})
		return
	}

	view, err := cc.contentUseCase.GetProductView(c.Param("contentId"), componentID, c.Query("tabId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// writeError 领域错误映射为 HTTP 状态码
func writeError(c *gin.Context, err error) {
	var versionErr *domainErrors.VersionConflictError

	switch {
	case errors.As(err, &versionErr):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:          "版本冲突",
			Details:        err.Error(),
			CurrentVersion: versionErr.CurrentVersion,
		})
	case errors.Is(err, domainErrors.ErrOptimisticLock):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "版本冲突", Details: err.Error()})
	case errors.Is(err, domainErrors.ErrInvalidOperation),
		errors.Is(err, domainErrors.ErrUnknownComponentType):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "命令无效", Details: err.Error()})
	case errors.Is(err, domainErrors.ErrContentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "内容不存在"})
	case errors.Is(err, domainErrors.ErrTargetNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "组件或标签不存在"})
	case errors.Is(err, domainErrors.ErrContentAlreadyExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "内容已存在"})
	case errors.Is(err, domainErrors.ErrUnauthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "无权限操作此内容"})
	case errors.Is(err, domainErrors.ErrRoomClosing):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "房间正在关闭，请稍后重试"})
	default:
		log.Printf("[API] ❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
