package usecase

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"
	domainErrors "github.com/ShimJerry/shop-contents-manage/domain/errors"
	"github.com/ShimJerry/shop-contents-manage/domain/repository"
	"github.com/ShimJerry/shop-contents-manage/internal/content"
	"github.com/ShimJerry/shop-contents-manage/internal/operation"
	"github.com/ShimJerry/shop-contents-manage/internal/productview"
	"github.com/ShimJerry/shop-contents-manage/internal/ws"
)

// ContentUseCase 内容业务逻辑层
// 注入 Hub，解决"数据双源"问题：
// - 有协同编辑时，内存是 source of truth
// - 无协同编辑时，数据库是 source of truth
type ContentUseCase struct {
	repo    repository.ContentRepository
	hub     *ws.Hub
	factory *content.DefaultFactory
}

// ContentView 对外返回的文档
type ContentView struct {
	Content entity.Content `json:"content"`
	Version int64          `json:"version"`
	Live    bool           `json:"live"` // 是否来自协同房间
}

// ContentSummary 列表项
type ContentSummary struct {
	ContentID string    `json:"contentId"`
	Title     string    `json:"title"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewContentUseCase 构造函数，依赖注入
func NewContentUseCase(repo repository.ContentRepository, hub *ws.Hub) *ContentUseCase {
	return &ContentUseCase{repo: repo, hub: hub, factory: content.NewDefaultFactory()}
}

// GetContent 获取文档
// 优先从 Hub 内存读取（保证读到最新协同状态），否则读数据库
func (uc *ContentUseCase) GetContent(contentID string) (*ContentView, error) {
	// 1. 只读获取，不创建房间
	if room := uc.hub.GetRoom(contentID); room != nil {
		doc, version := room.GetContent()
		return &ContentView{Content: doc, Version: version, Live: true}, nil
	}

	// 2. 内存没有，读数据库
	record, err := uc.repo.GetByContentID(contentID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domainErrors.ErrContentNotFound
	}

	doc, err := record.Decode()
	if err != nil {
		return nil, err
	}
	return &ContentView{Content: doc, Version: record.Version}, nil
}

// ListContents 当前用户创建的内容
func (uc *ContentUseCase) ListContents(creatorID string) ([]ContentSummary, error) {
	records, err := uc.repo.ListByCreator(creatorID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ContentSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, ContentSummary{
			ContentID: record.ContentID,
			Title:     record.Title,
			Version:   record.Version,
			UpdatedAt: record.UpdatedAt,
		})
	}
	return summaries, nil
}

// CreateContent 创建空白文档，contentID 为空时自动生成
func (uc *ContentUseCase) CreateContent(contentID, title, creatorID string) (*ContentView, error) {
	doc := uc.factory.NewContent(contentID)
	doc.Title = title

	document, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	record := &entity.ContentRecord{
		ContentID: doc.ID,
		Title:     title,
		Document:  document,
		Version:   1,
		CreatorID: creatorID,
	}
	if err := uc.repo.Create(record); err != nil {
		return nil, err
	}

	log.Printf("[UseCase] ✅ 用户 [%s] 创建内容 %s", creatorID, doc.ID)
	return &ContentView{Content: doc, Version: record.Version}, nil
}

// DeleteContent 删除文档，只有创建者可以删除
// 先关闭协同房间（会刷盘并通知在线用户），再删数据库
func (uc *ContentUseCase) DeleteContent(contentID, userID string) error {
	record, err := uc.repo.GetByContentID(contentID)
	if err != nil {
		return err
	}
	if record == nil {
		return domainErrors.ErrContentNotFound
	}
	if record.CreatorID != userID {
		return domainErrors.ErrUnauthorized
	}

	uc.hub.CloseRoom(contentID)

	if err := uc.repo.Delete(contentID); err != nil {
		return err
	}
	log.Printf("[UseCase] 🗑️ 用户 [%s] 删除内容 %s", userID, contentID)
	return nil
}

// DeleteContentsByCreator 删除某个用户创建的全部内容（用户注销时调用），返回删除数量
func (uc *ContentUseCase) DeleteContentsByCreator(creatorID string) (int, error) {
	records, err := uc.repo.ListByCreator(creatorID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, record := range records {
		uc.hub.CloseRoom(record.ContentID)
		if err := uc.repo.Delete(record.ContentID); err != nil {
			if errors.Is(err, domainErrors.ErrContentNotFound) {
				continue
			}
			return deleted, err
		}
		deleted++
	}

	log.Printf("[UseCase] 🗑️ 用户 [%s] 的 %d 个内容已删除", creatorID, deleted)
	return deleted, nil
}

// ApplyOperation 执行一条命令，返回提交后的版本
// 房间在线时交给房间；否则在 Hub 的内容锁内读库、执行、按乐观锁写回，期间不会创建房间
func (uc *ContentUseCase) ApplyOperation(contentID string, op *operation.Operation, expectedVersion int64) (int64, error) {
	for attempt := 0; attempt < maxRoomRetries; attempt++ {
		var version int64
		room, err := uc.hub.WithoutRoom(contentID, func() error {
			var coldErr error
			version, coldErr = uc.applyCold(contentID, op, expectedVersion)
			return coldErr
		})
		if room == nil {
			return version, err
		}

		version, err = room.ApplyOperation(op, expectedVersion)
		if !errors.Is(err, domainErrors.ErrRoomClosing) {
			return version, err
		}

		// 房间在检查之后开始关闭：等它刷盘完成再重试
		log.Printf("[UseCase] ⏳ 内容 %s 的房间正在关闭，重试命令 %s", contentID, op.Kind)
		<-room.Done()
	}
	return 0, domainErrors.ErrRoomClosing
}

// maxRoomRetries 房间反复关闭时的重试上限
const maxRoomRetries = 3

// applyCold 不经过房间，直接读库执行并按乐观锁写回
func (uc *ContentUseCase) applyCold(contentID string, op *operation.Operation, expectedVersion int64) (int64, error) {
	if err := op.Validate(); err != nil {
		return 0, err
	}

	record, err := uc.repo.GetByContentID(contentID)
	if err != nil {
		return 0, err
	}
	if record == nil {
		return 0, domainErrors.ErrContentNotFound
	}
	if record.Version != expectedVersion {
		return record.Version, &domainErrors.VersionConflictError{
			CurrentVersion:  record.Version,
			ExpectedVersion: expectedVersion,
		}
	}

	doc, err := record.Decode()
	if err != nil {
		return 0, err
	}

	svc := content.NewLocalService(doc, uc.factory)
	if err := op.Apply(svc); err != nil {
		return record.Version, err
	}

	next := svc.GetContent()
	document, err := json.Marshal(next)
	if err != nil {
		return 0, err
	}

	newVersion := record.Version + 1
	if err := uc.repo.UpdateDocument(contentID, document, next.Title, record.Version, newVersion); err != nil {
		return record.Version, err
	}
	return newVersion, nil
}

// GetProductView 读取商品组件或标签上的商品视图
func (uc *ContentUseCase) GetProductView(contentID, componentID, tabID string) (*entity.ProductView, error) {
	view, err := uc.GetContent(contentID)
	if err != nil {
		return nil, err
	}

	svc := productview.NewService(content.NewLocalService(view.Content, uc.factory).Components())
	productView, ok := svc.GetProductView(componentID, tabID)
	if !ok {
		return nil, domainErrors.ErrTargetNotFound
	}
	return &productView, nil
}
