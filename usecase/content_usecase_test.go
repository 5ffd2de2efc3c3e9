package usecase

import (
	"encoding/json"
	"testing"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"
	domainErrors "github.com/ShimJerry/shop-contents-manage/domain/errors"
	"github.com/ShimJerry/shop-contents-manage/internal/operation"
	"github.com/ShimJerry/shop-contents-manage/internal/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// ========== ContentUseCase 单元测试 ==========
// 测试核心业务逻辑、内存/DB 优先级

func strPtr(s string) *string { return &s }

// productDocument 一个商品组件 + 一个带标签的 tab 组件
func productDocument(t *testing.T, id string) entity.Content {
	t.Helper()
	raw := `{
		"id": "` + id + `",
		"title": "summer",
		"yn": "Y",
		"components": [
			{"id": "p1", "type": "product", "componentName": "p", "order": 1,
			 "product": {"id": "prod", "productView": {"id": "pv-1", "listType": "GRID_TWO", "sortItem": []}}},
			{"id": "t1", "type": "tab", "componentName": "t", "order": 2, "stickyYn": "N", "tabMoving": "ANCHOR",
			 "tab": [{"id": "tab-a", "tabName": "A", "order": 1, "displayYn": "Y", "productView": {"id": "pv-a", "listType": "ROW"}}]}
		]
	}`
	var doc entity.Content
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func recordOf(t *testing.T, doc entity.Content, version int64, creator string) *entity.ContentRecord {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return &entity.ContentRecord{
		ContentID: doc.ID,
		Title:     doc.Title,
		Document:  datatypes.JSON(data),
		Version:   version,
		CreatorID: creator,
	}
}

// TestContentUseCase_GetContent_HotPath 房间已存在于 Hub 中，不读数据库
func TestContentUseCase_GetContent_HotPath(t *testing.T) {
	mockRepo := new(MockContentRepository)
	mockStore := new(MockContentStore)

	mockStore.On("GetContentState", "hot").Return(productDocument(t, "hot"), int64(5), nil).Once()
	mockStore.On("SaveContentState", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	hub := ws.NewHub(mockStore)
	_, err := hub.GetOrCreateRoom("hot")
	require.NoError(t, err)

	uc := NewContentUseCase(mockRepo, hub)

	view, err := uc.GetContent("hot")

	require.NoError(t, err)
	assert.True(t, view.Live)
	assert.Equal(t, int64(5), view.Version)
	assert.Equal(t, "hot", view.Content.ID)
	assert.Len(t, view.Content.Components, 2)

	// 核心断言：repo 从未被调用
	mockRepo.AssertNotCalled(t, "GetByContentID", mock.Anything)
}

// TestContentUseCase_GetContent_ColdPath Hub 中无此房间，从数据库获取
func TestContentUseCase_GetContent_ColdPath(t *testing.T) {
	mockRepo := new(MockContentRepository)
	hub := ws.NewHub(new(MockContentStore))

	mockRepo.On("GetByContentID", "cold").Return(recordOf(t, productDocument(t, "cold"), 3, "user-1"), nil).Once()

	uc := NewContentUseCase(mockRepo, hub)

	view, err := uc.GetContent("cold")

	require.NoError(t, err)
	assert.False(t, view.Live)
	assert.Equal(t, int64(3), view.Version)
	assert.Equal(t, "summer", view.Content.Title)
	mockRepo.AssertNumberOfCalls(t, "GetByContentID", 1)
}

func TestContentUseCase_GetContent_NotFound(t *testing.T) {
	mockRepo := new(MockContentRepository)
	hub := ws.NewHub(new(MockContentStore))

	mockRepo.On("GetByContentID", "nonexistent").Return(nil, nil)

	uc := NewContentUseCase(mockRepo, hub)

	view, err := uc.GetContent("nonexistent")

	assert.Nil(t, view)
	assert.ErrorIs(t, err, domainErrors.ErrContentNotFound)
}

// TestContentUseCase_CreateContent 生成默认文档并调用 repo.Create
func TestContentUseCase_CreateContent(t *testing.T) {
	mockRepo := new(MockContentRepository)
	hub := ws.NewHub(new(MockContentStore))

	mockRepo.On("Create", mock.MatchedBy(func(record *entity.ContentRecord) bool {
		var doc entity.Content
		if err := json.Unmarshal(record.Document, &doc); err != nil {
			return false
		}
		return record.ContentID == "new-content" &&
			record.CreatorID == "user-123" &&
			record.Version == 1 &&
			record.Title == "봄 기획전" &&
			doc.Yn == entity.Yes &&
			doc.Components != nil
	})).Return(nil).Once()

	uc := NewContentUseCase(mockRepo, hub)

	view, err := uc.CreateContent("new-content", "봄 기획전", "user-123")

	require.NoError(t, err)
	assert.Equal(t, "new-content", view.Content.ID)
	assert.Equal(t, int64(1), view.Version)
	mockRepo.AssertExpectations(t)
}

func TestContentUseCase_CreateContent_GeneratesID(t *testing.T) {
	mockRepo := new(MockContentRepository)
	hub := ws.NewHub(new(MockContentStore))

	mockRepo.On("Create", mock.AnythingOfType("*entity.ContentRecord")).Return(nil).Once()

	uc := NewContentUseCase(mockRepo, hub)

	view, err := uc.CreateContent("", "untitled", "user-123")

	require.NoError(t, err)
	assert.NotEmpty(t, view.Content.ID)
}

func TestContentUseCase_CreateContent_AlreadyExists(t *testing.T) {
	mockRepo := new(MockContentRepository)
	hub := ws.NewHub(new(MockContentStore))

	mockRepo.On("Create", mock.Anything).Return(domainErrors.ErrContentAlreadyExists)

	uc := NewContentUseCase(mockRepo, hub)

	_, err := uc.CreateContent("dup", "t", "user-123")

	assert.ErrorIs(t, err, domainErrors.ErrContentAlreadyExists)
}

func TestContentUseCase_ListContents(t *testing.T) {
	mockRepo := new(MockContentRepository)
	hub := ws.NewHub(new(MockContentStore))

	mockRepo.On("ListByCreator", "user-1").Return([]entity.ContentRecord{
		{ContentID: "a", Title: "A", Version: 2},
		{ContentID: "b", Title: "B", Version: 7},
	}, nil)

	uc := NewContentUseCase(mockRepo, hub)

	list, err := uc.ListContents("user-1")

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[1].ContentID)
	assert.Equal(t, int64(7), list[1].Version)
}

func TestContentUseCase_DeleteContent(t *testing.T) {
	tests := []struct {
		name    string
		record  *entity.ContentRecord
		userID  string
		wantErr error
	}{
		{"创建者删除", &entity.ContentRecord{ContentID: "c", CreatorID: "owner"}, "owner", nil},
		{"非创建者", &entity.ContentRecord{ContentID: "c", CreatorID: "owner"}, "intruder", domainErrors.ErrUnauthorized},
		{"不存在", nil, "owner", domainErrors.ErrContentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockContentRepository)
			hub := ws.NewHub(new(MockContentStore))

			if tt.record == nil {
				mockRepo.On("GetByContentID", "c").Return(nil, nil)
			} else {
				mockRepo.On("GetByContentID", "c").Return(tt.record, nil)
			}
			mockRepo.On("Delete", "c").Return(nil).Maybe()

			uc := NewContentUseCase(mockRepo, hub)
			err := uc.DeleteContent("c", tt.userID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				mockRepo.AssertNotCalled(t, "Delete", mock.Anything)
				return
			}
			assert.NoError(t, err)
			mockRepo.AssertCalled(t, "Delete", "c")
		})
	}
}

// TestContentUseCase_DeleteContent_ClosesRoom 删除前关闭在线房间并刷盘
func TestContentUseCase_DeleteContent_ClosesRoom(t *testing.T) {
	mockRepo := new(MockContentRepository)
	mockStore := new(MockContentStore)

	doc := productDocument(t, "live")
	mockStore.On("GetContentState", "live").Return(doc, int64(1), nil).Once()
	mockStore.On("SaveContentState", "live", mock.Anything, int64(1), int64(2)).Return(nil).Once()

	hub := ws.NewHub(mockStore)
	room, err := hub.GetOrCreateRoom("live")
	require.NoError(t, err)
	_, err = room.ApplyOperation(&operation.Operation{Kind: operation.KindDeleteComponent, ComponentID: "p1"}, 1)
	require.NoError(t, err)

	mockRepo.On("GetByContentID", "live").Return(&entity.ContentRecord{ContentID: "live", CreatorID: "owner"}, nil)
	mockRepo.On("Delete", "live").Return(nil).Once()

	uc := NewContentUseCase(mockRepo, hub)

	require.NoError(t, uc.DeleteContent("live", "owner"))

	assert.Nil(t, hub.GetRoom("live"))
	mockStore.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

// TestContentUseCase_DeleteContentsByCreator 用户注销：关闭在线房间并删除名下所有内容
func TestContentUseCase_DeleteContentsByCreator(t *testing.T) {
	mockRepo := new(MockContentRepository)
	mockStore := new(MockContentStore)

	mockStore.On("GetContentState", "live").Return(productDocument(t, "live"), int64(1), nil).Once()
	mockStore.On("SaveContentState", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	hub := ws.NewHub(mockStore)
	_, err := hub.GetOrCreateRoom("live")
	require.NoError(t, err)

	mockRepo.On("ListByCreator", "user-1").Return([]entity.ContentRecord{
		{ContentID: "live", CreatorID: "user-1"},
		{ContentID: "gone", CreatorID: "user-1"},
		{ContentID: "cold", CreatorID: "user-1"},
	}, nil)
	mockRepo.On("Delete", "live").Return(nil).Once()
	mockRepo.On("Delete", "gone").Return(domainErrors.ErrContentNotFound).Once()
	mockRepo.On("Delete", "cold").Return(nil).Once()

	uc := NewContentUseCase(mockRepo, hub)

	deleted, err := uc.DeleteContentsByCreator("user-1")

	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Nil(t, hub.GetRoom("live"))
	mockRepo.AssertExpectations(t)
}

// TestContentUseCase_ApplyOperation_ColdPath 读库、执行、带乐观锁写回
func TestContentUseCase_ApplyOperation_ColdPath(t *testing.T) {
	mockRepo := new(MockContentRepository)
	hub := ws.NewHub(new(MockContentStore))

	mockRepo.On("GetByContentID", "cold").Return(recordOf(t, productDocument(t, "cold"), 4, "user-1"), nil)
	mockRepo.On("UpdateDocument", "cold", mock.MatchedBy(func(document []byte) bool {
		var doc entity.Content
		if err := json.Unmarshal(document, &doc); err != nil {
			return false
		}
		// 交换后 t1 在前，order 与位置一致
		return len(doc.Components) == 2 &&
			doc.Components[0].ID == "t1" && doc.Components[0].Order == 1 &&
			doc.Components[1].ID == "p1" && doc.Components[1].Order == 2
	}), "summer", int64(4), int64(5)).Return(nil).Once()

	uc := NewContentUseCase(mockRepo, hub)

	version, err := uc.ApplyOperation("cold", &operation.Operation{
		Kind:     operation.KindSwapComponentsByID,
		FirstID:  "p1",
		SecondID: "t1",
	}, 4)

	require.NoError(t, err)
	assert.Equal(t, int64(5), version)
	mockRepo.AssertExpectations(t)
}

func TestContentUseCase_ApplyOperation_ColdPath_VersionConflict(t *testing.T) {
	mockRepo := new(MockContentRepository)
	hub := ws.NewHub(new(MockContentStore))

	mockRepo.On("GetByContentID", "cold").Return(recordOf(t, productDocument(t, "cold"), 4, "user-1"), nil)

	uc := NewContentUseCase(mockRepo, hub)

	_, err := uc.ApplyOperation("cold", &operation.Operation{Kind: operation.KindDeleteComponent, ComponentID: "p1"}, 2)

	var versionErr *domainErrors.VersionConflictError
	require.ErrorAs(t, err, &versionErr)
	assert.Equal(t, int64(4), versionErr.CurrentVersion)
	mockRepo.AssertNotCalled(t, "UpdateDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestContentUseCase_ApplyOperation_Invalid(t *testing.T) {
	mockRepo := new(MockContentRepository)
	hub := ws.NewHub(new(MockContentStore))

	uc := NewContentUseCase(mockRepo, hub)

	_, err := uc.ApplyOperation("cold", &operation.Operation{Kind: operation.KindUpdateComponent}, 1)

	assert.ErrorIs(t, err, domainErrors.ErrInvalidOperation)
	mockRepo.AssertNotCalled(t, "GetByContentID", mock.Anything)
}

// TestContentUseCase_ApplyOperation_HotPath 房间在线时交给房间，不写库
func TestContentUseCase_ApplyOperation_HotPath(t *testing.T) {
	mockRepo := new(MockContentRepository)
	mockStore := new(MockContentStore)

	mockStore.On("GetContentState", "hot").Return(productDocument(t, "hot"), int64(9), nil).Once()
	mockStore.On("SaveContentState", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	hub := ws.NewHub(mockStore)
	room, err := hub.GetOrCreateRoom("hot")
	require.NoError(t, err)

	uc := NewContentUseCase(mockRepo, hub)

	version, err := uc.ApplyOperation("hot", &operation.Operation{
		Kind:        operation.KindAddTab,
		ComponentID: "t1",
		Tab:         &entity.TabPatch{TabName: strPtr("B")},
	}, 9)

	require.NoError(t, err)
	assert.Equal(t, int64(10), version)

	doc, _ := room.GetContent()
	assert.Len(t, doc.Components[1].Tab, 2)
	assert.Equal(t, 2, doc.Components[1].Tab[1].Order)
	mockRepo.AssertNotCalled(t, "UpdateDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestContentUseCase_ApplyOperation_StoppingRoom 房间正在关闭时等它刷盘，再走数据库路径
func TestContentUseCase_ApplyOperation_StoppingRoom(t *testing.T) {
	mockRepo := new(MockContentRepository)
	mockStore := new(MockContentStore)

	mockStore.On("GetContentState", "hot").Return(productDocument(t, "hot"), int64(4), nil).Once()
	mockStore.On("SaveContentState", "hot", mock.Anything, int64(4), int64(5)).Return(nil).Once()

	hub := ws.NewHub(mockStore)
	room, err := hub.GetOrCreateRoom("hot")
	require.NoError(t, err)

	_, err = room.ApplyOperation(&operation.Operation{Kind: operation.KindDeleteComponent, ComponentID: "missing"}, 4)
	require.NoError(t, err)
	room.Stop()

	// 房间最后一次刷盘后数据库是版本 5
	mockRepo.On("GetByContentID", "hot").Return(recordOf(t, productDocument(t, "hot"), 5, "user-1"), nil)
	mockRepo.On("UpdateDocument", "hot", mock.Anything, "summer", int64(5), int64(6)).Return(nil).Once()

	uc := NewContentUseCase(mockRepo, hub)

	version, err := uc.ApplyOperation("hot", &operation.Operation{Kind: operation.KindDeleteComponent, ComponentID: "p1"}, 5)

	require.NoError(t, err)
	assert.Equal(t, int64(6), version)
	mockStore.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestContentUseCase_GetProductView(t *testing.T) {
	mockRepo := new(MockContentRepository)
	hub := ws.NewHub(new(MockContentStore))

	mockRepo.On("GetByContentID", "doc").Return(recordOf(t, productDocument(t, "doc"), 1, "user-1"), nil)

	uc := NewContentUseCase(mockRepo, hub)

	view, err := uc.GetProductView("doc", "p1", "")
	require.NoError(t, err)
	assert.Equal(t, "pv-1", view.ID)
	assert.Equal(t, entity.ListTypeGridTwo, view.ListType)

	view, err = uc.GetProductView("doc", "t1", "tab-a")
	require.NoError(t, err)
	assert.Equal(t, "pv-a", view.ID)

	_, err = uc.GetProductView("doc", "t1", "missing")
	assert.ErrorIs(t, err, domainErrors.ErrTargetNotFound)
}
