package usecase

import (
	"github.com/ShimJerry/shop-contents-manage/domain/entity"

	"github.com/stretchr/testify/mock"
)

// ========== MockContentRepository ==========
// 实现 repository.ContentRepository 接口，用于 ContentUseCase 的单元测试

type MockContentRepository struct {
	mock.Mock
}

func (m *MockContentRepository) GetByContentID(contentID string) (*entity.ContentRecord, error) {
	args := m.Called(contentID)
	// 处理 nil 情况
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ContentRecord), args.Error(1)
}

func (m *MockContentRepository) ListByCreator(creatorID string) ([]entity.ContentRecord, error) {
	args := m.Called(creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ContentRecord), args.Error(1)
}

func (m *MockContentRepository) Create(record *entity.ContentRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockContentRepository) UpdateDocument(contentID string, document []byte, title string, oldVersion, newVersion int64) error {
	args := m.Called(contentID, document, title, oldVersion, newVersion)
	return args.Error(0)
}

func (m *MockContentRepository) Delete(contentID string) error {
	args := m.Called(contentID)
	return args.Error(0)
}

// ========== MockContentStore (用于 Hub) ==========
// ContentUseCase 需要真实的 Hub，而 Hub 需要 ContentStore

type MockContentStore struct {
	mock.Mock
}

func (m *MockContentStore) GetContentState(contentID string) (entity.Content, int64, error) {
	args := m.Called(contentID)
	return args.Get(0).(entity.Content), args.Get(1).(int64), args.Error(2)
}

func (m *MockContentStore) SaveContentState(contentID string, state []byte, oldVersion, newVersion int64) error {
	args := m.Called(contentID, state, oldVersion, newVersion)
	return args.Error(0)
}
