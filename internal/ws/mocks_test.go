package ws

import (
	"github.com/ShimJerry/shop-contents-manage/domain/entity"

	"github.com/stretchr/testify/mock"
)

// ========== MockContentStore ==========
// 实现 ContentStore 接口，用于 Hub 和 Room 的单元测试

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
