package content

import (
	"fmt"
	"time"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"
	domainErrors "github.com/ShimJerry/shop-contents-manage/domain/errors"

	"github.com/google/uuid"
)

// Factory 组件默认值工厂（外部协作者）
// Create 生成带有新 id 的完整默认组件，再应用 overrides
type Factory interface {
	Create(componentType entity.ComponentType, overrides *entity.ComponentPatch) (entity.Component, error)
	CreateTab(overrides *entity.TabPatch) entity.TabEntry
}

// 默认文案
const (
	DefaultComponentName        = "Root Component"
	DefaultButtonLabel          = "더보기"
	DefaultExtensionButtonLabel = "전체 상품 보러가기"
)

// DefaultFactory 使用 uuid 生成 id 的默认工厂
type DefaultFactory struct {
	// Now 可替换的时钟，测试用
	Now func() time.Time
}

// NewDefaultFactory 构造函数
func NewDefaultFactory() *DefaultFactory {
	return &DefaultFactory{Now: time.Now}
}

func (f *DefaultFactory) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// Create 按类型生成默认组件
func (f *DefaultFactory) Create(componentType entity.ComponentType, overrides *entity.ComponentPatch) (entity.Component, error) {
	if !componentType.Valid() {
		return entity.Component{}, fmt.Errorf("%w: %q", domainErrors.ErrUnknownComponentType, componentType)
	}

	now := f.now()
	c := entity.Component{
		ID:     uuid.NewString(),
		Type:   componentType,
		Name:   DefaultComponentName,
		Order:  1,
		Period: entity.DisplayPeriod{StartDate: now, EndDate: now},
	}

	switch componentType {
	case entity.ComponentTypeBlank:
		c.Blank = &entity.Body{ID: uuid.NewString()}
	case entity.ComponentTypeImage:
		c.Image = &entity.Body{ID: uuid.NewString()}
	case entity.ComponentTypeText:
		c.Text = &entity.Body{ID: uuid.NewString()}
	case entity.ComponentTypeProduct:
		c.Product = &entity.Product{ID: uuid.NewString(), ProductView: f.NewProductView()}
	case entity.ComponentTypeTab:
		c.StickyYn = entity.No
		c.TabMoving = entity.TabMovingAnchor
		c.Tab = []entity.TabEntry{}
	}

	if overrides != nil && overrides.ID != nil {
		c.ID = *overrides.ID
	}
	return c.Merge(overrides), nil
}

// CreateTab 生成默认标签，order 由调用方决定
func (f *DefaultFactory) CreateTab(overrides *entity.TabPatch) entity.TabEntry {
	tab := entity.TabEntry{
		ID:          uuid.NewString(),
		DisplayYn:   entity.Yes,
		ProductView: f.NewProductView(),
	}
	if overrides != nil && overrides.ID != nil {
		tab.ID = *overrides.ID
	}
	return tab.Merge(overrides)
}

// NewProductView 默认商品视图
func (f *DefaultFactory) NewProductView() entity.ProductView {
	return entity.ProductView{
		ID:                   uuid.NewString(),
		ListType:             entity.ListTypeGridOne,
		BadgeType:            entity.BadgeTypeNone,
		OrderType:            entity.OrderTypeRecommend,
		ButtonLabel:          DefaultButtonLabel,
		ExtensionButtonLabel: DefaultExtensionButtonLabel,
		InitialVisibleCount:  10,
		IncrementCount:       10,
		MaxLoadMoreClicks:    5,
		ExtensionType:        entity.ViewExtensionNone,
		SortItem:             []entity.SortItem{},
	}
}

// NewContent 空白文档
func (f *DefaultFactory) NewContent(id string) entity.Content {
	if id == "" {
		id = uuid.NewString()
	}
	now := f.now()
	return entity.Content{
		ID:         id,
		Period:     entity.DisplayPeriod{StartDate: now, EndDate: now},
		Yn:         entity.Yes,
		Components: []entity.Component{},
	}
}
