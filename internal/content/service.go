package content

import "github.com/ShimJerry/shop-contents-manage/domain/entity"

// Service 整个内容文档的可观察状态
// 组件列表交给 ComponentCollection 管理，它的 getter / setter 绑定在 Content.Components 上
type Service struct {
	*Store[entity.Content]

	components *ComponentCollection
}

// NewService 绑定到调用方的文档存储单元，factory 为 nil 时使用默认工厂
func NewService(get Getter[entity.Content], set Setter[entity.Content], factory Factory) *Service {
	s := &Service{Store: NewStore(get, set)}
	s.components = NewComponentCollection(
		func() []entity.Component {
			return s.GetData().Components
		},
		func(transform func([]entity.Component) []entity.Component) {
			s.update(func(prev entity.Content) entity.Content {
				prev.Components = transform(prev.Components)
				return prev
			})
		},
		factory,
	)
	return s
}

// NewLocalService 状态保存在闭包变量里的 Service，用于一次性的读改写
func NewLocalService(initial entity.Content, factory Factory) *Service {
	state := initial
	return NewService(
		func() entity.Content { return state },
		func(transform func(entity.Content) entity.Content) { state = transform(state) },
		factory,
	)
}

// GetContent 当前文档
func (s *Service) GetContent() entity.Content {
	return s.GetData()
}

// UpdateContentMeta 修改 components 以外的元数据
func (s *Service) UpdateContentMeta(patch *entity.ContentMetaPatch) {
	s.update(func(prev entity.Content) entity.Content {
		return prev.Merge(patch)
	})
}

// Components 组件集合管理器
func (s *Service) Components() *ComponentCollection {
	return s.components
}
