package content

import (
	"github.com/ShimJerry/shop-contents-manage/domain/entity"
)

// ComponentCollection 管理文档的组件列表
// 在有序集合之上负责创建（委托 Factory）、按变体合并更新、删除后重排 order，
// 以及每个组件的子管理器注册表
type ComponentCollection struct {
	*collection[entity.Component]

	factory  Factory
	managers map[string]*ComponentManager
}

// NewComponentCollection 绑定到调用方的组件列表
func NewComponentCollection(get Getter[[]entity.Component], set Setter[[]entity.Component], factory Factory) *ComponentCollection {
	if factory == nil {
		factory = NewDefaultFactory()
	}
	return &ComponentCollection{
		collection: newCollection(get, set),
		factory:    factory,
		managers:   make(map[string]*ComponentManager),
	}
}

// GetComponents 当前组件列表（副本）
func (c *ComponentCollection) GetComponents() []entity.Component {
	return c.items()
}

// AddComponent 新增组件，order = 现有最大 order + 1。
// overrides 可以指定 id；与已有 id 重复时不会覆盖，而是追加第二个同 id 的组件。
// 返回新组件（提交被推迟时 Order 为 0）。
func (c *ComponentCollection) AddComponent(componentType entity.ComponentType, overrides *entity.ComponentPatch) (entity.Component, error) {
	created, err := c.factory.Create(componentType, overrides)
	if err != nil {
		return entity.Component{}, err
	}
	created.Order = 0

	c.managers[created.ID] = newComponentManager(c, created)

	c.update(func(prev []entity.Component) []entity.Component {
		created.Order = NextOrder(prev)
		next := make([]entity.Component, 0, len(prev)+1)
		next = append(next, prev...)
		return append(next, created)
	})
	return created, nil
}

// UpdateComponent 合并更新；id 不存在时集合不变
func (c *ComponentCollection) UpdateComponent(id string, patch *entity.ComponentPatch) {
	c.update(func(prev []entity.Component) []entity.Component {
		return mapByID(prev, id, func(component entity.Component) entity.Component {
			return component.Merge(patch)
		})
	})
}

// DeleteComponent 删除组件并把剩余组件的 order 重排为 1..N
func (c *ComponentCollection) DeleteComponent(id string) {
	c.update(func(prev []entity.Component) []entity.Component {
		delete(c.managers, id)
		return removeByID(prev, id)
	})
}

// GetComponent 返回组件的子管理器，首次访问时创建；组件不存在返回 nil
func (c *ComponentCollection) GetComponent(id string) *ComponentManager {
	if m, ok := c.managers[id]; ok {
		return m
	}

	component, ok := c.FindByID(id)
	if !ok {
		return nil
	}
	m := newComponentManager(c, component)
	c.managers[id] = m
	return m
}

// mapComponent 子管理器的 setter：把变换映射回父集合
func (c *ComponentCollection) mapComponent(id string, transform func(entity.Component) entity.Component) {
	c.update(func(prev []entity.Component) []entity.Component {
		return mapByID(prev, id, transform)
	})
}
