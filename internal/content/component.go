package content

import "github.com/ShimJerry/shop-contents-manage/domain/entity"

// ComponentManager 单个组件的子管理器
// getter 每次都通过父集合按 id 重新解析（尚未提交时回退到创建时的值），
// setter 经由父集合的 update 提交，因此任何修改最终只在顶层通知一次
type ComponentManager struct {
	*Store[entity.Component]

	id   string
	tabs *TabCollection
}

func newComponentManager(parent *ComponentCollection, fallback entity.Component) *ComponentManager {
	id := fallback.ID
	m := &ComponentManager{id: id}
	m.Store = NewStore(
		func() entity.Component {
			if live, ok := parent.FindByID(id); ok {
				return live
			}
			return fallback
		},
		func(transform func(entity.Component) entity.Component) {
			parent.mapComponent(id, transform)
		},
	)

	// type 创建后不可变，可以在构造时决定
	if fallback.Type == entity.ComponentTypeTab {
		m.tabs = newTabCollection(m, parent.factory)
	}
	return m
}

// ID 组件 id
func (m *ComponentManager) ID() string {
	return m.id
}

// Update 合并更新本组件
func (m *ComponentManager) Update(patch *entity.ComponentPatch) {
	m.update(func(prev entity.Component) entity.Component {
		return prev.Merge(patch)
	})
}

// Tabs 标签集合管理器，非 tab 组件返回 nil
func (m *ComponentManager) Tabs() *TabCollection {
	return m.tabs
}
