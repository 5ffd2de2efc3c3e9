package content

import (
	"slices"

	"github.com/ShimJerry/shop-contents-manage/domain/entity"
)

// TabCollection 某个 tab 组件内的标签列表
// 读写都经过所属组件的子管理器，标签变更同样只触发一次顶层通知
type TabCollection struct {
	*collection[entity.TabEntry]

	factory Factory
}

func newTabCollection(owner *ComponentManager, factory Factory) *TabCollection {
	return &TabCollection{
		collection: newCollection(
			func() []entity.TabEntry {
				return owner.GetData().Tab
			},
			func(transform func([]entity.TabEntry) []entity.TabEntry) {
				owner.update(func(prev entity.Component) entity.Component {
					prev.Tab = transform(prev.Tab)
					return prev
				})
			},
		),
		factory: factory,
	}
}

// GetTabs 当前标签列表（副本）
func (t *TabCollection) GetTabs() []entity.TabEntry {
	return t.items()
}

// AddTab 追加默认标签，order = 现有最大 order + 1
func (t *TabCollection) AddTab(overrides *entity.TabPatch) entity.TabEntry {
	tab := t.factory.CreateTab(overrides)

	t.update(func(prev []entity.TabEntry) []entity.TabEntry {
		tab.Order = NextOrder(prev)
		next := slices.Grow(slices.Clone(prev), 1)
		return append(next, tab)
	})
	return tab
}

// UpdateTab 浅合并，id / order 不会被修改
func (t *TabCollection) UpdateTab(id string, patch *entity.TabPatch) {
	t.update(func(prev []entity.TabEntry) []entity.TabEntry {
		return mapByID(prev, id, func(tab entity.TabEntry) entity.TabEntry {
			return tab.Merge(patch)
		})
	})
}

// DeleteTab 删除标签并把剩余标签重排为 1..N
func (t *TabCollection) DeleteTab(id string) {
	t.update(func(prev []entity.TabEntry) []entity.TabEntry {
		return removeByID(prev, id)
	})
}
