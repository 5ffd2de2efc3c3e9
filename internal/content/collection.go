package content

import "slices"

// collection 把有序集合原语绑定到一个 Store 上，
// ComponentCollection 与 TabCollection 都在此基础上特化
type collection[T Ordered[T]] struct {
	*Store[[]T]
}

func newCollection[T Ordered[T]](get Getter[[]T], set Setter[[]T]) *collection[T] {
	return &collection[T]{Store: NewStore(get, set)}
}

// FindByID 返回第一个 id 匹配的元素
func (c *collection[T]) FindByID(id string) (T, bool) {
	return FindByID(c.GetData(), id)
}

// SwapPositionByID 交换位置与 order，不重新排序
func (c *collection[T]) SwapPositionByID(id1, id2 string) {
	c.update(func(prev []T) []T {
		return SwapByID(prev, id1, id2)
	})
}

// SwapPositionByOrder 交换 order 后按 order 升序排序
func (c *collection[T]) SwapPositionByOrder(order1, order2 int) {
	c.update(func(prev []T) []T {
		return SwapByOrder(prev, order1, order2)
	})
}

// items 当前序列的副本，调用方修改不会影响状态
func (c *collection[T]) items() []T {
	return slices.Clone(c.GetData())
}
