package content

import (
	"cmp"
	"slices"
)

// Ordered 可排序集合的元素：唯一 id + 整数 order
type Ordered[T any] interface {
	EntryID() string
	EntryOrder() int
	WithOrder(order int) T
}

// FindByID 线性查找，返回第一个匹配项
func FindByID[T Ordered[T]](items []T, id string) (T, bool) {
	i := slices.IndexFunc(items, func(item T) bool { return item.EntryID() == id })
	if i < 0 {
		var zero T
		return zero, false
	}
	return items[i], true
}

// SwapByID 交换两个元素在序列中的位置，同时交换它们的 order，不重新排序。
// 任一 id 不存在时原样返回。
func SwapByID[T Ordered[T]](items []T, id1, id2 string) []T {
	i1 := slices.IndexFunc(items, func(item T) bool { return item.EntryID() == id1 })
	i2 := slices.IndexFunc(items, func(item T) bool { return item.EntryID() == id2 })
	if i1 < 0 || i2 < 0 {
		return items
	}

	next := slices.Clone(items)
	first, second := items[i1], items[i2]
	next[i1] = second.WithOrder(first.EntryOrder())
	next[i2] = first.WithOrder(second.EntryOrder())
	return next
}

// SwapByOrder 交换 order 为 order1 / order2 的两个元素的 order，并按 order 升序稳定排序。
// 任一 order 不存在时原样返回。
func SwapByOrder[T Ordered[T]](items []T, order1, order2 int) []T {
	i1 := slices.IndexFunc(items, func(item T) bool { return item.EntryOrder() == order1 })
	i2 := slices.IndexFunc(items, func(item T) bool { return item.EntryOrder() == order2 })
	if i1 < 0 || i2 < 0 {
		return items
	}

	next := slices.Clone(items)
	next[i1] = items[i1].WithOrder(order2)
	next[i2] = items[i2].WithOrder(order1)
	slices.SortStableFunc(next, func(a, b T) int {
		return cmp.Compare(a.EntryOrder(), b.EntryOrder())
	})
	return next
}

// Renumber 按当前序列顺序把 order 重排为 1..N
func Renumber[T Ordered[T]](items []T) []T {
	next := make([]T, len(items))
	for i, item := range items {
		next[i] = item.WithOrder(i + 1)
	}
	return next
}

// NextOrder 1 + 现有最大 order（空集合为 1）
func NextOrder[T Ordered[T]](items []T) int {
	maxOrder := 0
	for _, item := range items {
		maxOrder = max(maxOrder, item.EntryOrder())
	}
	return maxOrder + 1
}

// removeByID 删除所有 id 匹配的元素并重排 order
func removeByID[T Ordered[T]](items []T, id string) []T {
	kept := slices.DeleteFunc(slices.Clone(items), func(item T) bool { return item.EntryID() == id })
	return Renumber(kept)
}

// mapByID 对所有 id 匹配的元素应用 fn，返回新切片
func mapByID[T Ordered[T]](items []T, id string, fn func(T) T) []T {
	next := slices.Clone(items)
	for i := range next {
		if next[i].EntryID() == id {
			next[i] = fn(next[i])
		}
	}
	return next
}
