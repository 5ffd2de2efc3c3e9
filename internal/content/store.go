// Package content 是内容文档的内存模型与变更层。
//
// 所有状态都不归本包所有：每一层都通过构造时注入的 Getter / Setter 读写调用方的存储单元，
// 同一套逻辑既能挂在顶层文档上，也能嵌套在某个 tab 组件的标签列表上。
// 每次提交的变更都以纯函数 prev -> next 表达，并且恰好通知一次订阅者。
//
// 本包不做任何加锁：调用方（例如 ws.Room）负责串行化访问。
package content

// Getter 读取当前状态
type Getter[T any] func() T

// Setter 接收一个纯变换 prev -> next 并提交结果
type Setter[T any] func(transform func(T) T)

// Listener 状态提交时被调用，参数为提交后的新值
type Listener[T any] func(T)

type subscription[T any] struct {
	listener Listener[T]
}

// Store 可观察状态：包装调用方提供的 getter / setter，维护有序的订阅者列表
type Store[T any] struct {
	get  Getter[T]
	set  Setter[T]
	subs []*subscription[T]

	// 提交中再次 update（来自订阅者回调）会排队，
	// 在外层提交完成后依次完整执行，不会交错
	committing bool
	pending    []func(T) T
}

// NewStore 创建 Store，getter / setter 为调用方契约，缺失直接 panic
func NewStore[T any](get Getter[T], set Setter[T]) *Store[T] {
	if get == nil || set == nil {
		panic("content: store requires both getter and setter")
	}
	return &Store[T]{get: get, set: set}
}

// GetData 返回当前状态，无副作用
func (s *Store[T]) GetData() T {
	return s.get()
}

// Subscribe 追加订阅者，返回的函数只移除这一个订阅，重复调用无害
func (s *Store[T]) Subscribe(listener Listener[T]) func() {
	sub := &subscription[T]{listener: listener}
	s.subs = append(s.subs, sub)

	return func() {
		for i, existing := range s.subs {
			if existing == sub {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// update 提交一次变换：setter 拿到包装后的变换，先算出 next，
// 按订阅顺序同步通知每个订阅者，再把 next 交回 setter 提交。
// 即使变换原样返回 prev 也会通知一次，需要短路的调用方应在调用前自行判断。
func (s *Store[T]) update(transform func(T) T) {
	if s.committing {
		s.pending = append(s.pending, transform)
		return
	}

	s.commit(transform)

	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.update(next)
	}
}

// commit 变换、setter 或订阅者 panic 时复位提交标志，并丢弃本次提交期间排队的变更
func (s *Store[T]) commit(transform func(T) T) {
	s.committing = true
	completed := false
	defer func() {
		s.committing = false
		if !completed {
			s.pending = nil
		}
	}()

	s.set(func(prev T) T {
		next := transform(prev)
		s.notify(next)
		return next
	})
	completed = true
}

func (s *Store[T]) notify(value T) {
	// 拷贝一份，回调中退订不影响本轮通知
	subs := append([]*subscription[T](nil), s.subs...)
	for _, sub := range subs {
		sub.listener(value)
	}
}
