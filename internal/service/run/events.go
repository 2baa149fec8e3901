package run

import (
	"sync"
)

// Listener 接收状态变化的订阅者
type Listener func(Transition)

// bus 同步分发状态变化
type bus struct {
	mu        sync.RWMutex
	listeners map[int]Listener
	next      int
}

func newBus() *bus {
	return &bus{listeners: make(map[int]Listener)}
}

// subscribe 订阅，返回取消订阅函数
func (b *bus) subscribe(l Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// publish 依次通知订阅者，调用方不能持有 Service 的锁
func (b *bus) publish(transitions ...Transition) {
	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.listeners))
	for i := 0; i < b.next; i++ {
		if l, ok := b.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}
	b.mu.RUnlock()

	for _, t := range transitions {
		for _, l := range listeners {
			l(t)
		}
	}
}
