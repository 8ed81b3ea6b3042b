package di

import (
	"context"
	"sync"

	"github.com/navios-org/navios-sub005/logging"
)

// lifecycleEvent 生命周期事件类型，仅有 created 与 destroyed 两种
type lifecycleEvent string

const (
	eventCreated   lifecycleEvent = "created"
	eventDestroyed lifecycleEvent = "destroyed"
)

// eventHandler 事件处理器
type eventHandler func(ctx context.Context) error

// eventBus 按实例身份组织的发布/订阅通道
//
// 销毁级联完全靠它驱动：每个持有者创建时订阅其依赖的 destroyed
// 事件，依赖销毁时事件触发依赖者自身的失效，无需手动枚举依赖者。
type eventBus struct {
	mu     sync.Mutex
	seq    int
	subs   map[string]map[lifecycleEvent]map[int]eventHandler
	logger logging.Logger
}

func newEventBus(logger logging.Logger) *eventBus {
	return &eventBus{
		subs:   make(map[string]map[lifecycleEvent]map[int]eventHandler),
		logger: logger,
	}
}

// on 订阅某个身份的事件，返回退订函数
// 退订是幂等的
func (b *eventBus) on(name string, event lifecycleEvent, handler eventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	byEvent, ok := b.subs[name]
	if !ok {
		byEvent = make(map[lifecycleEvent]map[int]eventHandler)
		b.subs[name] = byEvent
	}
	handlers, ok := byEvent[event]
	if !ok {
		handlers = make(map[int]eventHandler)
		byEvent[event] = handlers
	}

	b.seq++
	id := b.seq
	handlers[id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if byEvent, ok := b.subs[name]; ok {
			if handlers, ok := byEvent[event]; ok {
				delete(handlers, id)
				if len(handlers) == 0 {
					delete(byEvent, event)
				}
			}
			if len(byEvent) == 0 {
				delete(b.subs, name)
			}
		}
	}
}

// emit 发布事件并等待所有处理器落定
// 处理器并发执行，彼此失败互不阻塞，错误只记日志
func (b *eventBus) emit(ctx context.Context, name string, event lifecycleEvent) {
	b.mu.Lock()
	var snapshot []eventHandler
	if byEvent, ok := b.subs[name]; ok {
		for _, h := range byEvent[event] {
			snapshot = append(snapshot, h)
		}
	}
	b.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, handler := range snapshot {
		wg.Add(1)
		go func(h eventHandler) {
			defer wg.Done()
			if err := h(ctx); err != nil {
				b.logger.Warn("lifecycle event handler failed",
					logging.Field{Key: "instance", Value: name},
					logging.Field{Key: "event", Value: string(event)},
					logging.Field{Key: "error", Value: err.Error()})
			}
		}(handler)
	}
	wg.Wait()
}

// subscriberCount 某个身份上的订阅数（测试用）
func (b *eventBus) subscriberCount(name string, event lifecycleEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if byEvent, ok := b.subs[name]; ok {
		return len(byEvent[event])
	}
	return 0
}
