package di

import (
	"context"
	"sync"
	"time"
)

// holderStatus 实例持有者的状态
// 只允许向前推进：Creating -> {Created, Error}，Created -> Destroying -> 移除
// Error 持有者在所有等待者观察到错误后即被移除，不会复用
type holderStatus int

const (
	statusCreating holderStatus = iota
	statusCreated
	statusDestroying
	statusError
)

func (s holderStatus) String() string {
	switch s {
	case statusCreating:
		return "Creating"
	case statusCreated:
		return "Created"
	case statusDestroying:
		return "Destroying"
	case statusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// destroyListener 销毁监听器
// 既包括调用方注册的清理回调，也包括依赖订阅的退订回调
type destroyListener func(ctx context.Context) error

// instanceHolder 追踪一个实例从构造到销毁的完整状态机
//
// ready 在创建落定（成功或失败）时关闭，所有等待者在其上挂起；
// destroyed 在销毁开始时创建、销毁完成时关闭，用于并发失效去重。
type instanceHolder struct {
	mu sync.Mutex

	name  string
	token *Token
	scope Scope

	// home 当前所属存储，作用域提升时会改变
	home *storage

	status   holderStatus
	instance any
	err      error

	ready     chan struct{}
	destroyed chan struct{}

	deps      map[string]struct{}
	listeners []destroyListener

	// waiting 记录本持有者正在等待哪些身份完成创建
	// 循环检测依赖这些边
	waiting map[string]struct{}

	createdAt time.Time
}

func newCreatingHolder(name string, tok *Token, scope Scope, home *storage) *instanceHolder {
	return &instanceHolder{
		name:      name,
		token:     tok,
		scope:     scope,
		home:      home,
		status:    statusCreating,
		ready:     make(chan struct{}),
		deps:      make(map[string]struct{}),
		waiting:   make(map[string]struct{}),
		createdAt: time.Now(),
	}
}

func (h *instanceHolder) currentName() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.name
}

func (h *instanceHolder) currentStatus() holderStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *instanceHolder) currentHome() *storage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.home
}

// markCreated 创建成功，唤醒所有等待者
func (h *instanceHolder) markCreated(instance any) {
	h.mu.Lock()
	h.status = statusCreated
	h.instance = instance
	h.mu.Unlock()
	close(h.ready)
}

// markError 创建失败，错误对所有当前等待者可见
func (h *instanceHolder) markError(err error) {
	h.mu.Lock()
	h.status = statusError
	h.err = err
	h.mu.Unlock()
	close(h.ready)
}

// beginDestroy 尝试进入 Destroying 状态
// 返回销毁完成通道；started 为 false 表示已有别的调用链在销毁
func (h *instanceHolder) beginDestroy() (done chan struct{}, started bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.status == statusDestroying {
		return h.destroyed, false
	}
	h.status = statusDestroying
	h.destroyed = make(chan struct{})
	return h.destroyed, true
}

func (h *instanceHolder) finishDestroy() {
	h.mu.Lock()
	done := h.destroyed
	h.deps = make(map[string]struct{})
	h.listeners = nil
	h.mu.Unlock()
	close(done)
}

func (h *instanceHolder) addDependency(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deps[name] = struct{}{}
}

func (h *instanceHolder) dependencies() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.deps))
	for name := range h.deps {
		out = append(out, name)
	}
	return out
}

func (h *instanceHolder) hasDependency(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.deps[name]
	return ok
}

// renameDependency 依赖改名（作用域提升后的引用改写）
func (h *instanceHolder) renameDependency(oldName, newName string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.deps[oldName]; !ok {
		return false
	}
	delete(h.deps, oldName)
	h.deps[newName] = struct{}{}
	return true
}

func (h *instanceHolder) addDestroyListener(l destroyListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

func (h *instanceHolder) snapshotDestroyListeners() []destroyListener {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]destroyListener, len(h.listeners))
	copy(out, h.listeners)
	return out
}

func (h *instanceHolder) addWaiting(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.waiting[name] = struct{}{}
}

func (h *instanceHolder) removeWaiting(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.waiting, name)
}

func (h *instanceHolder) waitingOn() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.waiting))
	for name := range h.waiting {
		out = append(out, name)
	}
	return out
}
