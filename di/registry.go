package di

import (
	"fmt"
	"sync"
)

// registry 令牌到候选实现的映射
// 注册发生在启动阶段（写少），解析阶段只读，因此用 RWMutex
type registry struct {
	mu      sync.RWMutex
	records map[string][]*FactoryRecord
}

func newRegistry() *registry {
	return &registry{
		records: make(map[string][]*FactoryRecord),
	}
}

// add 追加一条注册记录
func (r *registry) add(rec *FactoryRecord) error {
	if rec.Token == nil {
		return fmt.Errorf("di: cannot register a record without a token")
	}
	if rec.Factory == nil {
		return fmt.Errorf("di: cannot register token %q without a factory", rec.Token.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := rec.Token.ID()
	r.records[id] = append(r.records[id], rec)
	return nil
}

// resolveRecord 返回该令牌严格最高优先级的记录
// 并列最高优先级属于含糊配置，直接返回 PriorityConflictError
func (r *registry) resolveRecord(tokenID string) (*FactoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := r.records[tokenID]
	if len(candidates) == 0 {
		return nil, &NotFoundError{TokenID: tokenID}
	}

	best := candidates[0]
	ties := 1
	for _, rec := range candidates[1:] {
		if rec.Priority > best.Priority {
			best = rec
			ties = 1
		} else if rec.Priority == best.Priority {
			ties++
		}
	}

	if ties > 1 {
		return nil, &PriorityConflictError{TokenID: tokenID, Priority: best.Priority, Count: ties}
	}
	return best, nil
}

// setScope 改写令牌当前生效记录的作用域
// 作用域提升（scope.go）用它把单例消费者降级为请求作用域
func (r *registry) setScope(tokenID string, scope Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidates := r.records[tokenID]
	if len(candidates) == 0 {
		return
	}
	best := candidates[0]
	for _, rec := range candidates[1:] {
		if rec.Priority > best.Priority {
			best = rec
		}
	}
	best.Scope = scope
}

// has 检查令牌是否有记录
func (r *registry) has(tokenID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records[tokenID]) > 0
}
