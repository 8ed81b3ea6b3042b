package di

import (
	"context"
	"sync"
	"sync/atomic"
)

// RequestContext 一个隔离的请求作用域
// 持有自己的存储实例，EndRequest 时整体排空
type RequestContext struct {
	id       string
	priority int

	mu       sync.RWMutex
	metadata map[string]any

	storage  *storage
	c        *Container
	draining atomic.Bool
}

// ID 返回请求标识
func (rc *RequestContext) ID() string { return rc.id }

// Priority 返回请求优先级
func (rc *RequestContext) Priority() int { return rc.priority }

// Metadata 读取请求元数据
func (rc *RequestContext) Metadata(key string) (any, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	v, ok := rc.metadata[key]
	return v, ok
}

// SetMetadata 写入请求元数据
func (rc *RequestContext) SetMetadata(key string, value any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.metadata[key] = value
}

// Resolve 在本请求作用域内解析
// 等价于 c.Resolve(rc.Context(ctx), ref, args...)
func (rc *RequestContext) Resolve(ctx context.Context, ref any, args ...Args) (any, error) {
	return rc.c.resolve(rc.Context(ctx), ref, mergeArgs(args), rc)
}

// Size 返回当前存储中的持有者数量
func (rc *RequestContext) Size() int {
	return rc.storage.size()
}

type requestKey struct{}

// Context 把请求绑定到 ctx，使 c.Resolve 能找到它
func (rc *RequestContext) Context(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestKey{}, rc)
}

// RequestFrom 从 ctx 取出绑定的请求，没有则返回 nil
func RequestFrom(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestKey{}).(*RequestContext)
	return rc
}

func mergeArgs(args []Args) Args {
	if len(args) == 0 {
		return nil
	}
	if len(args) == 1 {
		return args[0]
	}
	merged := make(Args)
	for _, a := range args {
		for k, v := range a {
			merged[k] = v
		}
	}
	return merged
}
