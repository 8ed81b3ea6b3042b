package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/navios-org/navios-sub005/logging"
)

// Container 实例解析与生命周期引擎的公共入口
//
// 组合了注册表、身份解析、存储、事件总线、循环检测与作用域
// 追踪。每个容器是一个隔离实例，进程内可以并存多个，互不同步。
type Container struct {
	opts   Options
	logger logging.Logger

	registry *registry
	names    *nameResolver
	bus      *eventBus
	scopes   *scopeTracker
	detector *cycleDetector

	singletons *storage

	reqMu    sync.RWMutex
	requests map[string]*RequestContext
}

// NewContainer 创建一个空容器
func NewContainer(opts ...Option) *Container {
	options := Options{
		NameCacheSize:     defaultNameCacheSize,
		MaxTeardownRounds: defaultMaxTeardownRounds,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = logging.NewNopLogger()
	}

	c := &Container{
		opts:       options,
		logger:     options.Logger,
		registry:   newRegistry(),
		names:      newNameResolver(options.NameCacheSize),
		singletons: newStorage(),
		requests:   make(map[string]*RequestContext),
	}
	c.bus = newEventBus(c.logger)
	c.scopes = newScopeTracker(c.registry, c.logger)
	c.detector = newCycleDetector(c.findHolder)
	return c
}

// Register 注册一条实现记录
// 默认单例作用域、优先级 0；同一令牌可注册多条，严格最高优先级生效
func (c *Container) Register(tok *Token, factory Factory, opts ...RegisterOption) error {
	rec := &FactoryRecord{
		Token:   tok,
		Scope:   ScopeSingleton,
		Factory: factory,
	}
	for _, opt := range opts {
		opt(rec)
	}
	return c.registry.add(rec)
}

// RegisterValue 把现成的值注册为服务
func (c *Container) RegisterValue(tok *Token, value any, opts ...RegisterOption) error {
	return c.Register(tok, ValueFactory(value), opts...)
}

// Resolve 解析一个引用为实例，可能挂起
// 请求作用域的解析需要 ctx 上绑定请求（rc.Context / rc.Resolve）
func (c *Container) Resolve(ctx context.Context, ref any, args ...Args) (any, error) {
	return c.resolve(ctx, ref, mergeArgs(args), nil)
}

// Invalidate 失效一个实例（按身份字符串或实例本身），直到级联落定
// 目标不存在时是 no-op
func (c *Container) Invalidate(ctx context.Context, ref any) error {
	if name, ok := ref.(string); ok {
		if h, home := c.locate(name); h != nil {
			return c.invalidateName(ctx, name, home)
		}
		return nil
	}

	if h := c.findByInstance(ref); h != nil {
		return c.invalidateHolder(ctx, h)
	}
	return nil
}

// RequestOption 配置请求上下文
type RequestOption func(*RequestContext)

// WithRequestPriority 设置请求优先级
func WithRequestPriority(priority int) RequestOption {
	return func(rc *RequestContext) {
		rc.priority = priority
	}
}

// WithRequestMetadata 设置请求元数据
func WithRequestMetadata(metadata map[string]any) RequestOption {
	return func(rc *RequestContext) {
		for k, v := range metadata {
			rc.metadata[k] = v
		}
	}
}

// BeginRequest 开启一个请求作用域
func (c *Container) BeginRequest(id string, opts ...RequestOption) (*RequestContext, error) {
	if id == "" {
		return nil, fmt.Errorf("di: request id cannot be empty")
	}

	rc := &RequestContext{
		id:       id,
		metadata: make(map[string]any),
		storage:  newStorage(),
		c:        c,
	}
	for _, opt := range opts {
		opt(rc)
	}

	c.reqMu.Lock()
	defer c.reqMu.Unlock()
	if _, exists := c.requests[id]; exists {
		return nil, fmt.Errorf("di: request %q already active", id)
	}
	c.requests[id] = rc

	c.logger.Debug("request scope opened",
		logging.Field{Key: "requestId", Value: id})
	return rc, nil
}

// EndRequest 结束请求作用域，挂起直到其存储完全排空
func (c *Container) EndRequest(ctx context.Context, id string) error {
	c.reqMu.Lock()
	rc, ok := c.requests[id]
	if ok {
		delete(c.requests, id)
	}
	c.reqMu.Unlock()

	if !ok {
		return nil
	}

	rc.draining.Store(true)
	err := c.clearAll(ctx, rc.storage, clearOptions{
		maxRounds:         c.opts.MaxTeardownRounds,
		waitForSettlement: c.opts.WaitForSettlement,
	})

	c.logger.Debug("request scope closed",
		logging.Field{Key: "requestId", Value: id})
	return err
}

// Request 返回活动的请求上下文
func (c *Container) Request(id string) (*RequestContext, bool) {
	c.reqMu.RLock()
	defer c.reqMu.RUnlock()
	rc, ok := c.requests[id]
	return rc, ok
}

// Shutdown 排空所有请求作用域后排空单例存储
func (c *Container) Shutdown(ctx context.Context) error {
	c.reqMu.Lock()
	ids := make([]string, 0, len(c.requests))
	for id := range c.requests {
		ids = append(ids, id)
	}
	c.reqMu.Unlock()

	for _, id := range ids {
		if err := c.EndRequest(ctx, id); err != nil {
			return err
		}
	}

	return c.clearAll(ctx, c.singletons, clearOptions{
		maxRounds:         c.opts.MaxTeardownRounds,
		waitForSettlement: c.opts.WaitForSettlement,
	})
}

// findHolder 跨所有存储按身份查找在飞持有者（循环检测用）
func (c *Container) findHolder(name string) *instanceHolder {
	h, _ := c.locate(name)
	return h
}

func (c *Container) locate(name string) (*instanceHolder, *storage) {
	if h := c.singletons.get(name); h != nil {
		return h, c.singletons
	}

	c.reqMu.RLock()
	defer c.reqMu.RUnlock()
	for _, rc := range c.requests {
		if h := rc.storage.get(name); h != nil {
			return h, rc.storage
		}
	}
	return nil, nil
}

// findByInstance 按实例值反查持有者
func (c *Container) findByInstance(instance any) *instanceHolder {
	if instance == nil {
		return nil
	}
	if !reflect.ValueOf(instance).Comparable() {
		return nil
	}

	if h := findInstanceIn(c.singletons, instance); h != nil {
		return h
	}

	c.reqMu.RLock()
	defer c.reqMu.RUnlock()
	for _, rc := range c.requests {
		if h := findInstanceIn(rc.storage, instance); h != nil {
			return h
		}
	}
	return nil
}

func findInstanceIn(st *storage, instance any) *instanceHolder {
	for _, name := range st.names() {
		h := st.get(name)
		if h == nil {
			continue
		}
		h.mu.Lock()
		match := h.status == statusCreated &&
			h.instance != nil &&
			reflect.ValueOf(h.instance).Comparable() &&
			h.instance == instance
		h.mu.Unlock()
		if match {
			return h
		}
	}
	return nil
}
