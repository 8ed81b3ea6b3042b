package di

import "github.com/navios-org/navios-sub005/logging"

// Options 容器配置
type Options struct {
	// Logger 日志接收器，纯建议性，不影响控制流
	Logger logging.Logger

	// NameCacheSize 身份解析 LRU 缓存容量
	NameCacheSize int

	// MaxTeardownRounds 批量排空时的最大重扫轮数
	// 级联是事件驱动的，正常一轮就够；该上限只为兜住
	// 排空期间仍有新解析竞争进来的病态情况
	MaxTeardownRounds int

	// WaitForSettlement 排空前是否先等所有持有者到达终态
	WaitForSettlement bool

	// RejectResolveWhileDraining 为 true 时，排空中的请求
	// 作用域拒绝新的解析而不是容忍它们
	RejectResolveWhileDraining bool
}

const defaultMaxTeardownRounds = 10

// Option 配置容器
type Option func(*Options)

// WithLogger 设置日志接收器
func WithLogger(logger logging.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithNameCacheSize 设置身份缓存容量
func WithNameCacheSize(size int) Option {
	return func(o *Options) {
		o.NameCacheSize = size
	}
}

// WithMaxTeardownRounds 设置批量排空的最大轮数
func WithMaxTeardownRounds(rounds int) Option {
	return func(o *Options) {
		o.MaxTeardownRounds = rounds
	}
}

// WithSettlementWait 排空前等待所有在飞创建/销毁落定
func WithSettlementWait() Option {
	return func(o *Options) {
		o.WaitForSettlement = true
	}
}

// WithStrictDrain 排空期间拒绝新的解析
func WithStrictDrain() Option {
	return func(o *Options) {
		o.RejectResolveWhileDraining = true
	}
}

// RegisterOption 配置一条注册记录
type RegisterOption func(*FactoryRecord)

// WithScope 设置作用域
func WithScope(scope Scope) RegisterOption {
	return func(rec *FactoryRecord) {
		rec.Scope = scope
	}
}

// WithSingleton 单例作用域（默认）
func WithSingleton() RegisterOption {
	return WithScope(ScopeSingleton)
}

// WithRequestScope 请求作用域
func WithRequestScope() RegisterOption {
	return WithScope(ScopeRequest)
}

// WithTransient 瞬态作用域
func WithTransient() RegisterOption {
	return WithScope(ScopeTransient)
}

// WithPriority 设置优先级，严格最高者生效
func WithPriority(priority int) RegisterOption {
	return func(rec *FactoryRecord) {
		rec.Priority = priority
	}
}
