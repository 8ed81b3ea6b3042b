package di

import "context"

// Scope 定义了服务实例的生命周期
type Scope int

const (
	// ScopeSingleton 进程级单例（默认）
	// 整个容器生命周期内同一身份只创建一个实例
	ScopeSingleton Scope = iota

	// ScopeRequest 请求级作用域
	// 每个活动的请求上下文各持有一个实例，请求结束时统一销毁
	// 解析前必须先 BeginRequest
	ScopeRequest

	// ScopeTransient 瞬态作用域
	// 每次解析都创建新实例，完全绕过身份缓存
	ScopeTransient
)

func (s Scope) String() string {
	switch s {
	case ScopeSingleton:
		return "Singleton"
	case ScopeRequest:
		return "Request"
	case ScopeTransient:
		return "Transient"
	default:
		return "Unknown"
	}
}

// Factory 服务工厂函数
// ctx 携带解析帧，工厂内部的嵌套解析必须透传它，
// 否则依赖追踪和循环检测都会失明
type Factory func(ctx context.Context, c *Container, args Args) (any, error)

// ValueFactory 把现成的值包装成工厂
func ValueFactory(v any) Factory {
	return func(context.Context, *Container, Args) (any, error) {
		return v, nil
	}
}

// FactoryRecord 一条注册记录
// 同一令牌允许多条记录（例如生产实现 + 测试覆盖），
// 严格最高优先级的那条生效
type FactoryRecord struct {
	Token    *Token
	Scope    Scope
	Factory  Factory
	Priority int
}

// Initializable 可选的异步构造后初始化钩子
// 工厂返回成功后、实例对外可见前调用；失败等同于构造失败
type Initializable interface {
	Init(ctx context.Context) error
}

// Disposable 可选的销毁前钩子
// 在实例被移除、destroyed 事件发出之前调用
type Disposable interface {
	Dispose(ctx context.Context) error
}
