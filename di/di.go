// Package di 实现按令牌解析的实例解析与生命周期引擎。
//
// 核心概念：
//   - Token       可请求服务的不可变标识，可携带参数校验协作者
//   - Container   注册 + 解析 + 失效的公共门面
//   - Scope       Singleton / Request / Transient 三种生命周期
//   - 级联失效     依赖销毁时，依赖者通过事件订阅自动跟着销毁
//
// 解析是并发安全的：同一身份的创建是单飞的，所有并发解析共享
// 一次构造；循环依赖在挂起前被主动检测并报错，而不是死锁。
package di

import (
	"context"
	"fmt"
)

// Resolver Container 与 RequestContext 共同实现的解析接口
type Resolver interface {
	Resolve(ctx context.Context, ref any, args ...Args) (any, error)
}

// ResolveAs 解析并断言为 T
//
// 示例：
//
//	cache, err := di.ResolveAs[*redis.Client](ctx, c, CacheToken)
func ResolveAs[T any](ctx context.Context, r Resolver, ref any, args ...Args) (T, error) {
	var zero T

	val, err := r.Resolve(ctx, ref, args...)
	if err != nil {
		return zero, err
	}
	if val == nil {
		return zero, nil
	}

	typed, ok := val.(T)
	if !ok {
		return zero, &UnknownError{Cause: fmt.Errorf("resolved value is %T, expected %T", val, zero)}
	}
	return typed, nil
}
