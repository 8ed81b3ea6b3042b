package di

import (
	"fmt"
	"strings"
)

// NotFoundError 注册表中没有该令牌的任何记录
type NotFoundError struct {
	TokenID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("di: no factory registered for token %q", e.TokenID)
}

// ValidationError 参数校验失败
// Value 保留被拒绝的原始参数，Diff 是校验器给出的结构化说明
type ValidationError struct {
	TokenID string
	Value   Args
	Diff    map[string]string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("di: invalid arguments for token %q: %v", e.TokenID, e.Cause)
	}
	return fmt.Sprintf("di: invalid arguments for token %q", e.TokenID)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// CircularDependencyError 检测到循环依赖
// Path 是完整的环路，首尾为同一个 identity
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("di: circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

// ScopeMismatchError 在没有活动请求上下文的情况下解析请求作用域的服务
type ScopeMismatchError struct {
	TokenID string
	Scope   Scope
}

func (e *ScopeMismatchError) Error() string {
	return fmt.Sprintf("di: token %q is %v scoped but no request context is active", e.TokenID, e.Scope)
}

// PriorityConflictError 同一令牌存在多个并列最高优先级的注册
// 静默选择其中之一属于不确定行为，这里直接报错
type PriorityConflictError struct {
	TokenID  string
	Priority int
	Count    int
}

func (e *PriorityConflictError) Error() string {
	return fmt.Sprintf("di: token %q has %d registrations at priority %d, cannot pick one deterministically", e.TokenID, e.Count, e.Priority)
}

// InstanceDestroyingError 目标实例正在销毁中，不可解析
type InstanceDestroyingError struct {
	Name string
}

func (e *InstanceDestroyingError) Error() string {
	return fmt.Sprintf("di: instance %q is being destroyed and cannot be resolved", e.Name)
}

// InitializationError 构造函数或初始化钩子失败
type InitializationError struct {
	Name  string
	Cause error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("di: failed to initialize %q: %v", e.Name, e.Cause)
}

func (e *InitializationError) Unwrap() error { return e.Cause }

// UnknownError 其余错误的兜底包装
type UnknownError struct {
	Cause error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("di: unknown error: %v", e.Cause)
}

func (e *UnknownError) Unwrap() error { return e.Cause }
