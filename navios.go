// Package navios 是应用框架的根入口。
// 核心是 di 包的实例容器：按令牌+参数解析服务，支持单例/请求/
// 瞬态三种作用域、自动作用域提升、循环依赖检测与级联失效。
package navios

import "github.com/navios-org/navios-sub005/core"

// NewApplicationBuilder 创建应用程序构建器
// 这是创建应用程序的入口点
func NewApplicationBuilder() *core.ApplicationBuilder {
	return core.NewApplicationBuilder()
}
