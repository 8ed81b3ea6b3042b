// Package web 基于 Gin 的 Web 主机。
// 每个 HTTP 请求自动开启一个请求作用域，处理器里通过
// web.Scope(c) 或 di.RequestFrom 取用；响应写出后作用域排空。
package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/navios-org/navios-sub005/core"
	"github.com/navios-org/navios-sub005/di"
	"github.com/navios-org/navios-sub005/logging"
)

// Builder Web 主机构建器（基于 Gin）
type Builder struct {
	logger logging.Logger
	port   int
	engine *gin.Engine
}

// NewBuilder 创建 Web 构建器
func NewBuilder(logger logging.Logger) *Builder {
	// 设置 Gin 为发布模式（默认）
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Builder{
		logger: logger,
		port:   8080,
		engine: engine,
	}
}

// UsePort 设置端口
func (b *Builder) UsePort(port int) *Builder {
	b.port = port
	return b
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.GET(path, handlers...)
	return b
}

// Post 注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.POST(path, handlers...)
	return b
}

// Put 注册 PUT 路由
func (b *Builder) Put(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.PUT(path, handlers...)
	return b
}

// Delete 注册 DELETE 路由
func (b *Builder) Delete(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.DELETE(path, handlers...)
	return b
}

// Patch 注册 PATCH 路由
func (b *Builder) Patch(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.PATCH(path, handlers...)
	return b
}

// Any 注册任意方法路由
func (b *Builder) Any(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.Any(path, handlers...)
	return b
}

// Group 创建路由组
func (b *Builder) Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return b.engine.Group(relativePath, handlers...)
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.engine.Use(middleware...)
	return b
}

// Static 服务静态文件
func (b *Builder) Static(relativePath, root string) *Builder {
	b.engine.Static(relativePath, root)
	return b
}

// NoRoute 处理 404
func (b *Builder) NoRoute(handlers ...gin.HandlerFunc) *Builder {
	b.engine.NoRoute(handlers...)
	return b
}

// SetMode 设置 Gin 模式
func (b *Builder) SetMode(mode string) *Builder {
	gin.SetMode(mode)
	return b
}

// Engine 获取 Gin 引擎（用于高级定制）
func (b *Builder) Engine() *gin.Engine {
	return b.engine
}

// build 构建 Web 主机
func (b *Builder) build(container *di.Container) *Host {
	return &Host{
		port:      b.port,
		engine:    b.engine,
		container: container,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", b.port),
			Handler: b.engine,
		},
		logger: b.logger,
	}
}

// Configure 返回 Web 配置器
// 请求作用域中间件最先注册，随后才执行用户的路由配置
func Configure(configure func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		logger := ctx.GetLogger().WithCategory("web")
		builder := NewBuilder(logger)

		builder.Use(RequestScope(ctx.Container(), logger))

		if configure != nil {
			configure(builder)
		}

		ctx.AddHostedService(builder.build(ctx.Container()))
	}
}
