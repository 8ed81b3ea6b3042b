package core

import (
	"sync"

	"github.com/navios-org/navios-sub005/config"
	"github.com/navios-org/navios-sub005/di"
	"github.com/navios-org/navios-sub005/hosting"
	"github.com/navios-org/navios-sub005/logging"
)

// Configurator 配置器函数类型
// 配置器用于扩展应用程序：注册服务、添加托管服务、登记清理函数
type Configurator func(*BuildContext)

// Environment 环境信息
type Environment struct {
	Name string
}

// IsDevelopment 是否为开发环境
func (e Environment) IsDevelopment() bool { return e.Name == "development" }

// IsProduction 是否为生产环境
func (e Environment) IsProduction() bool { return e.Name == "production" }

// BuildContext 构建上下文
// 提供给配置器的环境，包含容器、配置、日志等核心组件
type BuildContext struct {
	container      *di.Container
	configuration  config.Configuration
	logger         logging.Logger
	environment    Environment
	hostedServices []hosting.HostedService
	cleanups       map[string]func()
	mu             sync.RWMutex
}

// Container 返回底层的 DI 容器
func (c *BuildContext) Container() *di.Container {
	return c.container
}

// GetLogger 获取日志记录器
func (c *BuildContext) GetLogger() logging.Logger {
	return c.logger
}

// GetConfiguration 获取配置对象
func (c *BuildContext) GetConfiguration() config.Configuration {
	return c.configuration
}

// GetEnvironment 获取环境信息
func (c *BuildContext) GetEnvironment() Environment {
	return c.environment
}

// AddHostedService 添加托管服务
func (c *BuildContext) AddHostedService(service hosting.HostedService) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hostedServices = append(c.hostedServices, service)
}

// SetCleanup 设置资源清理函数，应用停止时执行
func (c *BuildContext) SetCleanup(key string, cleanup func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanups[key] = cleanup
}
