package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/navios-org/navios-sub005/config"
	"github.com/navios-org/navios-sub005/di"
	"github.com/navios-org/navios-sub005/hosting"
	"github.com/navios-org/navios-sub005/logging"
)

// ContainerSettings 容器行为的配置节（"container"）
type ContainerSettings struct {
	NameCacheSize     int  `yaml:"nameCacheSize"`
	MaxTeardownRounds int  `yaml:"maxTeardownRounds"`
	WaitForSettlement bool `yaml:"waitForSettlement"`
	StrictDrain       bool `yaml:"strictDrain"`
}

// ApplicationBuilder 应用程序构建器
type ApplicationBuilder struct {
	environment      string
	configBuilder    *config.ConfigurationBuilder
	loggingBuilder   *logging.LoggingBuilder
	containerOptions []di.Option
	configurators    []Configurator
	shutdownTimeout  time.Duration
	mu               sync.RWMutex
}

// NewApplicationBuilder 创建应用程序构建器，这是创建应用的入口点
func NewApplicationBuilder() *ApplicationBuilder {
	return &ApplicationBuilder{
		environment:     "development",
		configBuilder:   config.NewConfigurationBuilder(),
		loggingBuilder:  logging.NewLoggingBuilder(),
		configurators:   make([]Configurator, 0),
		shutdownTimeout: 30 * time.Second,
	}
}

// UseEnvironment 设置环境
func (b *ApplicationBuilder) UseEnvironment(env string) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.environment = env
	return b
}

// UseShutdownTimeout 设置优雅关闭超时
func (b *ApplicationBuilder) UseShutdownTimeout(timeout time.Duration) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shutdownTimeout = timeout
	return b
}

// ConfigureConfiguration 配置配置系统
func (b *ApplicationBuilder) ConfigureConfiguration(configure func(*config.ConfigurationBuilder)) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		configure(b.configBuilder)
	}
	return b
}

// ConfigureLogging 配置日志系统
func (b *ApplicationBuilder) ConfigureLogging(configure func(*logging.LoggingBuilder)) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		configure(b.loggingBuilder)
	}
	return b
}

// ConfigureContainer 追加容器选项
func (b *ApplicationBuilder) ConfigureContainer(opts ...di.Option) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.containerOptions = append(b.containerOptions, opts...)
	return b
}

// Configure 添加配置器
func (b *ApplicationBuilder) Configure(configurators ...Configurator) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configurators = append(b.configurators, configurators...)
	return b
}

// Build 构建应用程序
// 顺序：配置 -> 日志 -> 容器（容器选项来自 "container" 配置节，
// ConfigureContainer 传入的选项优先）-> 依次执行配置器
func (b *ApplicationBuilder) Build() (Application, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	configuration, err := b.configBuilder.Build()
	if err != nil {
		return nil, fmt.Errorf("core: failed to build configuration: %w", err)
	}

	loggerFactory := b.loggingBuilder.Build()
	logger := loggerFactory.CreateLogger("app")

	containerOpts := []di.Option{di.WithLogger(logger.WithCategory("di"))}
	var settings ContainerSettings
	if err := configuration.Bind("container", &settings); err == nil {
		if settings.NameCacheSize > 0 {
			containerOpts = append(containerOpts, di.WithNameCacheSize(settings.NameCacheSize))
		}
		if settings.MaxTeardownRounds > 0 {
			containerOpts = append(containerOpts, di.WithMaxTeardownRounds(settings.MaxTeardownRounds))
		}
		if settings.WaitForSettlement {
			containerOpts = append(containerOpts, di.WithSettlementWait())
		}
		if settings.StrictDrain {
			containerOpts = append(containerOpts, di.WithStrictDrain())
		}
	}
	containerOpts = append(containerOpts, b.containerOptions...)

	container := di.NewContainer(containerOpts...)

	ctx := &BuildContext{
		container:     container,
		configuration: configuration,
		logger:        logger,
		environment:   Environment{Name: b.environment},
		cleanups:      make(map[string]func()),
	}

	for _, configurator := range b.configurators {
		configurator(ctx)
	}

	return &application{
		ctx:             ctx,
		hostedManager:   hosting.NewManager(logger.WithCategory("hosting")),
		shutdownTimeout: b.shutdownTimeout,
	}, nil
}
