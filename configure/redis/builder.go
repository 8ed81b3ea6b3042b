package redis

import (
	"fmt"
	"time"
)

// ClientOptions Redis 客户端配置选项
type ClientOptions struct {
	Name         string
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	// PingOnCreate 创建实例时先 Ping 一次，失败则构造失败
	PingOnCreate bool
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *ClientOptions {
	return &ClientOptions{
		Name:         name,
		Addr:         "localhost:6379",
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Validate 验证配置
func (o *ClientOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("redis client name is required")
	}
	if o.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	return nil
}

// Builder Redis 客户端配置构建器
type Builder struct {
	configs map[string]ClientOptions
}

// NewBuilder 创建 Redis 构建器
func NewBuilder() *Builder {
	return &Builder{configs: make(map[string]ClientOptions)}
}

// AddClient 添加一个 Redis 客户端配置
func (b *Builder) AddClient(name string, configure func(*ClientOptions)) *Builder {
	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid redis configuration for '%s': %v", name, err))
	}
	b.configs[name] = *opts
	return b
}
