package etcd

import (
	"fmt"
	"time"
)

// EtcdClientOptions Etcd 客户端配置选项
type EtcdClientOptions struct {
	Name        string
	Endpoints   []string
	DialTimeout time.Duration
	Username    string
	Password    string
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *EtcdClientOptions {
	return &EtcdClientOptions{
		Name:        name,
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (o *EtcdClientOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("etcd client name is required")
	}
	if len(o.Endpoints) == 0 {
		return fmt.Errorf("etcd endpoints are required")
	}
	return nil
}

// Builder Etcd 客户端配置构建器
type Builder struct {
	configs map[string]EtcdClientOptions
}

// NewBuilder 创建 Etcd 构建器
func NewBuilder() *Builder {
	return &Builder{configs: make(map[string]EtcdClientOptions)}
}

// AddClient 添加一个 etcd 客户端配置
func (b *Builder) AddClient(name string, configure func(*EtcdClientOptions)) *Builder {
	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid etcd configuration for '%s': %v", name, err))
	}
	b.configs[name] = *opts
	return b
}
