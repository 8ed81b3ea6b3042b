package mongodb

import (
	"fmt"
	"time"
)

// MongoOptions MongoDB 客户端配置选项
type MongoOptions struct {
	Name        string
	Uri         string
	Username    string
	Password    string
	MaxPoolSize uint64
	MinPoolSize uint64
	Timeout     time.Duration
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, uri string) *MongoOptions {
	return &MongoOptions{
		Name:        name,
		Uri:         uri,
		MaxPoolSize: 100,
		MinPoolSize: 5,
		Timeout:     10 * time.Second,
	}
}

// Validate 验证配置
func (o *MongoOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("mongo client name is required")
	}
	if o.Uri == "" {
		return fmt.Errorf("mongo uri is required")
	}
	return nil
}

// Builder MongoDB 配置构建器
type Builder struct {
	configs map[string]MongoOptions
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{configs: make(map[string]MongoOptions)}
}

// Add 添加 MongoDB 客户端配置
func (b *Builder) Add(name string, uri string, configure func(*MongoOptions)) *Builder {
	opts := NewDefaultOptions(name, uri)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid mongo configuration for '%s': %v", name, err))
	}
	b.configs[name] = *opts
	return b
}
