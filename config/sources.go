package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// ConfigurationSource 配置源接口
type ConfigurationSource interface {
	Load() (map[string]any, error)
	Name() string
}

// ConfigurationBuilder 配置构建器
// 按顺序加载所有配置源，后面的覆盖前面的
type ConfigurationBuilder struct {
	sources []ConfigurationSource
	mu      sync.RWMutex
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{sources: make([]ConfigurationSource, 0)}
}

// Add 添加配置源
func (b *ConfigurationBuilder) Add(source ConfigurationSource) *ConfigurationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, source)
	return b
}

// AddYamlFile 添加 YAML 文件配置源
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&YamlFileSource{Path: path, Optional: isOptional})
}

// AddEnvironmentVariables 添加环境变量配置源
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string) *ConfigurationBuilder {
	return b.Add(&EnvironmentVariableSource{Prefix: prefix})
}

// AddInMemory 添加内存配置源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// EtcdOptions etcd 配置源选项
type EtcdOptions struct {
	Endpoints   []string
	Username    string
	Password    string
	Prefix      string
	Timeout     time.Duration
	DialTimeout time.Duration
}

// AddEtcd 添加 etcd 配置源
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return b.Add(&EtcdSource{Options: opts})
}

// Build 构建配置
func (b *ConfigurationBuilder) Build() (Configuration, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cfg := &configuration{data: make(map[string]any)}
	for _, source := range b.sources {
		data, err := source.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config source %s: %w", source.Name(), err)
		}
		merge(cfg.data, data)
	}
	return cfg, nil
}

// YamlFileSource YAML 文件配置源
type YamlFileSource struct {
	Path     string
	Optional bool
}

func (s *YamlFileSource) Name() string { return "yaml:" + s.Path }

func (s *YamlFileSource) Load() (map[string]any, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if s.Optional && os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	data := make(map[string]any)
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// EnvironmentVariableSource 环境变量配置源
// PREFIX_FOO_BAR=x 映射为 foo.bar = x
type EnvironmentVariableSource struct {
	Prefix string
}

func (s *EnvironmentVariableSource) Name() string { return "env:" + s.Prefix }

func (s *EnvironmentVariableSource) Load() (map[string]any, error) {
	data := make(map[string]any)
	for _, kv := range os.Environ() {
		idx := strings.IndexByte(kv, '=')
		if idx < 0 {
			continue
		}
		key, value := kv[:idx], kv[idx+1:]
		if s.Prefix != "" {
			if !strings.HasPrefix(key, s.Prefix+"_") {
				continue
			}
			key = strings.TrimPrefix(key, s.Prefix+"_")
		}

		segments := strings.Split(strings.ToLower(key), "_")
		current := data
		for i, segment := range segments {
			if i == len(segments)-1 {
				current[segment] = value
				break
			}
			next, ok := current[segment].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[segment] = next
			}
			current = next
		}
	}
	return data, nil
}

// InMemorySource 内存配置源
type InMemorySource struct {
	Data map[string]any
}

func (s *InMemorySource) Name() string { return "memory" }

func (s *InMemorySource) Load() (map[string]any, error) {
	if s.Data == nil {
		return map[string]any{}, nil
	}
	return s.Data, nil
}

// EtcdSource etcd 配置源
// 按前缀拉取所有键值，每个值按 YAML 解析后挂到对应路径下
type EtcdSource struct {
	Options EtcdOptions
}

func (s *EtcdSource) Name() string { return "etcd:" + s.Options.Prefix }

func (s *EtcdSource) Load() (map[string]any, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.Options.Timeout)
	defer cancel()

	resp, err := client.Get(ctx, s.Options.Prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	data := make(map[string]any)
	for _, kv := range resp.Kvs {
		key := strings.TrimPrefix(string(kv.Key), s.Options.Prefix)
		key = strings.Trim(key, "/")
		if key == "" {
			continue
		}

		var value any
		if err := yaml.Unmarshal(kv.Value, &value); err != nil {
			value = string(kv.Value)
		}

		segments := strings.Split(key, "/")
		current := data
		for i, segment := range segments {
			if i == len(segments)-1 {
				current[segment] = value
				break
			}
			next, ok := current[segment].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[segment] = next
			}
			current = next
		}
	}
	return data, nil
}
