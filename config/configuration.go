package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Configuration 配置接口
type Configuration interface {
	// Get 获取配置值
	Get(key string) string
	// GetWithDefault 获取配置值，如果不存在则返回默认值
	GetWithDefault(key, defaultValue string) string
	// GetInt 获取整数配置值
	GetInt(key string) (int, error)
	// GetBool 获取布尔配置值
	GetBool(key string) (bool, error)
	// GetSection 获取配置节
	GetSection(key string) Configuration
	// Bind 绑定配置到结构体
	Bind(key string, target any) error
	// GetAll 获取所有配置
	GetAll() map[string]any
}

// configuration 具体实现，数据为嵌套 map
type configuration struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewConfiguration 创建空配置
func NewConfiguration() Configuration {
	return &configuration{data: make(map[string]any)}
}

// pathCache 缓存路径解析结果
var pathCache sync.Map

// pathSegments 支持 : 和 . 作为分隔符
func pathSegments(path string) []string {
	if v, ok := pathCache.Load(path); ok {
		return v.([]string)
	}
	parts := strings.Split(strings.ReplaceAll(path, ":", "."), ".")
	pathCache.Store(path, parts)
	return parts
}

func (c *configuration) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if key == "" {
		return c.data, true
	}

	var current any = c.data
	for _, segment := range pathSegments(key) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func (c *configuration) Get(key string) string {
	v, ok := c.lookup(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func (c *configuration) GetWithDefault(key, defaultValue string) string {
	if _, ok := c.lookup(key); !ok {
		return defaultValue
	}
	return c.Get(key)
}

func (c *configuration) GetInt(key string) (int, error) {
	v, ok := c.lookup(key)
	if !ok {
		return 0, fmt.Errorf("config: key %q not found", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("config: key %q is not an integer", key)
	}
}

func (c *configuration) GetBool(key string) (bool, error) {
	v, ok := c.lookup(key)
	if !ok {
		return false, fmt.Errorf("config: key %q not found", key)
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	default:
		return false, fmt.Errorf("config: key %q is not a boolean", key)
	}
}

func (c *configuration) GetSection(key string) Configuration {
	v, ok := c.lookup(key)
	if !ok {
		return &configuration{data: make(map[string]any)}
	}
	if m, ok := v.(map[string]any); ok {
		return &configuration{data: m}
	}
	return &configuration{data: make(map[string]any)}
}

// Bind 通过 yaml 往返把配置节绑定到结构体
func (c *configuration) Bind(key string, target any) error {
	v, ok := c.lookup(key)
	if !ok {
		return fmt.Errorf("config: key %q not found", key)
	}
	raw, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("config: failed to marshal section %q: %w", key, err)
	}
	if err := yaml.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("config: failed to bind section %q: %w", key, err)
	}
	return nil
}

func (c *configuration) GetAll() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// merge 深度合并，src 覆盖 dst
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				merge(dv, sv)
				continue
			}
		}
		dst[k] = v
	}
}
