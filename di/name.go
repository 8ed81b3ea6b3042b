package di

import (
	"container/list"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

const defaultNameCacheSize = 1024

// nameResolver 从 (token, args, requestId) 推导确定性的实例身份字符串
//
// 格式：
//
//	tokenID                            无参数
//	tokenID?a=1&b=2                    参数按 key 排序
//	tokenID?a=1&requestId=r42          请求作用域附加 requestId 片段
//	tokenID?a=1#t7                     瞬态实例附加一次性后缀
//
// 相同输入永远得到相同身份，这是“同一身份至多一个实例”的前提。
type nameResolver struct {
	cache        *lruCache
	transientSeq atomic.Uint64
}

func newNameResolver(cacheSize int) *nameResolver {
	if cacheSize <= 0 {
		cacheSize = defaultNameCacheSize
	}
	return &nameResolver{
		cache: newLRUCache(cacheSize),
	}
}

// identity 计算规范身份
// 缓存只是为了省掉重复的排序/拼接，未命中时的重算结果必须完全一致
func (r *nameResolver) identity(tok *Token, args Args, requestID string) string {
	base := r.baseIdentity(tok, args)
	if requestID == "" {
		return base
	}
	return spliceRequestID(base, requestID)
}

// transientIdentity 为瞬态解析生成一次性身份，绕过缓存
func (r *nameResolver) transientIdentity(tok *Token, args Args, requestID string) string {
	name := r.identity(tok, args, requestID)
	return fmt.Sprintf("%s#t%d", name, r.transientSeq.Add(1))
}

func (r *nameResolver) baseIdentity(tok *Token, args Args) string {
	if len(args) == 0 {
		return tok.ID()
	}

	fingerprint := tok.ID() + "\x00" + rawFingerprint(args)
	if cached, ok := r.cache.get(fingerprint); ok {
		return cached
	}

	name := tok.ID() + "?" + canonicalArgs(args)
	r.cache.put(fingerprint, name)
	return name
}

// canonicalArgs 按 key 排序后拼接，保证与插入顺序无关
func canonicalArgs(args Args) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		fmt.Fprintf(&b, "%v", args[k])
	}
	return b.String()
}

// rawFingerprint 缓存键使用的原始序列化
// 与 canonicalArgs 的差别仅在于它不需要是最终格式
func rawFingerprint(args Args) string {
	return canonicalArgs(args)
}

// spliceRequestID 把 requestId 片段拼入规范身份
// 已有的瞬态后缀（#t...）保持在末尾
func spliceRequestID(name, requestID string) string {
	suffix := ""
	if idx := strings.IndexByte(name, '#'); idx >= 0 {
		suffix = name[idx:]
		name = name[:idx]
	}

	sep := "?"
	if strings.ContainsRune(name, '?') {
		sep = "&"
	}
	return name + sep + "requestId=" + requestID + suffix
}

// lruCache 有界 LRU，保护 nameResolver 不被大量不同参数组合撑爆
// 纯优化：淘汰任何条目都不影响正确性
type lruCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type lruEntry struct {
	key   string
	value string
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruEntry).value, true
}

func (c *lruCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*lruEntry).value = value
		return
	}

	elem := c.order.PushFront(&lruEntry{key: key, value: value})
	c.entries[key] = elem

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*lruEntry).key)
		}
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
