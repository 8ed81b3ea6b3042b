package di

import (
	"context"
	"fmt"
	"sync"
)

// Args 服务构造参数集合
// key 的顺序不影响实例身份（见 name.go，序列化前会排序）
type Args map[string]any

// ArgsSchema 参数校验协作者接口
// 令牌可以携带一个 schema，解析时先校验参数
// 返回的 Args 可以与输入不同（例如填充默认值）
type ArgsSchema interface {
	Validate(raw Args) (Args, error)
}

// Token 表示一个可请求服务的不可变标识
//
// 与基于 reflect.Type 的注册不同，Token 允许同一类型注册多个逻辑服务，
// 并且可以携带参数校验协作者。
//
// 示例：
//
//	var CacheToken = di.NewToken("cache.client")
//	c.Register(CacheToken, newCacheClient)
//	cache, _ := di.ResolveAs[*Cache](ctx, c, CacheToken)
type Token struct {
	id     string
	name   string
	schema ArgsSchema
}

// TokenOption 配置 Token
type TokenOption func(*Token)

// WithSchema 为令牌附加参数校验协作者
func WithSchema(schema ArgsSchema) TokenOption {
	return func(t *Token) {
		t.schema = schema
	}
}

// NewToken 创建一个新令牌
// id 即为令牌标识，也是实例身份字符串的前缀，应当全局唯一
func NewToken(id string, opts ...TokenOption) *Token {
	t := &Token{
		id:   id,
		name: id,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID 返回令牌标识
func (t *Token) ID() string { return t.id }

// Name 返回展示名称
func (t *Token) Name() string { return t.name }

// Schema 返回参数校验协作者，可能为 nil
func (t *Token) Schema() ArgsSchema { return t.schema }

func (t *Token) String() string {
	return fmt.Sprintf("Token(%s)", t.id)
}

// Bind 创建绑定令牌：参数在绑定时固定
func (t *Token) Bind(args Args) *BoundToken {
	return &BoundToken{token: t, args: args}
}

// BindLazy 创建延迟令牌：参数由工厂函数在首次解析时计算，且只计算一次
func (t *Token) BindLazy(fn func(ctx context.Context) (Args, error)) *LazyToken {
	return &LazyToken{token: t, fn: fn}
}

// BoundToken 携带固定参数的令牌
type BoundToken struct {
	token *Token
	args  Args
}

// Token 返回底层令牌
func (b *BoundToken) Token() *Token { return b.token }

// Args 返回绑定的参数
func (b *BoundToken) Args() Args { return b.args }

// LazyToken 参数延迟解析的令牌
// fn 只会被调用一次，结果（含错误）被缓存
type LazyToken struct {
	token *Token
	fn    func(ctx context.Context) (Args, error)

	once sync.Once
	args Args
	err  error
}

// Token 返回底层令牌
func (l *LazyToken) Token() *Token { return l.token }

func (l *LazyToken) resolveArgs(ctx context.Context) (Args, error) {
	l.once.Do(func() {
		l.args, l.err = l.fn(ctx)
	})
	return l.args, l.err
}

// TokenProvider 由“原始可构造引用”实现，用于从任意值推导其令牌
// 解析时传入实现了该接口的值等价于传入其令牌
type TokenProvider interface {
	ProvideToken() *Token
}
