// Package redis 把 go-redis 客户端接入容器。
// 客户端按 {name: "..."} 参数区分身份，同名解析命中同一实例；
// 实例销毁时自动关闭底层连接。
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/navios-org/navios-sub005/core"
	"github.com/navios-org/navios-sub005/di"
	"github.com/navios-org/navios-sub005/logging"
)

// ClientToken Redis 客户端令牌
// 参数 schema 校验 name 必须是非空字符串，缺省补 "default"
var ClientToken = di.NewToken("redis.client", di.WithSchema(clientArgsSchema{}))

type clientArgsSchema struct{}

func (clientArgsSchema) Validate(raw di.Args) (di.Args, error) {
	name := "default"
	if v, ok := raw["name"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("redis: client name must be a non-empty string, got %v", v)
		}
		name = s
	}
	return di.Args{"name": name}, nil
}

// Client 受容器管理的 Redis 客户端
type Client struct {
	*redis.Client
	name   string
	logger logging.Logger
}

// Name 返回客户端名称
func (c *Client) Name() string { return c.name }

// Dispose 销毁前关闭底层连接
func (c *Client) Dispose(context.Context) error {
	c.logger.Info("closing redis client",
		logging.Field{Key: "name", Value: c.name})
	return c.Client.Close()
}

// Configure 返回 Redis 配置器
// 使用示例: builder.Configure(redis.Configure(func(b *redis.Builder) { ... }))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}

		logger := ctx.GetLogger().WithCategory("redis")
		configs := builder.configs

		err := ctx.Container().Register(ClientToken,
			func(fctx context.Context, _ *di.Container, args di.Args) (any, error) {
				name := args["name"].(string)
				opts, ok := configs[name]
				if !ok {
					return nil, fmt.Errorf("redis: client %q is not configured", name)
				}

				client := redis.NewClient(&redis.Options{
					Addr:         opts.Addr,
					Password:     opts.Password,
					DB:           opts.DB,
					DialTimeout:  opts.DialTimeout,
					ReadTimeout:  opts.ReadTimeout,
					WriteTimeout: opts.WriteTimeout,
					PoolSize:     opts.PoolSize,
					MinIdleConns: opts.MinIdleConns,
					MaxRetries:   opts.MaxRetries,
				})

				if opts.PingOnCreate {
					pingCtx, cancel := context.WithTimeout(fctx, opts.DialTimeout)
					defer cancel()
					if err := client.Ping(pingCtx).Err(); err != nil {
						client.Close()
						return nil, fmt.Errorf("redis: ping %q failed: %w", name, err)
					}
				}

				logger.Info("redis client connected",
					logging.Field{Key: "name", Value: name},
					logging.Field{Key: "addr", Value: opts.Addr})
				return &Client{Client: client, name: name, logger: logger}, nil
			})
		if err != nil {
			logger.Fatal("failed to register redis client factory",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// Get 解析命名客户端的便捷入口
func Get(ctx context.Context, r di.Resolver, name string) (*Client, error) {
	return di.ResolveAs[*Client](ctx, r, ClientToken, di.Args{"name": name})
}
