// Package etcd 把 etcd v3 客户端接入容器。
package etcd

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/navios-org/navios-sub005/core"
	"github.com/navios-org/navios-sub005/di"
	"github.com/navios-org/navios-sub005/logging"
)

// ClientToken Etcd 客户端令牌，参数 {name: "..."} 区分实例
var ClientToken = di.NewToken("etcd.client", di.WithSchema(clientArgsSchema{}))

type clientArgsSchema struct{}

func (clientArgsSchema) Validate(raw di.Args) (di.Args, error) {
	name := "default"
	if v, ok := raw["name"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("etcd: client name must be a non-empty string, got %v", v)
		}
		name = s
	}
	return di.Args{"name": name}, nil
}

// Client 受容器管理的 etcd 客户端
type Client struct {
	*clientv3.Client
	name   string
	logger logging.Logger
}

// Name 返回客户端名称
func (c *Client) Name() string { return c.name }

// Dispose 销毁前关闭连接
func (c *Client) Dispose(context.Context) error {
	c.logger.Info("closing etcd client",
		logging.Field{Key: "name", Value: c.name})
	return c.Client.Close()
}

// Configure 返回 Etcd 配置器
// 使用示例: builder.Configure(etcd.Configure(func(b *etcd.Builder) { ... }))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}

		logger := ctx.GetLogger().WithCategory("etcd")
		configs := builder.configs

		err := ctx.Container().Register(ClientToken,
			func(fctx context.Context, _ *di.Container, args di.Args) (any, error) {
				name := args["name"].(string)
				cfg, ok := configs[name]
				if !ok {
					return nil, fmt.Errorf("etcd: client %q is not configured", name)
				}

				cli, err := clientv3.New(clientv3.Config{
					Endpoints:   cfg.Endpoints,
					DialTimeout: cfg.DialTimeout,
					Username:    cfg.Username,
					Password:    cfg.Password,
				})
				if err != nil {
					return nil, fmt.Errorf("etcd: failed to create client %q: %w", name, err)
				}

				logger.Info("etcd client created",
					logging.Field{Key: "name", Value: name},
					logging.Field{Key: "endpoints", Value: fmt.Sprintf("%v", cfg.Endpoints)})
				return &Client{Client: cli, name: name, logger: logger}, nil
			})
		if err != nil {
			logger.Fatal("failed to register etcd client factory",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// Get 解析命名客户端的便捷入口
func Get(ctx context.Context, r di.Resolver, name string) (*Client, error) {
	return di.ResolveAs[*Client](ctx, r, ClientToken, di.Args{"name": name})
}
