// Package mongodb 把 MongoDB 客户端接入容器。
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/gocrud/mgo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/navios-org/navios-sub005/core"
	"github.com/navios-org/navios-sub005/di"
	"github.com/navios-org/navios-sub005/logging"
)

// ClientToken MongoDB 客户端令牌，参数 {name: "..."} 区分实例
var ClientToken = di.NewToken("mongodb.client", di.WithSchema(clientArgsSchema{}))

type clientArgsSchema struct{}

func (clientArgsSchema) Validate(raw di.Args) (di.Args, error) {
	name := "default"
	if v, ok := raw["name"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("mongodb: client name must be a non-empty string, got %v", v)
		}
		name = s
	}
	return di.Args{"name": name}, nil
}

// Client 受容器管理的 MongoDB 客户端
type Client struct {
	*mgo.Client
	name   string
	logger logging.Logger
}

// Name 返回客户端名称
func (c *Client) Name() string { return c.name }

// Dispose 销毁前断开连接
func (c *Client) Dispose(ctx context.Context) error {
	c.logger.Info("disconnecting mongo client",
		logging.Field{Key: "name", Value: c.name})
	return c.Client.Disconnect(ctx)
}

// Configure 返回 MongoDB 配置器
func Configure(opts func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder()
		if opts != nil {
			opts(builder)
		}

		logger := ctx.GetLogger().WithCategory("mongodb")
		configs := builder.configs

		err := ctx.Container().Register(ClientToken,
			func(fctx context.Context, _ *di.Container, args di.Args) (any, error) {
				name := args["name"].(string)
				cfg, ok := configs[name]
				if !ok {
					return nil, fmt.Errorf("mongodb: client %q is not configured", name)
				}

				clientOpts := options.Client()
				if cfg.Username != "" || cfg.Password != "" {
					clientOpts.SetAuth(options.Credential{
						Username: cfg.Username,
						Password: cfg.Password,
					})
				}
				if cfg.MaxPoolSize > 0 {
					clientOpts.SetMaxPoolSize(cfg.MaxPoolSize)
				}
				if cfg.MinPoolSize > 0 {
					clientOpts.SetMinPoolSize(cfg.MinPoolSize)
				}
				if cfg.Timeout > 0 {
					clientOpts.SetConnectTimeout(cfg.Timeout)
				}

				timeout := cfg.Timeout
				if timeout <= 0 {
					timeout = 10 * time.Second
				}
				connCtx, cancel := context.WithTimeout(fctx, timeout)
				defer cancel()

				client, err := mgo.NewClient(connCtx, cfg.Uri, clientOpts)
				if err != nil {
					return nil, fmt.Errorf("mongodb: failed to connect %q: %w", name, err)
				}

				logger.Info("mongo client connected",
					logging.Field{Key: "name", Value: name},
					logging.Field{Key: "uri", Value: cfg.Uri})
				return &Client{Client: client, name: name, logger: logger}, nil
			})
		if err != nil {
			logger.Fatal("failed to register mongo client factory",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// Get 解析命名客户端的便捷入口
func Get(ctx context.Context, r di.Resolver, name string) (*Client, error) {
	return di.ResolveAs[*Client](ctx, r, ClientToken, di.Args{"name": name})
}
