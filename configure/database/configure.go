// Package database 把 gorm 数据库连接接入容器。
package database

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/navios-org/navios-sub005/core"
	"github.com/navios-org/navios-sub005/di"
	"github.com/navios-org/navios-sub005/logging"
)

// Token 数据库连接令牌，参数 {name: "..."} 区分多库
var Token = di.NewToken("database.gorm", di.WithSchema(argsSchema{}))

type argsSchema struct{}

func (argsSchema) Validate(raw di.Args) (di.Args, error) {
	name := "default"
	if v, ok := raw["name"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("database: name must be a non-empty string, got %v", v)
		}
		name = s
	}
	return di.Args{"name": name}, nil
}

// Database 受容器管理的数据库连接
type Database struct {
	*gorm.DB
	name   string
	logger logging.Logger
}

// Name 返回连接名称
func (d *Database) Name() string { return d.name }

// Dispose 销毁前关闭底层连接池
func (d *Database) Dispose(context.Context) error {
	d.logger.Info("closing database",
		logging.Field{Key: "name", Value: d.name})
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Options 数据库配置选项
type Options struct {
	Name string
	// DSN sqlite 数据源，例如 "file:app.db" 或 ":memory:"
	DSN string
	// Migrations 创建连接后执行 AutoMigrate 的模型
	Migrations []any
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if o.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	return nil
}

// Builder 数据库配置构建器
type Builder struct {
	configs map[string]Options
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{configs: make(map[string]Options)}
}

// Add 添加一个数据库配置
func (b *Builder) Add(name, dsn string, configure func(*Options)) *Builder {
	opts := Options{Name: name, DSN: dsn}
	if configure != nil {
		configure(&opts)
	}
	if err := opts.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid database configuration for '%s': %v", name, err))
	}
	b.configs[name] = opts
	return b
}

// Configure 返回数据库配置器
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}

		logger := ctx.GetLogger().WithCategory("database")
		configs := builder.configs

		err := ctx.Container().Register(Token,
			func(fctx context.Context, _ *di.Container, args di.Args) (any, error) {
				name := args["name"].(string)
				opts, ok := configs[name]
				if !ok {
					return nil, fmt.Errorf("database: %q is not configured", name)
				}

				db, err := gorm.Open(sqlite.Open(opts.DSN), &gorm.Config{})
				if err != nil {
					return nil, fmt.Errorf("database: failed to open %q: %w", name, err)
				}

				if len(opts.Migrations) > 0 {
					if err := db.AutoMigrate(opts.Migrations...); err != nil {
						return nil, fmt.Errorf("database: migration for %q failed: %w", name, err)
					}
				}

				logger.Info("database opened",
					logging.Field{Key: "name", Value: name},
					logging.Field{Key: "dsn", Value: opts.DSN})
				return &Database{DB: db, name: name, logger: logger}, nil
			})
		if err != nil {
			logger.Fatal("failed to register database factory",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// Get 解析命名数据库的便捷入口
func Get(ctx context.Context, r di.Resolver, name string) (*Database, error) {
	return di.ResolveAs[*Database](ctx, r, Token, di.Args{"name": name})
}
