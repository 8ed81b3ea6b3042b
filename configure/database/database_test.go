package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navios-org/navios-sub005/core"
	"github.com/navios-org/navios-sub005/di"
)

type testRecord struct {
	ID   uint `gorm:"primarykey"`
	Name string
}

func TestConfigureAndResolve(t *testing.T) {
	app, err := core.NewApplicationBuilder().
		Configure(Configure(func(b *Builder) {
			b.Add("default", "file::memory:?cache=shared", func(o *Options) {
				o.Migrations = []any{&testRecord{}}
			})
		})).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	db, err := Get(ctx, app.Services(), "default")
	require.NoError(t, err)
	assert.Equal(t, "default", db.Name())

	// 迁移后的表可写可读
	require.NoError(t, db.Create(&testRecord{Name: "alpha"}).Error)
	var got testRecord
	require.NoError(t, db.First(&got, "name = ?", "alpha").Error)
	assert.Equal(t, "alpha", got.Name)

	// 同名解析命中同一连接
	again, err := Get(ctx, app.Services(), "default")
	require.NoError(t, err)
	assert.Same(t, db, again)

	// 未配置的名称报错
	_, err = Get(ctx, app.Services(), "missing")
	assert.Error(t, err)

	require.NoError(t, app.Stop(ctx))
}

func TestSchemaDefaultsName(t *testing.T) {
	args, err := argsSchema{}.Validate(nil)
	require.NoError(t, err)
	assert.Equal(t, "default", args["name"])

	_, err = argsSchema{}.Validate(di.Args{"name": 42})
	assert.Error(t, err)
}

func TestOptionsValidate(t *testing.T) {
	assert.Error(t, (&Options{Name: "x"}).Validate())
	assert.Error(t, (&Options{DSN: "y"}).Validate())
	assert.NoError(t, (&Options{Name: "x", DSN: "y"}).Validate())
}
