package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navios-org/navios-sub005/di"
)

func TestBuilderAddClient(t *testing.T) {
	b := NewBuilder()
	b.AddClient("cache", func(o *ClientOptions) {
		o.Addr = "redis-cache:6379"
		o.DB = 2
	})

	opts, ok := b.configs["cache"]
	require.True(t, ok)
	assert.Equal(t, "redis-cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	// 未覆盖的字段保留默认值
	assert.NotZero(t, opts.DialTimeout)
}

func TestBuilderRejectsInvalidOptions(t *testing.T) {
	b := NewBuilder()
	assert.Panics(t, func() {
		b.AddClient("broken", func(o *ClientOptions) { o.Addr = "" })
	})
}

func TestClientArgsSchema(t *testing.T) {
	args, err := clientArgsSchema{}.Validate(nil)
	require.NoError(t, err)
	assert.Equal(t, "default", args["name"])

	args, err = clientArgsSchema{}.Validate(di.Args{"name": "cache"})
	require.NoError(t, err)
	assert.Equal(t, "cache", args["name"])

	_, err = clientArgsSchema{}.Validate(di.Args{"name": ""})
	assert.Error(t, err)
	_, err = clientArgsSchema{}.Validate(di.Args{"name": 7})
	assert.Error(t, err)
}
