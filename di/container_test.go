package di_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/navios-org/navios-sub005/di"
)

// Counter 测试用计数器服务
type Counter struct {
	ID int
}

// Database 测试用数据库服务
type Database struct {
	Name string
}

// TestResolveSingleton 测试单例解析：两次解析返回同一实例
func TestResolveSingleton(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.counter")

	var built atomic.Int32
	err := c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &Counter{ID: int(built.Add(1))}, nil
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx := context.Background()
	first, err := c.Resolve(ctx, tok)
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	second, err := c.Resolve(ctx, tok)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	if first != second {
		t.Error("singleton resolutions should return the same instance")
	}
	if built.Load() != 1 {
		t.Errorf("factory should run once, ran %d times", built.Load())
	}
}

// TestResolveNotFound 测试未注册令牌
func TestResolveNotFound(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.missing")

	_, err := c.Resolve(context.Background(), tok)
	var nf *di.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.TokenID != "test.missing" {
		t.Errorf("unexpected token id: %s", nf.TokenID)
	}
}

// TestResolveArgsIdentity 测试参数身份：不同参数不同实例，key 顺序无关
func TestResolveArgsIdentity(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.db")

	c.Register(tok, func(ctx context.Context, _ *di.Container, args di.Args) (any, error) {
		return &Database{Name: fmt.Sprintf("%v", args["name"])}, nil
	})

	ctx := context.Background()

	a1, _ := c.Resolve(ctx, tok, di.Args{"name": "users", "shard": 1})
	a2, _ := c.Resolve(ctx, tok, di.Args{"shard": 1, "name": "users"})
	b1, _ := c.Resolve(ctx, tok, di.Args{"name": "orders", "shard": 1})

	if a1 != a2 {
		t.Error("same args in different key order should hit the same instance")
	}
	if a1 == b1 {
		t.Error("different args should produce distinct instances")
	}
}

// TestConcurrentResolveSingleFlight 测试并发解析单飞：N 个并发解析只构造一次
func TestConcurrentResolveSingleFlight(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.singleflight")

	var built atomic.Int32
	started := make(chan struct{})
	c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		built.Add(1)
		<-started // 卡住构造，保证所有 goroutine 都进入解析
		return &Counter{ID: 1}, nil
	})

	const n = 32
	results := make([]any, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v, err := c.Resolve(context.Background(), tok)
			if err != nil {
				t.Errorf("Resolve %d failed: %v", idx, err)
				return
			}
			results[idx] = v
		}(i)
	}

	close(started)
	wg.Wait()

	if built.Load() != 1 {
		t.Errorf("expected exactly 1 construction, got %d", built.Load())
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatal("all concurrent resolutions should share one instance")
		}
	}
}

// TestValidationError 测试参数校验失败
func TestValidationError(t *testing.T) {
	tok := di.NewToken("test.validated", di.WithSchema(rejectAll{}))
	c := di.NewContainer()
	c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &Counter{}, nil
	})

	_, err := c.Resolve(context.Background(), tok, di.Args{"bad": true})
	var ve *di.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Value["bad"] != true {
		t.Error("ValidationError should carry the rejected args")
	}
}

type rejectAll struct{}

func (rejectAll) Validate(raw di.Args) (di.Args, error) {
	return nil, fmt.Errorf("always invalid")
}

// TestSchemaDefaults 测试 schema 填充默认值参与身份计算
func TestSchemaDefaults(t *testing.T) {
	tok := di.NewToken("test.defaulted", di.WithSchema(defaultName{}))
	c := di.NewContainer()
	c.Register(tok, func(ctx context.Context, _ *di.Container, args di.Args) (any, error) {
		return &Database{Name: args["name"].(string)}, nil
	})

	ctx := context.Background()
	implicit, _ := c.Resolve(ctx, tok)
	explicit, _ := c.Resolve(ctx, tok, di.Args{"name": "default"})

	if implicit != explicit {
		t.Error("schema-defaulted args should share identity with explicit args")
	}
}

type defaultName struct{}

func (defaultName) Validate(raw di.Args) (di.Args, error) {
	if _, ok := raw["name"]; !ok {
		return di.Args{"name": "default"}, nil
	}
	return raw, nil
}

// TestRetryAfterFactoryFailure 测试构造失败后重试：失败不缓存
func TestRetryAfterFactoryFailure(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.flaky")

	var attempts atomic.Int32
	c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		if attempts.Add(1) == 1 {
			return nil, fmt.Errorf("transient failure")
		}
		return &Counter{ID: 2}, nil
	})

	ctx := context.Background()
	_, err := c.Resolve(ctx, tok)
	var ie *di.InitializationError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InitializationError, got %v", err)
	}

	v, err := c.Resolve(ctx, tok)
	if err != nil {
		t.Fatalf("retry should succeed, got %v", err)
	}
	if v.(*Counter).ID != 2 {
		t.Error("retry should produce a fresh instance")
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 factory attempts, got %d", attempts.Load())
	}
}

// TestInitHookFailure 测试 Init 钩子失败等同于构造失败
func TestInitHookFailure(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.badinit")
	c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &failingInit{}, nil
	})

	_, err := c.Resolve(context.Background(), tok)
	var ie *di.InitializationError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InitializationError from Init hook, got %v", err)
	}
}

type failingInit struct{}

func (f *failingInit) Init(context.Context) error { return fmt.Errorf("init boom") }

// TestTransientScope 测试瞬态作用域：每次解析新实例
func TestTransientScope(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.transient")

	var built atomic.Int32
	c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &Counter{ID: int(built.Add(1))}, nil
	}, di.WithTransient())

	ctx := context.Background()
	first, _ := c.Resolve(ctx, tok)
	second, _ := c.Resolve(ctx, tok)

	if first == second {
		t.Error("transient resolutions must not share instances")
	}
	if built.Load() != 2 {
		t.Errorf("expected 2 constructions, got %d", built.Load())
	}
}

// TestResolveAs 测试泛型解析辅助
func TestResolveAs(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.typed")
	c.RegisterValue(tok, &Database{Name: "primary"})

	db, err := di.ResolveAs[*Database](context.Background(), c, tok)
	if err != nil {
		t.Fatalf("ResolveAs failed: %v", err)
	}
	if db.Name != "primary" {
		t.Errorf("unexpected value: %+v", db)
	}

	_, err = di.ResolveAs[*Counter](context.Background(), c, tok)
	if err == nil {
		t.Error("ResolveAs with wrong type should fail")
	}
}

// TestBoundToken 测试绑定令牌：参数在绑定时固定
func TestBoundToken(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.bound")
	c.Register(tok, func(ctx context.Context, _ *di.Container, args di.Args) (any, error) {
		return &Database{Name: args["name"].(string)}, nil
	})

	bound := tok.Bind(di.Args{"name": "replica"})
	ctx := context.Background()

	viaBound, err := c.Resolve(ctx, bound)
	if err != nil {
		t.Fatalf("bound resolve failed: %v", err)
	}
	viaArgs, _ := c.Resolve(ctx, tok, di.Args{"name": "replica"})

	if viaBound != viaArgs {
		t.Error("bound token should share identity with equivalent explicit args")
	}
}

// TestLazyToken 测试延迟令牌：参数工厂只执行一次
func TestLazyToken(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.lazy")
	c.Register(tok, func(ctx context.Context, _ *di.Container, args di.Args) (any, error) {
		return &Database{Name: args["name"].(string)}, nil
	})

	var calls atomic.Int32
	lazy := tok.BindLazy(func(ctx context.Context) (di.Args, error) {
		calls.Add(1)
		return di.Args{"name": "lazy"}, nil
	})

	ctx := context.Background()
	first, _ := c.Resolve(ctx, lazy)
	second, _ := c.Resolve(ctx, lazy)

	if first != second {
		t.Error("lazy token resolutions should share the instance")
	}
	if calls.Load() != 1 {
		t.Errorf("lazy args factory should run once, ran %d times", calls.Load())
	}
}

// rawRef 实现 TokenProvider 的原始引用
type rawRef struct{ tok *di.Token }

func (r rawRef) ProvideToken() *di.Token { return r.tok }

// TestTokenProvider 测试原始可构造引用
func TestTokenProvider(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.provider")
	c.RegisterValue(tok, &Counter{ID: 9})

	v, err := c.Resolve(context.Background(), rawRef{tok: tok})
	if err != nil {
		t.Fatalf("Resolve via TokenProvider failed: %v", err)
	}
	if v.(*Counter).ID != 9 {
		t.Errorf("unexpected instance: %+v", v)
	}

	// 不支持的引用类型报错
	if _, err := c.Resolve(context.Background(), 42); err == nil {
		t.Error("unsupported reference type should fail")
	}
}

// TestPriorityOverride 测试优先级覆盖：严格最高者生效
func TestPriorityOverride(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.priority")

	c.RegisterValue(tok, &Database{Name: "production"})
	c.RegisterValue(tok, &Database{Name: "test-override"}, di.WithPriority(10))

	v, err := c.Resolve(context.Background(), tok)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if v.(*Database).Name != "test-override" {
		t.Errorf("highest priority registration should win, got %s", v.(*Database).Name)
	}
}

// TestPriorityConflict 测试并列最高优先级直接报错
func TestPriorityConflict(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("test.conflict")

	c.RegisterValue(tok, &Database{Name: "a"}, di.WithPriority(5))
	c.RegisterValue(tok, &Database{Name: "b"}, di.WithPriority(5))

	_, err := c.Resolve(context.Background(), tok)
	var pc *di.PriorityConflictError
	if !errors.As(err, &pc) {
		t.Fatalf("expected PriorityConflictError, got %v", err)
	}
	if pc.Count != 2 || pc.Priority != 5 {
		t.Errorf("unexpected conflict details: %+v", pc)
	}
}
