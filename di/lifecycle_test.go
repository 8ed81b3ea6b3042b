package di_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/navios-org/navios-sub005/di"
)

// disposableService 记录销毁次序的测试服务
type disposableService struct {
	name     string
	disposed *atomic.Int32
	order    *orderLog
}

func (s *disposableService) Dispose(context.Context) error {
	s.disposed.Add(1)
	if s.order != nil {
		s.order.add(s.name)
	}
	return nil
}

type orderLog struct {
	mu    sync.Mutex
	names []string
}

func newOrderLog() *orderLog {
	return &orderLog{}
}

func (l *orderLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *orderLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

// TestInvalidateByInstance 测试按实例失效，以及失效后重解析得到新实例
func TestInvalidateByInstance(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("life.counter")

	var seq atomic.Int32
	c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &Counter{ID: int(seq.Add(1))}, nil
	})

	ctx := context.Background()
	first, _ := c.Resolve(ctx, tok)
	again, _ := c.Resolve(ctx, tok)
	if first != again {
		t.Fatal("expected cached instance before invalidation")
	}

	if err := c.Invalidate(ctx, first); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	fresh, err := c.Resolve(ctx, tok)
	if err != nil {
		t.Fatalf("Resolve after invalidation failed: %v", err)
	}
	if fresh == first {
		t.Error("invalidated identity should be rebuilt from scratch")
	}
	if fresh.(*Counter).ID != 2 {
		t.Errorf("expected second construction, got ID %d", fresh.(*Counter).ID)
	}
}

// TestInvalidateByName 测试按身份字符串失效；不存在的身份是 no-op
func TestInvalidateByName(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("life.named")

	var disposed atomic.Int32
	c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &disposableService{name: "named", disposed: &disposed}, nil
	})

	ctx := context.Background()
	c.Resolve(ctx, tok)

	if err := c.Invalidate(ctx, "life.named"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if disposed.Load() != 1 {
		t.Errorf("Dispose should run once, ran %d times", disposed.Load())
	}

	// 幂等：再次失效同一身份
	if err := c.Invalidate(ctx, "life.named"); err != nil {
		t.Fatalf("repeated Invalidate should be a no-op, got %v", err)
	}
	if disposed.Load() != 1 {
		t.Error("repeated invalidation must not dispose twice")
	}
}

// TestCascadeInvalidation 测试级联失效：A <- B <- C，失效 A 时三者全部销毁
func TestCascadeInvalidation(t *testing.T) {
	c := di.NewContainer()
	tokA := di.NewToken("cascade.a")
	tokB := di.NewToken("cascade.b")
	tokC := di.NewToken("cascade.c")

	var disposed atomic.Int32
	order := newOrderLog()

	c.Register(tokA, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &disposableService{name: "a", disposed: &disposed, order: order}, nil
	})
	c.Register(tokB, func(ctx context.Context, cc *di.Container, _ di.Args) (any, error) {
		if _, err := cc.Resolve(ctx, tokA); err != nil {
			return nil, err
		}
		return &disposableService{name: "b", disposed: &disposed, order: order}, nil
	})
	c.Register(tokC, func(ctx context.Context, cc *di.Container, _ di.Args) (any, error) {
		if _, err := cc.Resolve(ctx, tokB); err != nil {
			return nil, err
		}
		return &disposableService{name: "c", disposed: &disposed, order: order}, nil
	})

	ctx := context.Background()
	if _, err := c.Resolve(ctx, tokC); err != nil {
		t.Fatalf("Resolve chain failed: %v", err)
	}

	if err := c.Invalidate(ctx, "cascade.a"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	// 级联经由事件异步传播，等待落定
	deadline := time.Now().Add(2 * time.Second)
	for disposed.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if disposed.Load() != 3 {
		t.Fatalf("expected 3 disposals after cascading, got %d (order: %v)",
			disposed.Load(), order.snapshot())
	}

	// 级联后重解析 C 重建整条链
	fresh, err := c.Resolve(ctx, tokC)
	if err != nil {
		t.Fatalf("Resolve after cascade failed: %v", err)
	}
	if fresh.(*disposableService).name != "c" {
		t.Error("rebuilt instance should be a fresh C")
	}
}

// TestCircularDependency 测试循环依赖：A -> B -> A 报错而不是死锁
func TestCircularDependency(t *testing.T) {
	c := di.NewContainer()
	tokA := di.NewToken("cycle.a")
	tokB := di.NewToken("cycle.b")

	c.Register(tokA, func(ctx context.Context, cc *di.Container, _ di.Args) (any, error) {
		return cc.Resolve(ctx, tokB)
	})
	c.Register(tokB, func(ctx context.Context, cc *di.Container, _ di.Args) (any, error) {
		return cc.Resolve(ctx, tokA)
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.Resolve(context.Background(), tokA)
		done <- err
	}()

	select {
	case err := <-done:
		var ce *di.CircularDependencyError
		if !errors.As(err, &ce) {
			t.Fatalf("expected CircularDependencyError, got %v", err)
		}
		if len(ce.Path) < 2 {
			t.Errorf("cycle path should name the participants, got %v", ce.Path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("cycle resolution deadlocked instead of failing")
	}
}

// TestSelfDependency 测试自依赖
func TestSelfDependency(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("cycle.self")

	c.Register(tok, func(ctx context.Context, cc *di.Container, _ di.Args) (any, error) {
		return cc.Resolve(ctx, tok)
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.Resolve(context.Background(), tok)
		done <- err
	}()

	select {
	case err := <-done:
		var ce *di.CircularDependencyError
		if !errors.As(err, &ce) {
			t.Fatalf("expected CircularDependencyError for self-reference, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("self-dependency deadlocked")
	}
}

// TestShutdownDrainsEverything 测试 Shutdown 排空单例与请求存储
func TestShutdownDrainsEverything(t *testing.T) {
	c := di.NewContainer()
	tokS := di.NewToken("drain.singleton")
	tokR := di.NewToken("drain.request")

	var disposed atomic.Int32
	c.Register(tokS, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &disposableService{name: "s", disposed: &disposed}, nil
	})
	c.Register(tokR, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &disposableService{name: "r", disposed: &disposed}, nil
	}, di.WithRequestScope())

	ctx := context.Background()
	c.Resolve(ctx, tokS)

	rc, err := c.BeginRequest("req-1")
	if err != nil {
		t.Fatalf("BeginRequest failed: %v", err)
	}
	if _, err := rc.Resolve(ctx, tokR); err != nil {
		t.Fatalf("request-scoped Resolve failed: %v", err)
	}

	if err := c.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if disposed.Load() != 2 {
		t.Errorf("expected both instances disposed on shutdown, got %d", disposed.Load())
	}
}

// TestDestroyingNotResolvable 测试销毁中的身份不可解析
func TestDestroyingNotResolvable(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("drain.slow")

	blockDispose := make(chan struct{})
	c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &slowDisposer{block: blockDispose}, nil
	})

	ctx := context.Background()
	c.Resolve(ctx, tok)

	invalidated := make(chan struct{})
	go func() {
		c.Invalidate(ctx, "drain.slow")
		close(invalidated)
	}()

	// 等销毁开始
	var derr error
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, err := c.Resolve(ctx, tok)
		var ide *di.InstanceDestroyingError
		if errors.As(err, &ide) {
			derr = err
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	close(blockDispose)
	<-invalidated

	var ide *di.InstanceDestroyingError
	if !errors.As(derr, &ide) {
		t.Fatalf("expected InstanceDestroyingError during teardown, got %v", derr)
	}

	// 销毁完成后恢复可解析
	if _, err := c.Resolve(ctx, tok); err != nil {
		t.Fatalf("Resolve after teardown should rebuild, got %v", err)
	}
}

type slowDisposer struct {
	block chan struct{}
}

func (s *slowDisposer) Dispose(context.Context) error {
	<-s.block
	return nil
}
