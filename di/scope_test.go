package di_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/navios-org/navios-sub005/di"
)

// Session 测试用请求级服务
type Session struct {
	Request string
}

// TestRequestScopeIsolation 测试请求作用域隔离：两个请求各持有自己的实例
func TestRequestScopeIsolation(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("scope.session")

	c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		rc := di.RequestFrom(ctx)
		if rc == nil {
			t.Error("request-scoped factory should see the active request")
			return &Session{}, nil
		}
		return &Session{Request: rc.ID()}, nil
	}, di.WithRequestScope())

	ctx := context.Background()
	r1, _ := c.BeginRequest("req-1")
	r2, _ := c.BeginRequest("req-2")

	s1, err := r1.Resolve(ctx, tok)
	if err != nil {
		t.Fatalf("resolve in req-1 failed: %v", err)
	}
	s2, err := r2.Resolve(ctx, tok)
	if err != nil {
		t.Fatalf("resolve in req-2 failed: %v", err)
	}

	if s1 == s2 {
		t.Error("each request must hold its own instance")
	}
	if s1.(*Session).Request != "req-1" || s2.(*Session).Request != "req-2" {
		t.Errorf("instances bound to wrong requests: %v / %v", s1, s2)
	}

	// 同一请求内命中同一实例
	again, _ := r1.Resolve(ctx, tok)
	if again != s1 {
		t.Error("repeated resolution within one request should hit the cache")
	}

	c.Shutdown(ctx)
}

// TestScopeMismatch 测试无活动请求时解析请求作用域服务
func TestScopeMismatch(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("scope.orphan")
	c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &Session{}, nil
	}, di.WithRequestScope())

	_, err := c.Resolve(context.Background(), tok)
	var sm *di.ScopeMismatchError
	if !errors.As(err, &sm) {
		t.Fatalf("expected ScopeMismatchError, got %v", err)
	}
}

// TestEndRequestDestroysOnlyRequestInstances 测试 EndRequest 只销毁本请求的实例
func TestEndRequestDestroysOnlyRequestInstances(t *testing.T) {
	c := di.NewContainer()
	tokS := di.NewToken("scope.shared")
	tokR := di.NewToken("scope.perreq")

	var singletonDisposed, requestDisposed atomic.Int32
	c.Register(tokS, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &disposableService{name: "shared", disposed: &singletonDisposed}, nil
	})
	c.Register(tokR, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &disposableService{name: "perreq", disposed: &requestDisposed}, nil
	}, di.WithRequestScope())

	ctx := context.Background()
	rc, _ := c.BeginRequest("req-x")

	c.Resolve(ctx, tokS)
	rc.Resolve(ctx, tokR)

	if err := c.EndRequest(ctx, "req-x"); err != nil {
		t.Fatalf("EndRequest failed: %v", err)
	}

	if requestDisposed.Load() != 1 {
		t.Errorf("request-scoped instance should be disposed, got %d", requestDisposed.Load())
	}
	if singletonDisposed.Load() != 0 {
		t.Error("singleton must survive EndRequest")
	}

	// 结束后同名请求可以重新开启
	if _, err := c.BeginRequest("req-x"); err != nil {
		t.Fatalf("request id should be reusable after EndRequest: %v", err)
	}
}

// TestDuplicateRequestID 测试重复的请求标识
func TestDuplicateRequestID(t *testing.T) {
	c := di.NewContainer()
	rc, err := c.BeginRequest("dup")
	if err != nil {
		t.Fatalf("first BeginRequest failed: %v", err)
	}
	if _, err := c.BeginRequest("dup"); err == nil {
		t.Error("duplicate request id should be rejected")
	}

	if got, ok := c.Request("dup"); !ok || got != rc {
		t.Error("Request should return the active context")
	}
	if _, err := c.BeginRequest(""); err == nil {
		t.Error("empty request id should be rejected")
	}
}

// TestScopePromotion 测试作用域提升：
// 单例消费者依赖请求作用域服务时，消费者被提升为请求作用域
func TestScopePromotion(t *testing.T) {
	c := di.NewContainer()
	dep := di.NewToken("promote.dep")
	consumer := di.NewToken("promote.consumer")

	var consumerBuilds atomic.Int32
	c.Register(dep, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		rc := di.RequestFrom(ctx)
		return &Session{Request: rc.ID()}, nil
	}, di.WithRequestScope())

	c.Register(consumer, func(ctx context.Context, cc *di.Container, _ di.Args) (any, error) {
		s, err := cc.Resolve(ctx, dep)
		if err != nil {
			return nil, err
		}
		consumerBuilds.Add(1)
		return &struct{ S *Session }{S: s.(*Session)}, nil
	})

	ctx := context.Background()
	r1, _ := c.BeginRequest("p-1")
	r2, _ := c.BeginRequest("p-2")

	c1, err := r1.Resolve(ctx, consumer)
	if err != nil {
		t.Fatalf("resolve consumer in p-1 failed: %v", err)
	}
	c2, err := r2.Resolve(ctx, consumer)
	if err != nil {
		t.Fatalf("resolve consumer in p-2 failed: %v", err)
	}

	// 提升后消费者跟随请求：两个请求得到不同实例
	if c1 == c2 {
		t.Fatal("promoted consumer must be rebuilt per request")
	}
	if consumerBuilds.Load() != 2 {
		t.Errorf("expected 2 consumer constructions, got %d", consumerBuilds.Load())
	}

	// 各自拿到本请求的依赖
	s1 := c1.(*struct{ S *Session }).S
	s2 := c2.(*struct{ S *Session }).S
	if s1.Request != "p-1" || s2.Request != "p-2" {
		t.Errorf("promoted consumers should see their own request's dependency: %q / %q",
			s1.Request, s2.Request)
	}

	// 结束 p-1 只销毁 p-1 的实例，p-2 的消费者照常可用
	if err := c.EndRequest(ctx, "p-1"); err != nil {
		t.Fatalf("EndRequest failed: %v", err)
	}
	again, err := r2.Resolve(ctx, consumer)
	if err != nil {
		t.Fatalf("resolve in surviving request failed: %v", err)
	}
	if again != c2 {
		t.Error("surviving request should keep its promoted instance")
	}

	c.Shutdown(ctx)
}

// TestRequestMetadataAndPriority 测试请求元数据与优先级
func TestRequestMetadataAndPriority(t *testing.T) {
	c := di.NewContainer()
	rc, err := c.BeginRequest("meta",
		di.WithRequestPriority(7),
		di.WithRequestMetadata(map[string]any{"tenant": "acme"}))
	if err != nil {
		t.Fatalf("BeginRequest failed: %v", err)
	}

	if rc.Priority() != 7 {
		t.Errorf("unexpected priority: %d", rc.Priority())
	}
	if v, ok := rc.Metadata("tenant"); !ok || v != "acme" {
		t.Errorf("unexpected metadata: %v %v", v, ok)
	}

	rc.SetMetadata("trace", "abc")
	if v, _ := rc.Metadata("trace"); v != "abc" {
		t.Error("SetMetadata should be visible to Metadata")
	}
}

// TestStrictDrainRejectsResolve 测试严格排空模式
func TestStrictDrainRejectsResolve(t *testing.T) {
	c := di.NewContainer(di.WithStrictDrain())
	tok := di.NewToken("scope.drainreject")

	block := make(chan struct{})
	c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &slowDisposer{block: block}, nil
	}, di.WithRequestScope())

	ctx := context.Background()
	rc, _ := c.BeginRequest("draining")
	if _, err := rc.Resolve(ctx, tok); err != nil {
		t.Fatalf("initial resolve failed: %v", err)
	}

	ended := make(chan struct{})
	go func() {
		c.EndRequest(ctx, "draining")
		close(ended)
	}()

	// 排空挂在 slowDisposer 上，期间的新解析被拒绝
	var rejected bool
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := rc.Resolve(ctx, tok); err != nil {
			var ide *di.InstanceDestroyingError
			if !errors.As(err, &ide) {
				rejected = true
			}
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	close(block)
	<-ended

	if !rejected {
		t.Error("strict drain should reject resolutions while the request drains")
	}
}

// TestContextBinding 测试 rc.Context 绑定后普通 Resolve 也能找到请求
func TestContextBinding(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken("scope.bound")
	c.Register(tok, func(ctx context.Context, _ *di.Container, _ di.Args) (any, error) {
		return &Session{Request: di.RequestFrom(ctx).ID()}, nil
	}, di.WithRequestScope())

	rc, _ := c.BeginRequest("ctx-req")
	ctx := rc.Context(context.Background())

	v, err := c.Resolve(ctx, tok)
	if err != nil {
		t.Fatalf("Resolve via bound context failed: %v", err)
	}
	if v.(*Session).Request != "ctx-req" {
		t.Errorf("unexpected request binding: %+v", v)
	}

	c.Shutdown(context.Background())
}
