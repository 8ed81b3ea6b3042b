package di

import (
	"context"
	"fmt"

	"github.com/navios-org/navios-sub005/logging"
)

// resolveFrame 解析帧：记录“当前正在构造哪个持有者”以及活动请求
// 通过 context 沿调用链显式传递，嵌套解析据此登记依赖边和等待边
type resolveFrame struct {
	holder  *instanceHolder
	request *RequestContext
}

type frameKey struct{}

func withFrame(ctx context.Context, f *resolveFrame) context.Context {
	return context.WithValue(ctx, frameKey{}, f)
}

func frameFrom(ctx context.Context) *resolveFrame {
	f, _ := ctx.Value(frameKey{}).(*resolveFrame)
	return f
}

// resolve 解析的完整慢速/快速路径
// req 为 nil 时从解析帧或 ctx 推断活动请求
func (c *Container) resolve(ctx context.Context, ref any, callArgs Args, req *RequestContext) (any, error) {
	frame := frameFrom(ctx)
	if req == nil {
		if frame != nil && frame.request != nil {
			req = frame.request
		} else {
			req = RequestFrom(ctx)
		}
	}

	tok, boundArgs, err := normalizeRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	validated, err := validateArgs(tok, mergeBoundArgs(boundArgs, callArgs))
	if err != nil {
		return nil, err
	}

	rec, err := c.registry.resolveRecord(tok.ID())
	if err != nil {
		return nil, err
	}

	// 作用域提升检查：单例消费者依赖请求作用域的服务时，
	// 必须在查找/等待依赖之前先把消费者本身迁入请求存储
	if frame != nil && req != nil && rec.Scope == ScopeRequest {
		c.scopes.checkAndPromote(frame.holder, rec.Scope, c.singletons, req)
	}

	if rec.Scope == ScopeRequest && req == nil {
		return nil, &ScopeMismatchError{TokenID: tok.ID(), Scope: rec.Scope}
	}

	if req != nil && req.draining.Load() && c.opts.RejectResolveWhileDraining {
		return nil, fmt.Errorf("di: request %q is draining, resolution rejected", req.id)
	}

	home := c.singletons
	requestID := ""
	if req != nil && (rec.Scope == ScopeRequest || rec.Scope == ScopeTransient) {
		home = req.storage
		requestID = req.id
	}

	var name string
	if rec.Scope == ScopeTransient {
		// 瞬态实例的身份带一次性后缀，永远不会命中缓存
		name = c.names.transientIdentity(tok, validated, requestID)
	} else {
		name = c.names.identity(tok, validated, requestID)
	}

	// 每个嵌套解析都计入构造中持有者的依赖集合
	if frame != nil && frame.holder != nil {
		frame.holder.addDependency(name)
	}

	// 快速路径：已有持有者，等待其就绪
	if rec.Scope != ScopeTransient {
		if existing := home.get(name); existing != nil {
			return c.waitForReady(ctx, existing, frame)
		}
	}

	// 慢速路径：单飞插入 Creating 持有者
	// 在此之前并发进来的同身份解析共享同一个 Creating 持有者
	holder := newCreatingHolder(name, tok, rec.Scope, home)
	winner, inserted := home.insertIfAbsent(holder)
	if !inserted {
		return c.waitForReady(ctx, winner, frame)
	}

	return c.construct(ctx, rec, holder, validated, frame, req)
}

// construct 调用实现并推进持有者状态机
func (c *Container) construct(ctx context.Context, rec *FactoryRecord, holder *instanceHolder, args Args, frame *resolveFrame, req *RequestContext) (any, error) {
	// 构造期间父持有者等待本身份，供循环检测使用
	if frame != nil && frame.holder != nil {
		frame.holder.addWaiting(holder.name)
		defer frame.holder.removeWaiting(holder.name)
	}

	childCtx := withFrame(ctx, &resolveFrame{holder: holder, request: req})

	instance, err := rec.Factory(childCtx, c, args)
	if err == nil && instance != nil {
		// 可选的异步构造后初始化钩子
		if ini, ok := instance.(Initializable); ok {
			err = ini.Init(childCtx)
		}
	}

	if err != nil {
		return nil, c.failHolder(holder, err)
	}

	// 销毁前钩子在创建时登记为普通销毁监听器
	if d, ok := instance.(Disposable); ok {
		holder.addDestroyListener(d.Dispose)
	}

	// 订阅每个依赖的 destroyed 事件，依赖销毁时级联失效自己；
	// 退订回调挂在自己的销毁监听器列表上
	for _, dep := range holder.dependencies() {
		unsubscribe := c.bus.on(dep, eventDestroyed, func(evCtx context.Context) error {
			return c.invalidateHolder(evCtx, holder)
		})
		holder.addDestroyListener(func(context.Context) error {
			unsubscribe()
			return nil
		})
	}

	holder.markCreated(instance)

	home := holder.currentHome()
	home.indexDependencies(holder)

	finalName := holder.currentName()
	c.bus.emit(ctx, finalName, eventCreated)

	c.logger.Debug("instance created",
		logging.Field{Key: "instance", Value: finalName},
		logging.Field{Key: "scope", Value: holder.scope.String()})

	return instance, nil
}

// failHolder 构造失败：状态置为 Error、唤醒等待者、从存储删除
// 删除保证下一次解析从头重试，失败永远不会被缓存
func (c *Container) failHolder(holder *instanceHolder, cause error) error {
	err := &InitializationError{Name: holder.currentName(), Cause: cause}
	holder.markError(err)

	home := holder.currentHome()
	name := holder.currentName()
	home.dropDependencies(name, holder.dependencies())
	home.remove(name)

	c.logger.Warn("instance creation failed",
		logging.Field{Key: "instance", Value: name},
		logging.Field{Key: "error", Value: cause.Error()})

	return err
}

// waitForReady 等待持有者到达可用状态
//
// Creating 时先登记等待边再跑循环检测，检测到环路立即报错而不挂起。
// 被唤醒后重新检查状态，覆盖醒来时已发生其它迁移的情况。
func (c *Container) waitForReady(ctx context.Context, h *instanceHolder, frame *resolveFrame) (any, error) {
	for {
		h.mu.Lock()
		switch h.status {
		case statusCreated:
			instance := h.instance
			h.mu.Unlock()
			return instance, nil

		case statusError:
			err := h.err
			h.mu.Unlock()
			return nil, err

		case statusDestroying:
			name := h.name
			h.mu.Unlock()
			// 销毁中的身份不可解析，不等待
			return nil, &InstanceDestroyingError{Name: name}

		case statusCreating:
			ready := h.ready
			name := h.name
			h.mu.Unlock()

			if frame != nil && frame.holder != nil {
				waiterName := frame.holder.currentName()
				// 先登记等待边再检测：两条调用链同时互等时
				// 至少有一条能看到完整的环
				frame.holder.addWaiting(name)
				if cerr := c.detector.detect(waiterName, name); cerr != nil {
					frame.holder.removeWaiting(name)
					return nil, cerr
				}
			}

			select {
			case <-ready:
			case <-ctx.Done():
				if frame != nil && frame.holder != nil {
					frame.holder.removeWaiting(name)
				}
				return nil, ctx.Err()
			}
			if frame != nil && frame.holder != nil {
				frame.holder.removeWaiting(name)
			}

		default:
			h.mu.Unlock()
			return nil, &UnknownError{Cause: fmt.Errorf("holder %q in unexpected status", h.currentName())}
		}
	}
}
