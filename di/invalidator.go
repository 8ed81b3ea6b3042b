package di

import (
	"context"
	"sync"

	"github.com/navios-org/navios-sub005/logging"
)

// invalidateHolder 按持有者当前身份/存储失效
// 作用域提升后身份会变，所以在触发时刻才取快照
func (c *Container) invalidateHolder(ctx context.Context, h *instanceHolder) error {
	return c.invalidateName(ctx, h.currentName(), h.currentHome())
}

// invalidateName 优雅下线一个实例
//
// 分支语义：
//   - 不存在        no-op（幂等）
//   - Destroying    等待已有的销毁完成（并发失效去重）
//   - Creating      先等创建落定，再继续销毁
//   - Created       执行销毁
//   - Error         持有者已在移除路径上，无事可做
func (c *Container) invalidateName(ctx context.Context, name string, home *storage) error {
	for {
		h := home.get(name)
		if h == nil {
			return nil
		}

		h.mu.Lock()
		status := h.status
		ready := h.ready
		destroyed := h.destroyed
		h.mu.Unlock()

		switch status {
		case statusDestroying:
			select {
			case <-destroyed:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}

		case statusCreating:
			// 在飞的创建先让它完成，不中途打断
			select {
			case <-ready:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue

		case statusError:
			return nil

		case statusCreated:
			done, started := h.beginDestroy()
			if !started {
				select {
				case <-done:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return c.destroy(ctx, h)
		}
	}
}

// destroy 执行真正的销毁流程
// 监听器并发执行、全部落定后才移除持有者；单个监听器失败
// 只记日志，不阻塞兄弟监听器，也不阻塞整体下线
func (c *Container) destroy(ctx context.Context, h *instanceHolder) error {
	name := h.currentName()
	home := h.currentHome()

	listeners := h.snapshotDestroyListeners()

	var wg sync.WaitGroup
	for _, listener := range listeners {
		wg.Add(1)
		go func(l destroyListener) {
			defer wg.Done()
			if err := l(ctx); err != nil {
				c.logger.Warn("destroy listener failed",
					logging.Field{Key: "instance", Value: name},
					logging.Field{Key: "error", Value: err.Error()})
			}
		}(listener)
	}
	wg.Wait()

	home.dropDependencies(name, h.dependencies())
	home.remove(name)
	h.finishDestroy()

	// destroyed 事件触发所有依赖者各自的级联失效，
	// 不需要手动扫描依赖者递归
	c.bus.emit(ctx, name, eventDestroyed)

	c.logger.Debug("instance destroyed",
		logging.Field{Key: "instance", Value: name})

	return nil
}

// clearOptions 批量排空参数
type clearOptions struct {
	maxRounds         int
	waitForSettlement bool
}

// clearAll 排空一个存储
// 级联是事件驱动的，正常一轮足够；maxRounds 只兜住排空期间
// 仍有新持有者出现的病态情况
func (c *Container) clearAll(ctx context.Context, st *storage, opts clearOptions) error {
	if opts.maxRounds <= 0 {
		opts.maxRounds = defaultMaxTeardownRounds
	}

	if opts.waitForSettlement {
		if err := c.waitSettled(ctx, st); err != nil {
			return err
		}
	}

	for round := 0; round < opts.maxRounds; round++ {
		names := st.names()
		if len(names) == 0 {
			return nil
		}

		var wg sync.WaitGroup
		for _, name := range names {
			wg.Add(1)
			go func(n string) {
				defer wg.Done()
				if err := c.invalidateName(ctx, n, st); err != nil {
					c.logger.Warn("invalidate during clear failed",
						logging.Field{Key: "instance", Value: n},
						logging.Field{Key: "error", Value: err.Error()})
				}
			}(name)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if remaining := st.size(); remaining > 0 {
		c.logger.Warn("storage not fully drained",
			logging.Field{Key: "remaining", Value: remaining},
			logging.Field{Key: "rounds", Value: c.opts.MaxTeardownRounds})
	}
	return nil
}

// waitSettled 等待存储内所有持有者到达终态
// （没有任何 Creating/Destroying 残留）
func (c *Container) waitSettled(ctx context.Context, st *storage) error {
	for {
		settled := true
		for _, name := range st.names() {
			h := st.get(name)
			if h == nil {
				continue
			}

			h.mu.Lock()
			status := h.status
			ready := h.ready
			destroyed := h.destroyed
			h.mu.Unlock()

			switch status {
			case statusCreating:
				settled = false
				select {
				case <-ready:
				case <-ctx.Done():
					return ctx.Err()
				}
			case statusDestroying:
				settled = false
				select {
				case <-destroyed:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		if settled {
			return nil
		}
	}
}
