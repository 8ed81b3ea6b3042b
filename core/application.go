package core

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/navios-org/navios-sub005/config"
	"github.com/navios-org/navios-sub005/di"
	"github.com/navios-org/navios-sub005/hosting"
	"github.com/navios-org/navios-sub005/logging"
)

// Application 应用程序接口
type Application interface {
	// Run 启动应用并阻塞，直到收到退出信号
	Run() error
	// RunAsync 启动应用，由调用方的 ctx 控制生命周期
	RunAsync(ctx context.Context) error
	// Stop 优雅关闭：停托管服务、跑清理函数、排空容器
	Stop(ctx context.Context) error
	// Services 返回 DI 容器
	Services() *di.Container
	Configuration() config.Configuration
	Logger() logging.Logger
	Environment() Environment
}

type application struct {
	ctx             *BuildContext
	hostedManager   *hosting.Manager
	shutdownTimeout time.Duration
	stopOnce        sync.Once
	cancel          context.CancelFunc
}

func (a *application) Services() *di.Container              { return a.ctx.container }
func (a *application) Configuration() config.Configuration { return a.ctx.configuration }
func (a *application) Logger() logging.Logger               { return a.ctx.logger }
func (a *application) Environment() Environment             { return a.ctx.environment }

// Run 启动应用程序并阻塞，监听 OS 退出信号
func (a *application) Run() error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.cancel = cancel

	errCh := a.start(runCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
		a.ctx.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.ctx.logger.Error("hosted service failed, shutting down",
			logging.Field{Key: "error", Value: err.Error()})
	}

	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer stopCancel()
	return a.Stop(stopCtx)
}

// RunAsync 启动应用程序，ctx 取消时关闭
func (a *application) RunAsync(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	errCh := a.start(runCtx)

	go func() {
		select {
		case <-runCtx.Done():
		case err := <-errCh:
			a.ctx.logger.Error("hosted service failed",
				logging.Field{Key: "error", Value: err.Error()})
			cancel()
		}
	}()
	return nil
}

func (a *application) start(ctx context.Context) <-chan error {
	a.ctx.mu.RLock()
	for _, svc := range a.ctx.hostedServices {
		a.hostedManager.Add(svc)
	}
	a.ctx.mu.RUnlock()

	return a.hostedManager.StartAll(ctx)
}

// Stop 优雅关闭
// 顺序：托管服务 -> 清理函数 -> 容器排空（级联销毁所有实例）
func (a *application) Stop(ctx context.Context) error {
	var stopErr error
	a.stopOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}

		if err := a.hostedManager.StopAll(ctx); err != nil {
			stopErr = err
		}

		a.ctx.mu.RLock()
		cleanups := make([]func(), 0, len(a.ctx.cleanups))
		for _, cleanup := range a.ctx.cleanups {
			cleanups = append(cleanups, cleanup)
		}
		a.ctx.mu.RUnlock()
		for _, cleanup := range cleanups {
			cleanup()
		}

		if err := a.ctx.container.Shutdown(ctx); err != nil && stopErr == nil {
			stopErr = err
		}

		a.ctx.logger.Info("application stopped")
	})
	return stopErr
}
