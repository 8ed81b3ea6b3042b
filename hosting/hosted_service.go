package hosting

import (
	"context"
	"fmt"
	"sync"

	"github.com/navios-org/navios-sub005/logging"
)

// HostedService 托管服务接口
// 框架在独立的 goroutine 中调用 Start；Start 应阻塞执行，
// 直到 context 被取消或发生错误。Stop 用于额外的清理工作。
type HostedService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Manager 托管服务管理器
type Manager struct {
	services []HostedService
	logger   logging.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

// NewManager 创建托管服务管理器
func NewManager(logger logging.Logger) *Manager {
	return &Manager{
		services: make([]HostedService, 0),
		logger:   logger,
	}
}

// Add 添加托管服务
func (m *Manager) Add(service HostedService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, service)
}

// StartAll 并发启动所有托管服务
// 返回的通道汇集启动期间的非取消错误
func (m *Manager) StartAll(ctx context.Context) <-chan error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errCh := make(chan error, len(m.services))
	m.logger.Info(fmt.Sprintf("Starting %d hosted services", len(m.services)))

	for i, service := range m.services {
		m.wg.Add(1)
		go func(index int, svc HostedService) {
			defer m.wg.Done()

			if err := svc.Start(ctx); err != nil {
				if err == context.Canceled || err == context.DeadlineExceeded {
					m.logger.Debug(fmt.Sprintf("Hosted service %d stopped (context done)", index+1))
					return
				}
				m.logger.Error(fmt.Sprintf("Hosted service %d error", index+1),
					logging.Field{Key: "error", Value: err.Error()})
				select {
				case errCh <- err:
				default:
				}
			}
		}(i, service)
	}

	return errCh
}

// StopAll 反向并发停止所有托管服务
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var wg sync.WaitGroup
	for i := len(m.services) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(idx int, svc HostedService) {
			defer wg.Done()
			if err := svc.Stop(ctx); err != nil {
				m.logger.Error(fmt.Sprintf("Failed to stop hosted service %d", idx+1),
					logging.Field{Key: "error", Value: err.Error()})
			}
		}(i, m.services[i])
	}
	wg.Wait()

	m.logger.Info("All hosted services stopped")
	return nil
}

// Wait 等待所有服务退出
func (m *Manager) Wait() {
	m.wg.Wait()
}
