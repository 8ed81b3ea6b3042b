package cron

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/navios-org/navios-sub005/di"
	"github.com/navios-org/navios-sub005/logging"
)

// JobHandler 定时任务处理函数
// 每次触发在独立的请求作用域内执行：rc 已绑定到 ctx，
// 任务里解析的请求作用域实例在本次执行结束后整体销毁。
type JobHandler func(ctx context.Context, rc *di.RequestContext) error

// service Cron 定时任务托管服务
type service struct {
	cron      *cron.Cron
	container *di.Container
	logger    logging.Logger
	mu        sync.RWMutex
	jobs      map[string]cron.EntryID
	running   atomic.Bool
}

// options Cron 服务配置选项
type options struct {
	// EnableSeconds 是否启用秒级精度（默认分钟级）
	EnableSeconds bool
	// EnableCronLogger 是否启用 cron 库的内部调度日志（默认 false）
	EnableCronLogger bool
	Logger           logging.Logger
}

func newService(container *di.Container, logger logging.Logger, configure func(*options)) *service {
	opt := &options{Logger: logger}
	if configure != nil {
		configure(opt)
	}

	cronOpts := []cron.Option{}
	if opt.EnableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(opt.Logger)))
	}
	cronOpts = append(cronOpts, cron.WithChain(
		cron.Recover(newCronLogger(opt.Logger)),
	))
	if opt.EnableSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	return &service{
		cron:      cron.New(cronOpts...),
		container: container,
		logger:    opt.Logger,
		jobs:      make(map[string]cron.EntryID),
	}
}

// addJob 添加定时任务
// 每次触发开启 "cron:<name>:<uuid>" 请求作用域，执行完毕后排空
func (s *service) addJob(spec, name string, handler JobHandler, priority int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, err := s.cron.AddFunc(spec, func() {
		s.runJob(name, handler, priority)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job '%s': %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.Info(fmt.Sprintf("Cron job '%s' registered with spec '%s'", name, spec))
	return nil
}

func (s *service) runJob(name string, handler JobHandler, priority int) {
	// 任务生命周期不跟随 Start 的 ctx：停服时 cron.Stop 会等任务跑完
	ctx := context.Background()
	requestID := fmt.Sprintf("cron:%s:%s", name, uuid.NewString())

	rc, err := s.container.BeginRequest(requestID,
		di.WithRequestPriority(priority),
		di.WithRequestMetadata(map[string]any{"job": name}))
	if err != nil {
		s.logger.Error(fmt.Sprintf("Cron job '%s' failed to open request scope", name),
			logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer func() {
		if err := s.container.EndRequest(ctx, requestID); err != nil {
			s.logger.Error(fmt.Sprintf("Cron job '%s' failed to drain request scope", name),
				logging.Field{Key: "error", Value: err.Error()})
		}
	}()

	s.logger.Debug(fmt.Sprintf("Cron job '%s' started", name),
		logging.Field{Key: "requestId", Value: requestID})

	if err := handler(rc.Context(ctx), rc); err != nil {
		s.logger.Error(fmt.Sprintf("Cron job '%s' failed", name),
			logging.Field{Key: "error", Value: err.Error()})
		return
	}

	s.logger.Debug(fmt.Sprintf("Cron job '%s' completed", name))
}

// Start 实现 HostedService
func (s *service) Start(ctx context.Context) error {
	s.mu.RLock()
	count := len(s.jobs)
	s.mu.RUnlock()

	s.running.Store(true)
	s.logger.Info(fmt.Sprintf("CronService starting with %d jobs", count))
	s.cron.Start()

	<-ctx.Done()
	return nil
}

// Stop 实现 HostedService
// 等待正在运行的任务完成，或 ctx 超时
func (s *service) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.logger.Info("CronService stopping")

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("CronService stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("CronService stop timeout, forcing shutdown")
	}
	return nil
}

// cronLogger 适配器：将框架日志接口适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err.Error()})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			key := fmt.Sprintf("%v", keysAndValues[i])
			fields = append(fields, logging.Field{Key: key, Value: keysAndValues[i+1]})
		}
	}
	return fields
}
