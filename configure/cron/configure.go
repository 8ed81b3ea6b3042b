// Package cron 把 robfig/cron 定时任务接入应用。
// 每个任务触发都运行在独立的请求作用域里，任务内解析的
// 请求作用域实例随本次执行结束级联销毁。
package cron

import (
	"fmt"

	"github.com/navios-org/navios-sub005/core"
	"github.com/navios-org/navios-sub005/logging"
)

// jobDefinition 任务定义
type jobDefinition struct {
	spec     string
	name     string
	handler  JobHandler
	priority int
}

// Builder Cron 配置构建器
type Builder struct {
	enableSeconds    bool
	enableCronLogger bool
	jobs             []jobDefinition
}

// NewBuilder 创建 Cron 构建器
func NewBuilder() *Builder {
	return &Builder{jobs: make([]jobDefinition, 0)}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.enableSeconds = true
	return b
}

// EnableCronLogger 启用 cron 库的内部调度日志
func (b *Builder) EnableCronLogger() *Builder {
	b.enableCronLogger = true
	return b
}

// AddJob 添加定时任务
// spec: cron 表达式，如 "*/5 * * * *" (每5分钟)
func (b *Builder) AddJob(spec, name string, handler JobHandler) *Builder {
	b.jobs = append(b.jobs, jobDefinition{spec: spec, name: name, handler: handler})
	return b
}

// AddJobWithPriority 添加带请求优先级的定时任务
// 优先级写入任务请求作用域，供解析期间的调度参考
func (b *Builder) AddJobWithPriority(spec, name string, priority int, handler JobHandler) *Builder {
	b.jobs = append(b.jobs, jobDefinition{spec: spec, name: name, handler: handler, priority: priority})
	return b
}

// Configure 返回 Cron 配置器
// 使用示例: builder.Configure(cron.Configure(func(b *cron.Builder) { ... }))
func Configure(configure func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder()
		if configure != nil {
			configure(builder)
		}

		logger := ctx.GetLogger().WithCategory("cron")
		svc := newService(ctx.Container(), logger, func(o *options) {
			o.EnableSeconds = builder.enableSeconds
			o.EnableCronLogger = builder.enableCronLogger
		})

		for _, job := range builder.jobs {
			if err := svc.addJob(job.spec, job.name, job.handler, job.priority); err != nil {
				logger.Fatal(fmt.Sprintf("Failed to register cron job '%s'", job.name),
					logging.Field{Key: "error", Value: err.Error()})
			}
		}

		ctx.AddHostedService(svc)
	}
}
