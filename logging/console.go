package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ConsoleLoggerOptions 控制台日志配置
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	Output           io.Writer
}

// consoleProvider 控制台日志提供者
type consoleProvider struct {
	opts         ConsoleLoggerOptions
	minimumLevel LogLevel
	mu           sync.Mutex
}

// NewConsoleLoggerProvider 创建控制台日志提供者
func NewConsoleLoggerProvider(opts ConsoleLoggerOptions) LoggerProvider {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.TimestampFormat == "" {
		opts.TimestampFormat = "2006-01-02 15:04:05"
	}
	return &consoleProvider{opts: opts, minimumLevel: LogLevelInfo}
}

func (p *consoleProvider) CreateLogger(category string) Logger {
	return &consoleLogger{provider: p, category: category}
}

func (p *consoleProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}

func (p *consoleProvider) write(level LogLevel, category string, msg string, fields []Field) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if level < p.minimumLevel {
		return
	}

	var b strings.Builder
	if p.opts.IncludeTimestamp {
		b.WriteString(time.Now().Format(p.opts.TimestampFormat))
		b.WriteByte(' ')
	}
	b.WriteString(level.String())
	if category != "" {
		b.WriteString(" [")
		b.WriteString(category)
		b.WriteString("]")
	}
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	b.WriteByte('\n')

	io.WriteString(p.opts.Output, b.String())
}

// consoleLogger 控制台日志记录器
type consoleLogger struct {
	provider *consoleProvider
	category string
	fields   []Field
}

func (l *consoleLogger) Trace(msg string, fields ...Field) { l.Log(LogLevelTrace, msg, fields...) }
func (l *consoleLogger) Debug(msg string, fields ...Field) { l.Log(LogLevelDebug, msg, fields...) }
func (l *consoleLogger) Info(msg string, fields ...Field)  { l.Log(LogLevelInfo, msg, fields...) }
func (l *consoleLogger) Warn(msg string, fields ...Field)  { l.Log(LogLevelWarn, msg, fields...) }
func (l *consoleLogger) Error(msg string, fields ...Field) { l.Log(LogLevelError, msg, fields...) }
func (l *consoleLogger) Fatal(msg string, fields ...Field) { l.Log(LogLevelFatal, msg, fields...) }

func (l *consoleLogger) Log(level LogLevel, msg string, fields ...Field) {
	if len(l.fields) > 0 {
		merged := make([]Field, 0, len(l.fields)+len(fields))
		merged = append(merged, l.fields...)
		merged = append(merged, fields...)
		fields = merged
	}
	l.provider.write(level, l.category, msg, fields)
}

func (l *consoleLogger) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &consoleLogger{provider: l.provider, category: l.category, fields: merged}
}

func (l *consoleLogger) WithCategory(category string) Logger {
	return &consoleLogger{provider: l.provider, category: category, fields: l.fields}
}
