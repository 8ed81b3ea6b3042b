package logging

// NewLogger 创建一个默认的控制台 Logger（便于测试使用）
func NewLogger() Logger {
	builder := NewLoggingBuilder()
	builder.AddConsole()
	factory := builder.Build()
	return factory.CreateLogger("default")
}

// nopLogger 丢弃一切输出
type nopLogger struct{}

// NewNopLogger 创建一个不输出任何内容的 Logger
// 未显式配置日志接收器的容器使用它
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Trace(string, ...Field)         {}
func (nopLogger) Debug(string, ...Field)         {}
func (nopLogger) Info(string, ...Field)          {}
func (nopLogger) Warn(string, ...Field)          {}
func (nopLogger) Error(string, ...Field)         {}
func (nopLogger) Fatal(string, ...Field)         {}
func (nopLogger) Log(LogLevel, string, ...Field) {}
func (l nopLogger) WithFields(...Field) Logger   { return l }
func (l nopLogger) WithCategory(string) Logger   { return l }
