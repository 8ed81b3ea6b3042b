package web

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/navios-org/navios-sub005/di"
	"github.com/navios-org/navios-sub005/logging"
)

const scopeKey = "di.requestScope"

// RequestScope 请求作用域中间件
// 每个 HTTP 请求开启 "http:<uuid>" 请求作用域并绑定到 gin 上下文，
// 处理器内解析的请求作用域实例在响应写出后级联销毁
func RequestScope(container *di.Container, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := fmt.Sprintf("http:%s", uuid.NewString())

		rc, err := container.BeginRequest(requestID,
			di.WithRequestMetadata(map[string]any{
				"method": c.Request.Method,
				"path":   c.FullPath(),
			}))
		if err != nil {
			logger.Error("failed to open request scope",
				logging.Field{Key: "error", Value: err.Error()})
			c.AbortWithStatus(500)
			return
		}

		c.Set(scopeKey, rc)
		c.Request = c.Request.WithContext(rc.Context(c.Request.Context()))

		// 排空不跟随请求取消，避免客户端断开导致销毁半途而废
		drainCtx := context.WithoutCancel(c.Request.Context())
		defer func() {
			if err := container.EndRequest(drainCtx, requestID); err != nil {
				logger.Error("failed to drain request scope",
					logging.Field{Key: "requestId", Value: requestID},
					logging.Field{Key: "error", Value: err.Error()})
			}
		}()

		c.Next()
	}
}

// Scope 从 gin 上下文取出请求作用域
func Scope(c *gin.Context) *di.RequestContext {
	if v, exists := c.Get(scopeKey); exists {
		if rc, ok := v.(*di.RequestContext); ok {
			return rc
		}
	}
	return di.RequestFrom(c.Request.Context())
}
