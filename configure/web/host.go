package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/navios-org/navios-sub005/di"
	"github.com/navios-org/navios-sub005/logging"
)

// Host Web 主机
type Host struct {
	port      int
	engine    *gin.Engine
	server    *http.Server
	container *di.Container
	logger    logging.Logger
}

// Start 启动 Web 主机，阻塞直到 ctx 取消或监听失败
func (h *Host) Start(ctx context.Context) error {
	h.logger.Info("Starting web host",
		logging.Field{Key: "port", Value: h.port})

	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			h.logger.Error("Web host error",
				logging.Field{Key: "error", Value: err.Error()})
			return err
		}
		return nil
	case <-ctx.Done():
		// Stop 负责关闭
		return nil
	}
}

// Stop 停止 Web 主机
func (h *Host) Stop(ctx context.Context) error {
	h.logger.Info("Stopping web host")

	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error("Failed to shutdown web host gracefully",
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}

	h.logger.Info("Web host stopped")
	return nil
}
