package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-users/internal/core/apperr"
	"go-gin-gorm-users/internal/core/logger"
	resp "go-gin-gorm-users/internal/transport/http/response"
)

// ErrorHandler 唯一的错误出口：取 c.Errors 最后一个，转成失败信封。
// 5xx 记录内部原因（带 request id），客户端只看到 message。
func ErrorHandler(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		ae := apperr.From(c.Errors.Last().Err)
		if ae.Status >= 500 {
			l.Error("request failed",
				zap.String("rid", logger.RequestIDFrom(c.Request.Context())),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", ae.Status),
				zap.String("message", ae.Message),
				zap.Error(ae.Err),
			)
		}
		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(ae.Status, resp.Fail(ae))
	}
}
