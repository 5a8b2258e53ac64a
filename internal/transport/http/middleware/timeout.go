package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-users/internal/core/apperr"
)

// Timeout 给 request context 设置截止时间；gorm 调用随之取消。
// handler 未写响应且已超时则返回 504。
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			abortWith(c, apperr.New(http.StatusGatewayTimeout, "request timeout"))
		}
	}
}
