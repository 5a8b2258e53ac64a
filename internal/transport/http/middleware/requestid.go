package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-gin-gorm-users/internal/core/logger"
)

const KeyRequestID = "X-Request-ID"

// 客户端传入的 id 超长则丢弃重新生成
const maxRequestIDLen = 128

// RequestID 写响应头、gin 上下文和 request context（gorm 日志从 ctx 取）
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if rid == "" || len(rid) > maxRequestIDLen {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), rid))
		c.Next()
	}
}
