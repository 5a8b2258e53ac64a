package middleware

import (
	"fmt"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-users/internal/core/apperr"
)

// Recovery panic 由 ginzap 记录堆栈，再作为 500 交给 ErrorHandler
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(l, true, func(c *gin.Context, rec any) {
		_ = c.Error(apperr.Internal("internal server error", fmt.Errorf("panic: %v", rec)))
		c.Abort()
	})
}
