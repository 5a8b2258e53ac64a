package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewAPIEngine 对外 API：所有 API 模块挂在 BasePath（默认 /api）下
func NewAPIEngine(l *zap.Logger, o Options, reg *Registry) *gin.Engine {
	if o.Name == "" {
		o.Name = "api"
	}
	if o.BasePath == "" {
		o.BasePath = "/api"
	}
	r := newEngine(l, o)
	reg.MountAPI(r.Group(o.BasePath))
	return r
}
