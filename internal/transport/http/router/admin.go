package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-users/internal/core/auth"
	mdw "go-gin-gorm-users/internal/transport/http/middleware"
)

// NewAdminEngine 管理端 v1（统一要求 admin 角色）
func NewAdminEngine(l *zap.Logger, o Options, jwter *auth.JWTer, reg *Registry) *gin.Engine {
	if o.Name == "" {
		o.Name = "admin"
	}
	r := newEngine(l, o)
	admin := r.Group("/admin/v1", mdw.AuthJWT(jwter, auth.RoleAdmin))
	reg.MountAdmin(admin)
	return r
}
