package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-users/internal/domain"
	"go-gin-gorm-users/internal/feature/user"
	httpez "go-gin-gorm-users/internal/transport/http/ez"
)

// MountAdmin 管理端接口；分组已走 AuthJWT("admin")
func (h *UserHandler) MountAdmin(g *gin.RouterGroup) {
	ez := httpez.New(g, h.v)

	// --- GET /admin/v1/users/lookup?email=|username=  精确查找 ---
	httpez.RegisterAction(ez, httpez.Action[user.LookupQuery, UserView]{
		Method: http.MethodGet,
		Path:   "/users/lookup",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *user.LookupQuery) (UserView, error) {
			var (
				u   *domain.User
				err error
			)
			if in.Email != "" {
				u, err = h.svc.GetUserByEmail(c.Request.Context(), in.Email)
			} else {
				u, err = h.svc.GetUserByUsername(c.Request.Context(), in.Username)
			}
			if err != nil {
				return UserView{}, err
			}
			return ToView(u), nil
		},
	})
}
