package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-users/internal/core/apperr"
	"go-gin-gorm-users/internal/core/auth"
	"go-gin-gorm-users/internal/core/validate"
	"go-gin-gorm-users/internal/domain"
	"go-gin-gorm-users/internal/feature/user"
	httpez "go-gin-gorm-users/internal/transport/http/ez"
	mdw "go-gin-gorm-users/internal/transport/http/middleware"
)

// UserService handler 依赖的业务接口
type UserService interface {
	CreateUser(ctx context.Context, in user.CreateUserInput) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, in user.UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error)
}

// UserView 对外输出的用户，不含密码哈希
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToView(u *domain.User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type LoginView struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type UserHandler struct {
	svc         UserService
	jwt         *auth.JWTer
	v           *validate.Validator
	adminEmails []string
}

func NewUserHandler(svc UserService, jwter *auth.JWTer, v *validate.Validator, adminEmails []string) *UserHandler {
	return &UserHandler{svc: svc, jwt: jwter, v: v, adminEmails: adminEmails}
}

func (h *UserHandler) Priority() int { return 10 }

// MountAPI 挂载 /users 系列接口
func (h *UserHandler) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g, h.v)

	httpez.RegisterAction(ez, httpez.Action[user.CreateUserInput, UserView]{
		Method:  http.MethodPost,
		Path:    "/users",
		Binder:  httpez.BindJSON,
		Status:  http.StatusCreated,
		Message: "user created",
		Handler: func(c *gin.Context, in *user.CreateUserInput) (UserView, error) {
			u, err := h.svc.CreateUser(c.Request.Context(), *in)
			if err != nil {
				return UserView{}, err
			}
			return ToView(u), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[user.LoginInput, LoginView]{
		Method: http.MethodPost,
		Path:   "/users/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *user.LoginInput) (LoginView, error) {
			u, err := h.svc.AuthenticateUser(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return LoginView{}, err
			}
			tok, err := h.jwt.Issue(u.ID, u.Email, auth.RoleFor(u.Email, h.adminEmails))
			if err != nil {
				return LoginView{}, apperr.Internal("failed to issue token", err)
			}
			return LoginView{Token: tok, User: ToView(u)}, nil
		},
	})

	authed := ez.Group("", mdw.AuthJWT(h.jwt, ""))
	httpez.RegisterAction(authed, httpez.Action[struct{}, UserView]{
		Method: http.MethodGet,
		Path:   "/users/me",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (UserView, error) {
			return h.getByID(c, c.GetString(mdw.KeyUserID))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, UserView]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (UserView, error) {
			return h.getByID(c, c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[user.UpdateUserInput, UserView]{
		Method:  http.MethodPut,
		Path:    "/users/:id",
		Binder:  httpez.BindJSON,
		Message: "user updated",
		Handler: func(c *gin.Context, in *user.UpdateUserInput) (UserView, error) {
			u, err := h.svc.UpdateUser(c.Request.Context(), c.Param("id"), *in)
			if err != nil {
				return UserView{}, err
			}
			return ToView(u), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, any]{
		Method:  http.MethodDelete,
		Path:    "/users/:id",
		Binder:  httpez.BindNone,
		Message: "user deleted",
		Handler: func(c *gin.Context, _ *struct{}) (any, error) {
			return nil, h.svc.DeleteUser(c.Request.Context(), c.Param("id"))
		},
	})
}

func (h *UserHandler) getByID(c *gin.Context, id string) (UserView, error) {
	u, err := h.svc.GetUserByID(c.Request.Context(), id)
	if err != nil {
		return UserView{}, err
	}
	return ToView(u), nil
}
