package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-users/internal/core/apperr"
	"go-gin-gorm-users/internal/core/auth"
)

const (
	KeyClaims = "claims"
	KeyUserID = "userId"
	KeyRole   = "role"
)

// AuthJWT 校验 Bearer token；requireRole 非空时还要求角色匹配
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			abortWith(c, apperr.Unauthorized("missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimSpace(strings.TrimPrefix(ah, "Bearer ")))
		if err != nil {
			abortWith(c, apperr.Unauthorized("invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			abortWith(c, apperr.Forbidden("forbidden"))
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyUserID, claims.UID)
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}

// ClaimsFrom 取 AuthJWT 写入的 claims
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return nil, false
	}
	cl, ok := v.(*auth.Claims)
	return cl, ok
}

func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
