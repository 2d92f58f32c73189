package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/storefront_api/internal/utils"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
)

type JWTMiddleware struct {
	allowQueryToken bool
}

func NewJWTMiddleware() *JWTMiddleware {
	return &JWTMiddleware{}
}

// NewStreamJWTMiddleware also accepts the token from the "token" query
// parameter, since EventSource cannot send an Authorization header.
func NewStreamJWTMiddleware() *JWTMiddleware {
	return &JWTMiddleware{allowQueryToken: true}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := m.extract(c)
		if !ok {
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

func (m *JWTMiddleware) extract(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" && m.allowQueryToken {
		if t := c.Query("token"); t != "" {
			return t, true
		}
	}
	if authHeader == "" {
		utils.Error(c, 401, "UNAUTHORIZED", "Missing authorization header")
		c.Abort()
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		utils.Error(c, 401, "UNAUTHORIZED", "Invalid authorization header")
		c.Abort()
		return "", false
	}
	return parts[1], true
}

// GetUserID returns the authenticated admin id, or 0 outside the JWT group.
func GetUserID(c *gin.Context) int64 {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}
