package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"modmarket/pkg/utils"
)

const (
	// AuthorizationHeader authorization header name
	AuthorizationHeader = "Authorization"
	// BearerPrefix bearer token prefix
	BearerPrefix = "Bearer "
	// UserKey authenticated user in the gin context
	UserKey = "auth_user"
	// TokenKey raw bearer token in the gin context
	TokenKey = "auth_token"
)

// UserInfo authenticated user attached to the request context
type UserInfo struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// TokenValidator validates a bearer token and resolves its user
type TokenValidator func(ctx context.Context, token string) (*UserInfo, error)

// Auth authentication middleware
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.Error(c, utils.CodeUnauthorized, "Missing or malformed authorization header")
			c.Abort()
			return
		}

		user, err := validator(c.Request.Context(), token)
		if err != nil {
			utils.Error(c, utils.CodeUnauthorized, "Invalid token")
			c.Abort()
			return
		}

		c.Set(UserKey, user)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// RequireAdmin rejects non-admin users; must run after Auth
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok || !user.IsAdmin {
			utils.Error(c, utils.CodeForbidden, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" || !strings.HasPrefix(authHeader, BearerPrefix) {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, BearerPrefix)
	return token, token != ""
}

// GetUser reads the authenticated user from the gin context
func GetUser(c *gin.Context) (*UserInfo, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*UserInfo)
	return user, ok
}

// MustGetUser reads the authenticated user, panicking when Auth did not run
func MustGetUser(c *gin.Context) *UserInfo {
	user, ok := GetUser(c)
	if !ok {
		panic("user not found in context")
	}
	return user
}

// GetToken reads the raw bearer token from the gin context
func GetToken(c *gin.Context) (string, bool) {
	v, exists := c.Get(TokenKey)
	if !exists {
		return "", false
	}
	token, ok := v.(string)
	return token, ok
}
