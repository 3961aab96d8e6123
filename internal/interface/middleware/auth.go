package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/travel-diaries/pkg/helpers"
	"github.com/oksasatya/travel-diaries/pkg/response"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
)

// Auth validates the bearer token on the Authorization header and sets
// userID and userRole in the Gin context. Verification is stateless; the
// token alone proves identity until it expires.
func Auth(tokens *helpers.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			response.Abort(c, http.StatusUnauthorized, "missing bearer token", nil)
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, helpers.ErrTokenExpired) {
				msg = "token expired"
			}
			response.Abort(c, http.StatusUnauthorized, msg, nil)
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects any authenticated caller whose role differs from
// role. It must run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxUserRole) != role {
			response.Abort(c, http.StatusForbidden, "insufficient role", nil)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
