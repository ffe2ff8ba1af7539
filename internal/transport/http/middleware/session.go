package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"askdocs/internal/pkg/sessiontoken"
	"askdocs/internal/transport/http/response"
)

const (
	ContextSessionIDKey   = "session_id"
	ContextSessionKindKey = "session_kind"
)

// SessionToken requires a bearer session token issued at ingestion.
func SessionToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := sessiontoken.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired session token")
			c.Abort()
			return
		}

		c.Set(ContextSessionIDKey, claims.SessionID)
		c.Set(ContextSessionKindKey, claims.Kind)
		c.Next()
	}
}
