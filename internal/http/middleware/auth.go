// README: Auth middleware; verifies the Firebase ID token and forwards it to the ride authority.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ridebook/internal/backend"
	"ridebook/internal/infra"
)

const callerUIDKey = "caller_uid"

// Auth rejects requests without a valid bearer token. The token is attached
// to the request context so backend calls carry the caller's identity.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		if err != nil || token == nil || token.UID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(callerUIDKey, token.UID)
		c.Request = c.Request.WithContext(backend.WithToken(c.Request.Context(), raw))
		c.Next()
	}
}

// CallerUID returns the verified uid, or "" outside Auth.
func CallerUID(c *gin.Context) string {
	return c.GetString(callerUIDKey)
}
