package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medrecon/internal/domain"
	"medrecon/internal/service"
)

const (
	ContextKeySubject = "subject"
	ContextKeyClaims  = "claims"
)

// AuthMiddleware returns Gin middleware that validates bearer tokens and
// injects the caller's subject.
func AuthMiddleware(tokens service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeySubject, claims.Subject)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetSubject extracts the authenticated subject from the Gin context.
func GetSubject(c *gin.Context) (string, error) {
	val, exists := c.Get(ContextKeySubject)
	if !exists {
		return "", domain.ErrUnauthorized
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return "", domain.ErrUnauthorized
	}
	return s, nil
}
