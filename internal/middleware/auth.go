package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mepiyou/myfirstfront/internal/auth"
)

// RequireToken guards the admin routes: without a stored bearer token
// the shell refuses the action locally, the way the original dashboard
// bounced to the login page. Whether the token is still accepted is the
// remote API's call.
func RequireToken(tokens *auth.TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := tokens.Load(); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
			return
		}
		c.Next()
	}
}
