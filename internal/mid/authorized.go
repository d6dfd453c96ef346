package mid

import (
	"net/http"

	"github.com/facilops/fixdesk/internal/auth"
	"github.com/gin-gonic/gin"
)

func Authorized(a *auth.Auth, roles map[string]struct{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, ok := c.Get("claims")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": http.StatusText(http.StatusUnauthorized)})
			c.Abort()
			return
		}

		claims, ok := val.(auth.Claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": http.StatusText(http.StatusUnauthorized)})
			c.Abort()
			return
		}

		if err := a.Authorized(claims, roles); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"message": http.StatusText(http.StatusForbidden)})
			c.Abort()
			return
		}

		c.Next()
	}
}
