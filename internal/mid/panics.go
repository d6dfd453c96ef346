package mid

import (
	"net/http"
	"runtime/debug"

	"github.com/facilops/fixdesk/internal/metrics"
	"github.com/facilops/fixdesk/pkg/logger"
	"github.com/gin-gonic/gin"
)

func Panic(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				if val, ok := c.Get("metrics"); ok {
					if m, ok := val.(*metrics.Metrics); ok {
						m.AddPanic()
					}
				}

				log.Error(c.Request.Context(), "PANIC", "recovered", rec, "stack", string(stack))
				c.JSON(http.StatusInternalServerError, gin.H{"message": http.StatusText(http.StatusInternalServerError)})
				c.Abort()
				return
			}
		}()

		c.Next()
	}
}
