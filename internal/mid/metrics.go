package mid

import (
	"github.com/facilops/fixdesk/internal/metrics"
	"github.com/gin-gonic/gin"
)

func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("metrics", m)

		c.Next()

		numReq := m.AddRequest()
		if numReq%1000 == 0 {
			m.SetGoroutines()
		}

		if c.Writer.Status() >= 500 || len(c.Errors) > 0 {
			m.AddError()
		}
	}
}
