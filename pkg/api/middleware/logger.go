package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger 访问日志中间件
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		marker := ""
		switch {
		case status >= 500:
			marker = "❌ "
		case status >= 400:
			marker = "⚠️ "
		}
		log.Printf("%s[HTTP] %s %s %d %v %s", marker, c.Request.Method, path, status, time.Since(start), c.ClientIP())
	}
}
