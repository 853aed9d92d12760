package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Vite dev servers the bundled frontend runs on
var defaultOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// CORS allows the SPA frontend origins plus any configured extras
// (comma-separated). An empty extra list means dev origins only.
func CORS(extraOrigins string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(defaultOrigins))
	for _, o := range defaultOrigins {
		allowed[o] = true
	}
	for _, o := range strings.Split(extraOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
