package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

var (
	corsAllowHeaders  = strings.Join([]string{"Content-Type", OwnerHeader, requestIDHeader, "X-Requested-With"}, ", ")
	corsExposeHeaders = strings.Join([]string{requestIDHeader, "Content-Disposition", "Retry-After"}, ", ")
)

// CORS 跨域中间件
// 不使用 Cookie，故不下发 Allow-Credentials；配置 "*" 时放行任意来源
func CORS(allowOrigins []string) gin.HandlerFunc {
	origins := lo.SliceToMap(allowOrigins, func(o string) (string, struct{}) {
		return strings.TrimRight(o, "/"), struct{}{}
	})
	_, wildcard := origins["*"]

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		_, allowed := origins[origin]

		if origin != "" && (allowed || wildcard) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Expose-Headers", corsExposeHeaders)
			c.Header("Access-Control-Max-Age", "86400")
			c.Writer.Header().Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
