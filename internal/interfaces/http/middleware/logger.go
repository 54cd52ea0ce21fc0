package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"payment-links.backend/pkg/logger"
)

var redactedQueryKeys = []string{"token", "secret", "hash", "client_secret", "access_token"}

// LoggerMiddleware logs each request. Routes with an :invoice param tag the
// request context so downstream reconciliation logs carry the invoice number.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		if invoice := strings.TrimSpace(c.Param("invoice")); invoice != "" {
			c.Request = c.Request.WithContext(logger.WithInvoice(c.Request.Context(), invoice))
		}

		c.Next()

		logger.LogRequest(c.Request.Context(), logger.RequestLog{
			Method:   c.Request.Method,
			Path:     loggedPath(c.Request.URL),
			Route:    c.FullPath(),
			Status:   c.Writer.Status(),
			Latency:  time.Since(start),
			ClientIP: c.ClientIP(),
			Bytes:    c.Writer.Size(),
		})
	}
}

func loggedPath(u *url.URL) string {
	if u.RawQuery == "" {
		return u.Path
	}

	query := u.Query()
	for key := range query {
		if lo.Contains(redactedQueryKeys, strings.ToLower(key)) {
			query.Set(key, "REDACTED")
		}
	}
	return u.Path + "?" + query.Encode()
}
