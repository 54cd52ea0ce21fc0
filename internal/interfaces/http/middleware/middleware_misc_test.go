package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	loggerpkg "payment-links.backend/pkg/logger"
)

func TestResponseWriter_Write(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	w := responseWriter{
		ResponseWriter: c.Writer,
		body:           &bytes.Buffer{},
	}

	n, err := w.Write([]byte(`{"invoiceNumber":"WC42-1a2b"}`))
	require.NoError(t, err)
	require.Equal(t, 29, n)
	require.Equal(t, `{"invoiceNumber":"WC42-1a2b"}`, w.body.String())
	require.Equal(t, w.body.String(), rec.Body.String())
}

func requestIDRouter(t *testing.T, seen *string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) {
		id := c.GetString(RequestIDKey)
		ctxVal, _ := c.Request.Context().Value(loggerpkg.RequestIDKey).(string)
		require.Equal(t, id, ctxVal)
		*seen = id
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		reuse  bool
	}{
		{name: "missing header generates v7 id", header: ""},
		{name: "sane header is reused", header: "req-123_a.b", reuse: true},
		{name: "header with spaces is replaced", header: "req 123"},
		{name: "header with control chars is replaced", header: "req\x01"},
		{name: "over long header is replaced", header: strings.Repeat("a", maxRequestIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			r := requestIDRouter(t, &seen)

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.reuse {
				assert.Equal(t, tt.header, seen)
				return
			}
			id, err := uuid.Parse(seen)
			require.NoError(t, err)
			assert.Equal(t, uuid.Version(7), id.Version())
		})
	}
}

func TestLoggedPath(t *testing.T) {
	u, err := url.Parse("/api/v1/payment-links/status?invoice=WC42-1a2b&access_token=abc&Secret=s")
	require.NoError(t, err)

	path := loggedPath(u)
	assert.True(t, strings.HasPrefix(path, "/api/v1/payment-links/status?"))
	assert.Contains(t, path, "invoice=WC42-1a2b")
	assert.Contains(t, path, "access_token=REDACTED")
	assert.Contains(t, path, "Secret=REDACTED")
	assert.NotContains(t, path, "abc")

	plain, err := url.Parse("/payu/webhook")
	require.NoError(t, err)
	assert.Equal(t, "/payu/webhook", loggedPath(plain))
}

func TestLoggerMiddleware_TagsInvoice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	loggerpkg.Init("test")
	r := gin.New()
	r.Use(LoggerMiddleware())

	var invoice string
	r.POST("/payment-links/:invoice/refresh", func(c *gin.Context) {
		invoice, _ = c.Request.Context().Value(loggerpkg.InvoiceNumberKey).(string)
		c.String(http.StatusCreated, "created")
	})
	r.GET("/health", func(c *gin.Context) {
		_, tagged := c.Request.Context().Value(loggerpkg.InvoiceNumberKey).(string)
		assert.False(t, tagged)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payment-links/WC42-1a2b/refresh?token=x", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "created", rec.Body.String())
	assert.Equal(t, "WC42-1a2b", invoice)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
