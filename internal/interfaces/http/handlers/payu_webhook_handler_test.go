package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookProcessorStub struct {
	handleFn func(ctx context.Context, form url.Values) string
}

func (s webhookProcessorStub) HandleWebhook(ctx context.Context, form url.Values) string {
	return s.handleFn(ctx, form)
}

func newWebhookRouter(processor webhookProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Any("/payu/webhook", NewPayUWebhookHandler(processor).HandleWebhook)
	return r
}

func TestPayUWebhookHandler_FormBody(t *testing.T) {
	var got url.Values
	r := newWebhookRouter(webhookProcessorStub{handleFn: func(_ context.Context, form url.Values) string {
		got = form
		return "processed"
	}})

	body := url.Values{"txnid": {"WC42-abc123def0"}, "mihpayid": {"403993715"}, "status": {"success"}}
	req := httptest.NewRequest(http.MethodPost, "/payu/webhook", strings.NewReader(body.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "WC42-abc123def0", got.Get("txnid"))
	assert.Equal(t, "403993715", got.Get("mihpayid"))
}

func TestPayUWebhookHandler_MultipartBody(t *testing.T) {
	var got url.Values
	r := newWebhookRouter(webhookProcessorStub{handleFn: func(_ context.Context, form url.Values) string {
		got = form
		return "processed"
	}})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("txnid", "WC42-abc123def0"))
	require.NoError(t, mw.WriteField("status", "failure"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/payu/webhook", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "failure", got.Get("status"))
}

func TestPayUWebhookHandler_AlwaysOK(t *testing.T) {
	called := false
	r := newWebhookRouter(webhookProcessorStub{handleFn: func(_ context.Context, form url.Values) string {
		called = true
		assert.NotNil(t, form)
		return "error"
	}})

	req := httptest.NewRequest(http.MethodPost, "/payu/webhook", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestPayUWebhookHandler_RejectsOtherMethods(t *testing.T) {
	r := newWebhookRouter(webhookProcessorStub{handleFn: func(context.Context, url.Values) string {
		t.Fatal("should not be called")
		return ""
	}})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/payu/webhook", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, http.MethodPost, w.Header().Get("Allow"), method)
		assert.Equal(t, "Method Not Allowed", w.Body.String(), method)
	}
}
