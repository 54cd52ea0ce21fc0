package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"payment-links.backend/pkg/logger"
)

// maxWebhookMemory caps multipart bodies kept in memory while parsing.
const maxWebhookMemory = 1 << 20

type webhookProcessor interface {
	HandleWebhook(ctx context.Context, form url.Values) string
}

// PayUWebhookHandler receives PayU server to server payment notifications
type PayUWebhookHandler struct {
	processor webhookProcessor
}

// NewPayUWebhookHandler creates a new webhook handler
func NewPayUWebhookHandler(processor webhookProcessor) *PayUWebhookHandler {
	return &PayUWebhookHandler{processor: processor}
}

// HandleWebhook accepts a form encoded notification and always answers 200 OK
// so PayU stops retrying; processing problems are logged, not returned.
// POST /payu/webhook
func (h *PayUWebhookHandler) HandleWebhook(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		c.Data(http.StatusMethodNotAllowed, "text/plain; charset=utf-8", []byte("Method Not Allowed"))
		return
	}

	ctx := c.Request.Context()
	err := c.Request.ParseMultipartForm(maxWebhookMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		logger.Warn(ctx, "Failed to parse PayU webhook body", zap.Error(err))
	}

	form := c.Request.PostForm
	if form == nil {
		form = url.Values{}
	}
	outcome := h.processor.HandleWebhook(ctx, form)
	logger.Debug(ctx, "PayU webhook handled", zap.String("outcome", outcome))

	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte("OK"))
}
