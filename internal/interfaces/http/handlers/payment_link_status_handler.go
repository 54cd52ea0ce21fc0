package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/internal/interfaces/http/response"
)

type statusPoller interface {
	Poll(ctx context.Context, invoice string) (*entities.PaymentLinkStatusView, error)
}

// PaymentLinkStatusHandler serves the storefront "check payment status" call
type PaymentLinkStatusHandler struct {
	poller statusPoller
}

// NewPaymentLinkStatusHandler creates a new status handler
func NewPaymentLinkStatusHandler(poller statusPoller) *PaymentLinkStatusHandler {
	return &PaymentLinkStatusHandler{poller: poller}
}

type checkStatusRequest struct {
	Invoice string `json:"invoice" form:"invoice"`
}

// CheckStatus polls PayU for one invoice and returns the reconciled state.
// POST /api/v1/payment-links/status
func (h *PaymentLinkStatusHandler) CheckStatus(c *gin.Context) {
	var req checkStatusRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.Invoice) == "" {
		response.EnvelopeError(c, domainerrors.NewAppError(
			http.StatusBadRequest, domainerrors.CodeInvalidInvoice, "Invalid or missing invoice number.", domainerrors.ErrValidation,
		))
		return
	}

	view, err := h.poller.Poll(c.Request.Context(), strings.TrimSpace(req.Invoice))
	if err != nil {
		response.EnvelopeError(c, err)
		return
	}

	response.EnvelopeSuccess(c, http.StatusOK, view)
}
