package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/internal/interfaces/http/response"
	"payment-links.backend/pkg/utils"
)

type paymentLinkService interface {
	CreatePaymentLink(ctx context.Context, orderID int64, input *entities.CreatePaymentLinkInput) (*entities.PaymentLink, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*entities.PaymentLink, error)
	OrderSummary(ctx context.Context, orderID int64) (*entities.OrderPaymentSummary, error)
	SoftDeleteLink(ctx context.Context, id uuid.UUID) error
}

// PaymentLinkHandler handles admin payment link endpoints
type PaymentLinkHandler struct {
	linkUsecase paymentLinkService
	poller      statusPoller
}

// NewPaymentLinkHandler creates a new payment link handler
func NewPaymentLinkHandler(linkUsecase paymentLinkService, poller statusPoller) *PaymentLinkHandler {
	return &PaymentLinkHandler{linkUsecase: linkUsecase, poller: poller}
}

// CreatePaymentLink creates a PayU link for an order
// POST /api/v1/admin/orders/:orderId/payment-links
func (h *PaymentLinkHandler) CreatePaymentLink(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var input entities.CreatePaymentLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	link, err := h.linkUsecase.CreatePaymentLink(c.Request.Context(), orderID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, link)
}

// ListPaymentLinks lists the links of an order, latest first
// GET /api/v1/admin/orders/:orderId/payment-links
func (h *PaymentLinkHandler) ListPaymentLinks(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	links, err := h.linkUsecase.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if links == nil {
		links = []*entities.PaymentLink{}
	}

	response.Success(c, http.StatusOK, gin.H{"items": links})
}

// GetPaymentSummary returns paid and remaining amounts across an order's links
// GET /api/v1/admin/orders/:orderId/payment-summary
func (h *PaymentLinkHandler) GetPaymentSummary(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	summary, err := h.linkUsecase.OrderSummary(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// RefreshPaymentLink polls PayU for one invoice on behalf of an operator
// POST /api/v1/admin/payment-links/:invoice/refresh
func (h *PaymentLinkHandler) RefreshPaymentLink(c *gin.Context) {
	view, err := h.poller.Poll(c.Request.Context(), c.Param("invoice"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// DeletePaymentLink soft deletes a link
// DELETE /api/v1/admin/payment-links/:id
func (h *PaymentLinkHandler) DeletePaymentLink(c *gin.Context) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid payment link ID"))
		return
	}

	if err := h.linkUsecase.SoftDeleteLink(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func orderIDParam(c *gin.Context) (int64, bool) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil || orderID <= 0 {
		response.Error(c, domainerrors.BadRequest("Invalid order ID"))
		return 0, false
	}
	return orderID, true
}
