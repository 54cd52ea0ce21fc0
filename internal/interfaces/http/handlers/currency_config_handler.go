package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/internal/interfaces/http/response"
	"payment-links.backend/pkg/utils"
)

type currencyConfigService interface {
	Create(ctx context.Context, input *entities.CurrencyConfigInput) (entities.ConfigEvent, error)
	Update(ctx context.Context, id uuid.UUID, input *entities.CurrencyConfigInput) (entities.ConfigEvent, error)
	SetStatus(ctx context.Context, id uuid.UUID, currency string, status entities.CurrencyConfigStatus) (*entities.CurrencyConfig, error)
	Get(ctx context.Context, id uuid.UUID) (*entities.CurrencyConfigView, error)
	List(ctx context.Context, q entities.ConfigListQuery) (utils.Page[*entities.CurrencyConfigView], error)
	ActiveCurrencies(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CurrencyConfigHandler handles PayU merchant credential endpoints
type CurrencyConfigHandler struct {
	configUsecase currencyConfigService
}

// NewCurrencyConfigHandler creates a new currency config handler
func NewCurrencyConfigHandler(configUsecase currencyConfigService) *CurrencyConfigHandler {
	return &CurrencyConfigHandler{configUsecase: configUsecase}
}

type setConfigStatusRequest struct {
	Currency string `json:"currency"`
	Status   string `json:"status" binding:"required"`
}

// ListConfigs lists configs with masked secrets
// GET /api/v1/admin/currency-configs
func (h *CurrencyConfigHandler) ListConfigs(c *gin.Context) {
	var q entities.ConfigListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	page, err := h.configUsecase.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, page)
}

// ListActiveCurrencies lists currencies a link can be created in
// GET /api/v1/admin/currency-configs/active-currencies
func (h *CurrencyConfigHandler) ListActiveCurrencies(c *gin.Context) {
	currencies, err := h.configUsecase.ActiveCurrencies(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if currencies == nil {
		currencies = []string{}
	}

	response.Success(c, http.StatusOK, gin.H{"currencies": currencies})
}

// GetConfig returns one config
// GET /api/v1/admin/currency-configs/:id
func (h *CurrencyConfigHandler) GetConfig(c *gin.Context) {
	id, ok := configIDParam(c)
	if !ok {
		return
	}

	view, err := h.configUsecase.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// CreateConfig verifies credentials with PayU and stores them
// POST /api/v1/admin/currency-configs
func (h *CurrencyConfigHandler) CreateConfig(c *gin.Context) {
	var input entities.CurrencyConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	event, err := h.configUsecase.Create(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, renderConfigEvent(event))
}

// UpdateConfig edits a config; a changed merchant id replaces the row
// PUT /api/v1/admin/currency-configs/:id
func (h *CurrencyConfigHandler) UpdateConfig(c *gin.Context) {
	id, ok := configIDParam(c)
	if !ok {
		return
	}

	var input entities.CurrencyConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	event, err := h.configUsecase.Update(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, renderConfigEvent(event))
}

// SetConfigStatus activates or deactivates a config
// POST /api/v1/admin/currency-configs/:id/status
func (h *CurrencyConfigHandler) SetConfigStatus(c *gin.Context) {
	id, ok := configIDParam(c)
	if !ok {
		return
	}

	var req setConfigStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	cfg, err := h.configUsecase.SetStatus(c.Request.Context(), id, req.Currency, entities.CurrencyConfigStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"config": cfg})
}

// DeleteConfig soft deletes a config
// DELETE /api/v1/admin/currency-configs/:id
func (h *CurrencyConfigHandler) DeleteConfig(c *gin.Context) {
	id, ok := configIDParam(c)
	if !ok {
		return
	}

	if err := h.configUsecase.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func configIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid config ID"))
		return uuid.Nil, false
	}
	return id, true
}

func renderConfigEvent(event entities.ConfigEvent) gin.H {
	body := gin.H{"config": event.Current()}
	switch e := event.(type) {
	case entities.ConfigCreated:
		body["event"] = "created"
	case entities.ConfigUpdated:
		body["event"] = "updated"
	case entities.ConfigReplaced:
		body["event"] = "replaced"
		body["previousId"] = e.Previous.ID
	}
	return body
}
