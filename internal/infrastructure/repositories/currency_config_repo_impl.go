package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/internal/infrastructure/models"
	"payment-links.backend/pkg/utils"
)

var configOrderColumns = map[string]string{
	"currency":    "currency",
	"merchant_id": "merchant_id",
	"environment": "environment",
	"status":      "status",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}

// CurrencyConfigRepositoryImpl implements CurrencyConfigRepository
type CurrencyConfigRepositoryImpl struct {
	db *gorm.DB
}

func NewCurrencyConfigRepository(db *gorm.DB) *CurrencyConfigRepositoryImpl {
	return &CurrencyConfigRepositoryImpl{db: db}
}

func (r *CurrencyConfigRepositoryImpl) Create(ctx context.Context, cfg *entities.CurrencyConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = utils.GenerateUUIDv7()
	}
	now := time.Now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	m := r.toModel(cfg)
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *CurrencyConfigRepositoryImpl) Update(ctx context.Context, cfg *entities.CurrencyConfig) error {
	cfg.UpdatedAt = time.Now()
	result := GetDB(ctx, r.db).Model(&models.CurrencyConfig{}).
		Where("id = ?", cfg.ID).
		Updates(map[string]interface{}{
			"currency":      cfg.Currency,
			"merchant_id":   cfg.MerchantID,
			"client_id":     cfg.ClientID,
			"client_secret": cfg.ClientSecret,
			"environment":   string(cfg.Environment),
			"status":        string(cfg.Status),
			"updated_at":    cfg.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *CurrencyConfigRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.CurrencyConfig, error) {
	return r.first(GetDB(ctx, r.db).Where("id = ?", id))
}

func (r *CurrencyConfigRepositoryImpl) GetActiveByCurrency(ctx context.Context, currency string) (*entities.CurrencyConfig, error) {
	return r.first(GetDB(ctx, r.db).
		Where("currency = ? AND status = ?", strings.ToUpper(currency), entities.CurrencyConfigStatusActive).
		Order("updated_at DESC"))
}

func (r *CurrencyConfigRepositoryImpl) GetFirstActive(ctx context.Context) (*entities.CurrencyConfig, error) {
	return r.first(GetDB(ctx, r.db).
		Where("status = ?", entities.CurrencyConfigStatusActive).
		Order("created_at ASC"))
}

func (r *CurrencyConfigRepositoryImpl) GetActiveByCurrencyAndMerchant(ctx context.Context, currency, merchantID string) (*entities.CurrencyConfig, error) {
	return r.first(GetDB(ctx, r.db).
		Where("currency = ? AND merchant_id = ? AND status = ?", strings.ToUpper(currency), merchantID, entities.CurrencyConfigStatusActive))
}

func (r *CurrencyConfigRepositoryImpl) FindByMerchantID(ctx context.Context, merchantID string, excludeID uuid.UUID) (*entities.CurrencyConfig, error) {
	q := GetDB(ctx, r.db).Where("merchant_id = ?", merchantID)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	return r.first(q)
}

func (r *CurrencyConfigRepositoryImpl) IsUnique(ctx context.Context, currency, merchantID string, env entities.Environment, excludeID uuid.UUID) (bool, error) {
	q := GetDB(ctx, r.db).Model(&models.CurrencyConfig{}).
		Where("currency = ? AND merchant_id = ? AND environment = ?", strings.ToUpper(currency), merchantID, string(env))
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *CurrencyConfigRepositoryImpl) SetStatus(ctx context.Context, id uuid.UUID, status entities.CurrencyConfigStatus) error {
	result := GetDB(ctx, r.db).Model(&models.CurrencyConfig{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *CurrencyConfigRepositoryImpl) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Where("id = ?", id).Delete(&models.CurrencyConfig{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *CurrencyConfigRepositoryImpl) List(ctx context.Context, q entities.ConfigListQuery) ([]*entities.CurrencyConfig, int64, error) {
	filtered := func() *gorm.DB {
		db := GetDB(ctx, r.db).Model(&models.CurrencyConfig{})
		if env, ok := entities.ParseEnvironment(q.Environment); ok && q.Environment != "" {
			db = db.Where("environment = ?", string(env))
		}
		if s := strings.TrimSpace(q.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			db = db.Where("(LOWER(currency) LIKE ? OR LOWER(merchant_id) LIKE ? OR LOWER(client_id) LIKE ?)", like, like, like)
		}
		return db
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := configOrderColumns[q.OrderBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(q.Order, "asc") {
		direction = "ASC"
	}

	pagination := utils.GetPaginationParams(q.Page, q.Limit)
	var ms []models.CurrencyConfig
	if err := filtered().
		Order(column + " " + direction).
		Limit(pagination.Limit).
		Offset(pagination.CalculateOffset()).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	configs := make([]*entities.CurrencyConfig, 0, len(ms))
	for i := range ms {
		configs = append(configs, r.toEntity(&ms[i]))
	}
	return configs, total, nil
}

func (r *CurrencyConfigRepositoryImpl) ListActiveCurrencies(ctx context.Context) ([]string, error) {
	var currencies []string
	err := GetDB(ctx, r.db).Model(&models.CurrencyConfig{}).
		Where("status = ?", entities.CurrencyConfigStatusActive).
		Distinct().
		Order("currency ASC").
		Pluck("currency", &currencies).Error
	return currencies, err
}

func (r *CurrencyConfigRepositoryImpl) first(q *gorm.DB) (*entities.CurrencyConfig, error) {
	var m models.CurrencyConfig
	if err := q.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *CurrencyConfigRepositoryImpl) toModel(cfg *entities.CurrencyConfig) *models.CurrencyConfig {
	return &models.CurrencyConfig{
		ID:           cfg.ID,
		Currency:     strings.ToUpper(cfg.Currency),
		MerchantID:   cfg.MerchantID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Environment:  string(cfg.Environment),
		Status:       string(cfg.Status),
		CreatedAt:    cfg.CreatedAt,
		UpdatedAt:    cfg.UpdatedAt,
	}
}

func (r *CurrencyConfigRepositoryImpl) toEntity(m *models.CurrencyConfig) *entities.CurrencyConfig {
	cfg := &entities.CurrencyConfig{
		ID:           m.ID,
		Currency:     m.Currency,
		MerchantID:   m.MerchantID,
		ClientID:     m.ClientID,
		ClientSecret: m.ClientSecret,
		Environment:  entities.Environment(m.Environment),
		Status:       entities.CurrencyConfigStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.DeletedAt.Valid {
		cfg.DeletedAt = null.TimeFrom(m.DeletedAt.Time)
	}
	return cfg
}
