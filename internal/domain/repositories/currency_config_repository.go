package repositories

import (
	"context"

	"github.com/google/uuid"
	"payment-links.backend/internal/domain/entities"
)

// CurrencyConfigRepository defines credential store operations.
// Every lookup ignores soft deleted rows.
type CurrencyConfigRepository interface {
	Create(ctx context.Context, cfg *entities.CurrencyConfig) error
	Update(ctx context.Context, cfg *entities.CurrencyConfig) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.CurrencyConfig, error)
	GetActiveByCurrency(ctx context.Context, currency string) (*entities.CurrencyConfig, error)
	GetFirstActive(ctx context.Context) (*entities.CurrencyConfig, error)
	GetActiveByCurrencyAndMerchant(ctx context.Context, currency, merchantID string) (*entities.CurrencyConfig, error)
	// FindByMerchantID returns the config that owns merchantID, skipping excludeID.
	FindByMerchantID(ctx context.Context, merchantID string, excludeID uuid.UUID) (*entities.CurrencyConfig, error)
	IsUnique(ctx context.Context, currency, merchantID string, env entities.Environment, excludeID uuid.UUID) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, status entities.CurrencyConfigStatus) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q entities.ConfigListQuery) ([]*entities.CurrencyConfig, int64, error)
	ListActiveCurrencies(ctx context.Context) ([]string, error)
}
