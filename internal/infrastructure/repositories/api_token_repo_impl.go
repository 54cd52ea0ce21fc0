package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/internal/infrastructure/models"
	"payment-links.backend/pkg/utils"
)

// ApiTokenRepositoryImpl implements ApiTokenRepository
type ApiTokenRepositoryImpl struct {
	db *gorm.DB
}

func NewApiTokenRepository(db *gorm.DB) *ApiTokenRepositoryImpl {
	return &ApiTokenRepositoryImpl{db: db}
}

func (r *ApiTokenRepositoryImpl) FindUsable(ctx context.Context, merchantID, environment, scopeHash string, notBefore time.Time) (*entities.ApiToken, error) {
	var m models.ApiToken
	err := GetDB(ctx, r.db).
		Where("merchant_id = ? AND environment = ? AND scope_hash = ?", merchantID, environment, scopeHash).
		Where("status = ? AND expires_at > ?", entities.ApiTokenStatusActive, notBefore).
		Order("updated_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// Upsert relies on the unique (merchant_id, environment, scope_hash) index; concurrent refreshes are last writer wins.
func (r *ApiTokenRepositoryImpl) Upsert(ctx context.Context, token *entities.ApiToken) error {
	now := time.Now()
	m := &models.ApiToken{
		ID:          utils.GenerateUUIDv7(),
		MerchantID:  token.MerchantID,
		Environment: token.Environment,
		Scope:       token.Scope.String(),
		ScopeHash:   token.Scope.Hash(),
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		Status:      string(entities.ApiTokenStatusActive),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "merchant_id"}, {Name: "environment"}, {Name: "scope_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"scope", "access_token", "expires_at", "status", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	token.Status = entities.ApiTokenStatusActive
	token.UpdatedAt = now
	return nil
}

func (r *ApiTokenRepositoryImpl) Invalidate(ctx context.Context, merchantID, environment, scopeHash string) error {
	return GetDB(ctx, r.db).Model(&models.ApiToken{}).
		Where("merchant_id = ? AND environment = ? AND scope_hash = ?", merchantID, environment, scopeHash).
		Updates(map[string]interface{}{
			"status":     string(entities.ApiTokenStatusExpired),
			"updated_at": time.Now(),
		}).Error
}

func (r *ApiTokenRepositoryImpl) toEntity(m *models.ApiToken) *entities.ApiToken {
	return &entities.ApiToken{
		ID:          m.ID,
		MerchantID:  m.MerchantID,
		Environment: m.Environment,
		Scope:       entities.NewScope(m.Scope),
		AccessToken: m.AccessToken,
		ExpiresAt:   m.ExpiresAt,
		Status:      entities.ApiTokenStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
