package repositories

import (
	"context"
	"time"

	"payment-links.backend/internal/domain/entities"
)

// ApiTokenRepository caches OneAPI bearer tokens.
type ApiTokenRepository interface {
	// FindUsable returns the newest active token expiring after notBefore.
	FindUsable(ctx context.Context, merchantID, environment, scopeHash string, notBefore time.Time) (*entities.ApiToken, error)
	// Upsert replaces the row keyed by (merchant_id, environment, scope_hash).
	Upsert(ctx context.Context, token *entities.ApiToken) error
	Invalidate(ctx context.Context, merchantID, environment, scopeHash string) error
}
