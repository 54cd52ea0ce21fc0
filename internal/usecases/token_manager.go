package usecases

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/internal/domain/repositories"
	"payment-links.backend/internal/infrastructure/payu"
	"payment-links.backend/pkg/logger"
	"payment-links.backend/pkg/metrics"
)

// DefaultTokenBuffer is the safety margin applied to token expiry.
const DefaultTokenBuffer = 60 * time.Second

// TokenManager hands out cached OneAPI bearer tokens per merchant, environment and scope.
type TokenManager struct {
	tokenRepo repositories.ApiTokenRepository
	gateway   PayUGateway
	buffer    time.Duration
	now       func() time.Time
	group     singleflight.Group
}

// NewTokenManager creates a new token manager
func NewTokenManager(tokenRepo repositories.ApiTokenRepository, gateway PayUGateway, buffer time.Duration) *TokenManager {
	if buffer <= 0 {
		buffer = DefaultTokenBuffer
	}
	return &TokenManager{
		tokenRepo: tokenRepo,
		gateway:   gateway,
		buffer:    buffer,
		now:       time.Now,
	}
}

// GetToken returns a cached token valid for more than the buffer, or fetches a new one.
// Concurrent fetches for the same key are collapsed into one provider call.
func (m *TokenManager) GetToken(ctx context.Context, creds entities.Credentials, scope entities.Scope) (string, error) {
	env := creds.Environment.TokenKey()
	hash := scope.Hash()
	now := m.now()

	cached, err := m.tokenRepo.FindUsable(ctx, creds.MerchantID, env, hash, now.Add(m.buffer))
	switch {
	case err == nil && cached.UsableAt(now, m.buffer):
		metrics.TokenLookups.WithLabelValues("cache").Inc()
		return cached.AccessToken, nil
	case err != nil && !errors.Is(err, domainerrors.ErrNotFound):
		logger.Warn(ctx, "Token cache lookup failed, fetching a new token",
			zap.String("merchant_id", creds.MerchantID),
			zap.Error(err),
		)
	}

	// Joined callers share this fetch, so it must outlive the caller that started it.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := m.group.Do(creds.MerchantID+"|"+env+"|"+hash, func() (interface{}, error) {
		return m.fetch(fetchCtx, creds, scope)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *TokenManager) fetch(ctx context.Context, creds entities.Credentials, scope entities.Scope) (string, error) {
	metrics.TokenLookups.WithLabelValues("fetch").Inc()
	tok, err := m.gateway.FetchToken(ctx, creds, scope)
	if err != nil {
		return "", providerError(err)
	}

	now := m.now()
	record := &entities.ApiToken{
		MerchantID:  creds.MerchantID,
		Environment: creds.Environment.TokenKey(),
		Scope:       scope,
		AccessToken: tok.AccessToken,
		ExpiresAt:   now.Add(tok.ExpiresIn - m.buffer),
		Status:      entities.ApiTokenStatusActive,
	}
	if err := m.tokenRepo.Upsert(ctx, record); err != nil {
		// The token is still good for this call; the next caller refetches.
		logger.Warn(ctx, "Failed to cache access token",
			zap.String("merchant_id", creds.MerchantID),
			zap.Error(err),
		)
	}
	return tok.AccessToken, nil
}

// Invalidate marks the cached token for (merchant, environment, scope) expired.
func (m *TokenManager) Invalidate(ctx context.Context, creds entities.Credentials, scope entities.Scope) error {
	return m.tokenRepo.Invalidate(ctx, creds.MerchantID, creds.Environment.TokenKey(), scope.Hash())
}

// WithToken runs call with a token for scope. A 401 invalidates the token and
// retries exactly once; a second 401 is returned as an auth error.
func (m *TokenManager) WithToken(ctx context.Context, creds entities.Credentials, scope entities.Scope, call func(auth payu.Auth) error) error {
	token, err := m.GetToken(ctx, creds, scope)
	if err != nil {
		return err
	}
	err = call(authFor(creds, token))
	if !errors.Is(err, payu.ErrUnauthorized) {
		return err
	}

	logger.Info(ctx, "PayU rejected access token, refreshing", zap.String("merchant_id", creds.MerchantID))
	if invErr := m.Invalidate(ctx, creds, scope); invErr != nil {
		logger.Warn(ctx, "Failed to invalidate access token", zap.Error(invErr))
	}
	token, err = m.GetToken(ctx, creds, scope)
	if err != nil {
		return err
	}
	err = call(authFor(creds, token))
	if errors.Is(err, payu.ErrUnauthorized) {
		return domainerrors.Auth(msgProviderAuth)
	}
	return err
}

func authFor(creds entities.Credentials, token string) payu.Auth {
	return payu.Auth{
		AccessToken: token,
		MerchantID:  creds.MerchantID,
		Environment: creds.Environment,
	}
}
