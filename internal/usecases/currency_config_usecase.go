package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/internal/domain/repositories"
	"payment-links.backend/internal/infrastructure/payu"
	"payment-links.backend/pkg/crypto"
	"payment-links.backend/pkg/logger"
	"payment-links.backend/pkg/utils"
)

// CurrencyConfigUsecase manages merchant credentials per currency
type CurrencyConfigUsecase struct {
	configRepo repositories.CurrencyConfigRepository
	uow        repositories.UnitOfWork
	cipher     SecretCipher
	gateway    PayUGateway
}

// NewCurrencyConfigUsecase creates a new currency config usecase
func NewCurrencyConfigUsecase(
	configRepo repositories.CurrencyConfigRepository,
	uow repositories.UnitOfWork,
	cipher SecretCipher,
	gateway PayUGateway,
) *CurrencyConfigUsecase {
	return &CurrencyConfigUsecase{
		configRepo: configRepo,
		uow:        uow,
		cipher:     cipher,
		gateway:    gateway,
	}
}

type configInput struct {
	currency     string
	merchantID   string
	clientID     string
	clientSecret string
	environment  entities.Environment
}

func parseConfigInput(input *entities.CurrencyConfigInput, requireSecret bool) (*configInput, error) {
	if input == nil {
		return nil, domainerrors.BadRequest("request body is required")
	}
	currency := normalizeCurrency(input.Currency)
	if !currencyCodeRegex.MatchString(currency) {
		return nil, domainerrors.Validation("currency", "Please enter a valid 3-letter currency code.")
	}
	merchantID := strings.TrimSpace(input.MerchantID)
	if merchantID == "" {
		return nil, domainerrors.Validation("merchantId", "Merchant ID is required.")
	}
	clientID := strings.TrimSpace(input.ClientID)
	if clientID == "" {
		return nil, domainerrors.Validation("clientId", "Client ID is required.")
	}
	secret := strings.TrimSpace(input.ClientSecret)
	if requireSecret && secret == "" {
		return nil, domainerrors.Validation("clientSecret", "Client Secret is required.")
	}
	env, ok := entities.ParseEnvironment(input.Environment)
	if !ok {
		return nil, domainerrors.Validation("environment", "Please select a valid environment.")
	}
	return &configInput{
		currency:     currency,
		merchantID:   merchantID,
		clientID:     clientID,
		clientSecret: secret,
		environment:  env,
	}, nil
}

// Create verifies the credentials with PayU and stores a new config.
// The new row is active unless another merchant already serves the currency.
func (u *CurrencyConfigUsecase) Create(ctx context.Context, input *entities.CurrencyConfigInput) (entities.ConfigEvent, error) {
	in, err := parseConfigInput(input, true)
	if err != nil {
		return nil, err
	}
	if err := u.checkAllocation(ctx, in, uuid.Nil); err != nil {
		return nil, err
	}
	if err := u.VerifyCredentials(ctx, credentialsOf(in)); err != nil {
		return nil, err
	}
	sealed, err := u.cipher.Seal(in.clientSecret)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	cfg := &entities.CurrencyConfig{
		Currency:     in.currency,
		MerchantID:   in.merchantID,
		ClientID:     in.clientID,
		ClientSecret: sealed,
		Environment:  in.environment,
		Status:       entities.CurrencyConfigStatusActive,
	}
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		status, err := u.statusForNewRow(txCtx, in, uuid.Nil)
		if err != nil {
			return err
		}
		cfg.Status = status
		return u.configRepo.Create(txCtx, cfg)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Currency config created",
		zap.String("currency", cfg.Currency),
		zap.String("merchant_id", cfg.MerchantID),
		zap.String("status", string(cfg.Status)),
	)
	return entities.ConfigCreated{Config: cfg}, nil
}

// Update edits a config. A new merchant id is an identity change: the old row
// is soft deleted and a new one inserted in the same transaction.
// An empty client secret keeps the stored one.
func (u *CurrencyConfigUsecase) Update(ctx context.Context, id uuid.UUID, input *entities.CurrencyConfigInput) (entities.ConfigEvent, error) {
	existing, err := u.configRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(msgConfigNotFound)
		}
		return nil, err
	}
	in, err := parseConfigInput(input, false)
	if err != nil {
		return nil, err
	}
	if err := u.checkAllocation(ctx, in, existing.ID); err != nil {
		return nil, err
	}

	sealed := existing.ClientSecret
	if in.clientSecret == "" {
		plain, err := u.cipher.Open(existing.ClientSecret)
		if err != nil || plain == "" {
			return nil, domainerrors.Configuration(domainerrors.CodeDecryptFailed, msgDecryptFailed)
		}
		in.clientSecret = plain
	} else if sealed, err = u.cipher.Seal(in.clientSecret); err != nil {
		return nil, domainerrors.InternalError(err)
	}

	credentialsChanged := in.merchantID != existing.MerchantID ||
		in.clientID != existing.ClientID ||
		in.environment != existing.Environment ||
		sealed != existing.ClientSecret
	if credentialsChanged {
		if err := u.VerifyCredentials(ctx, credentialsOf(in)); err != nil {
			return nil, err
		}
	}

	next := &entities.CurrencyConfig{
		ID:           existing.ID,
		Currency:     in.currency,
		MerchantID:   in.merchantID,
		ClientID:     in.clientID,
		ClientSecret: sealed,
		Environment:  in.environment,
		Status:       existing.Status,
		CreatedAt:    existing.CreatedAt,
	}

	if in.merchantID != existing.MerchantID {
		next.ID = uuid.Nil
		err = u.uow.Do(ctx, func(txCtx context.Context) error {
			if err := u.configRepo.SoftDelete(txCtx, existing.ID); err != nil {
				return err
			}
			if existing.Status == entities.CurrencyConfigStatusActive {
				status, err := u.statusForNewRow(txCtx, in, existing.ID)
				if err != nil {
					return err
				}
				next.Status = status
			}
			return u.configRepo.Create(txCtx, next)
		})
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "Currency config replaced",
			zap.String("currency", next.Currency),
			zap.String("previous_merchant_id", existing.MerchantID),
			zap.String("merchant_id", next.MerchantID),
		)
		return entities.ConfigReplaced{Previous: existing, Config: next}, nil
	}

	if next.Status == entities.CurrencyConfigStatusActive && next.Currency != existing.Currency {
		if other, err := u.configRepo.GetActiveByCurrency(ctx, next.Currency); err == nil && other.ID != existing.ID {
			return nil, domainerrors.Validation("currency", fmt.Sprintf(msgActiveExists, next.Currency))
		} else if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
			return nil, err
		}
	}
	if err := u.configRepo.Update(ctx, next); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Currency config updated",
		zap.String("currency", next.Currency),
		zap.String("merchant_id", next.MerchantID),
	)
	return entities.ConfigUpdated{Config: next}, nil
}

// checkAllocation enforces one merchant id per currency and unique (currency, merchant, environment).
func (u *CurrencyConfigUsecase) checkAllocation(ctx context.Context, in *configInput, excludeID uuid.UUID) error {
	owner, err := u.configRepo.FindByMerchantID(ctx, in.merchantID, excludeID)
	switch {
	case err == nil && owner.Currency != in.currency:
		return domainerrors.Validation("merchantId", fmt.Sprintf(msgMerchantTaken, owner.Currency))
	case err != nil && !errors.Is(err, domainerrors.ErrNotFound):
		return err
	}

	unique, err := u.configRepo.IsUnique(ctx, in.currency, in.merchantID, in.environment, excludeID)
	if err != nil {
		return err
	}
	if !unique {
		return domainerrors.Validation("currency", msgDuplicateConfig)
	}
	return nil
}

// statusForNewRow keeps at most one active row per currency. A row of the same
// merchant is deactivated in favour of the new one; another merchant wins.
func (u *CurrencyConfigUsecase) statusForNewRow(ctx context.Context, in *configInput, replacing uuid.UUID) (entities.CurrencyConfigStatus, error) {
	active, err := u.configRepo.GetActiveByCurrency(ctx, in.currency)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return entities.CurrencyConfigStatusActive, nil
	}
	if err != nil {
		return "", err
	}
	if active.ID == replacing {
		return entities.CurrencyConfigStatusActive, nil
	}
	if active.MerchantID == in.merchantID {
		if err := u.configRepo.SetStatus(ctx, active.ID, entities.CurrencyConfigStatusInactive); err != nil {
			return "", err
		}
		return entities.CurrencyConfigStatusActive, nil
	}
	return entities.CurrencyConfigStatusInactive, nil
}

// VerifyCredentials asks PayU for a token carrying every payment link scope.
func (u *CurrencyConfigUsecase) VerifyCredentials(ctx context.Context, creds entities.Credentials) error {
	tok, err := u.gateway.FetchToken(ctx, creds, VerifyScope)
	if err != nil {
		return verificationError(err)
	}
	if !entities.NewScope(tok.Scope).Contains(VerifyScope) {
		return domainerrors.Validation("clientId", "Invalid Credential: Token does not have required Payment Links permissions.")
	}
	return nil
}

func verificationError(err error) error {
	apiErr, ok := payu.AsAPIError(err)
	if !ok {
		return domainerrors.Validation("clientId", "Unable to connect to PayU API. Please check your internet connection.")
	}
	var msg string
	switch {
	case apiErr.StatusCode == http.StatusOK:
		msg = "Invalid Credential: Access token not received from PayU API."
	case apiErr.StatusCode == http.StatusBadRequest:
		msg = "Invalid Credential: Invalid request parameters."
	case apiErr.StatusCode == http.StatusUnauthorized:
		msg = "Invalid Credential: Client ID or Client Secret is incorrect."
	case apiErr.StatusCode == http.StatusForbidden:
		msg = "Invalid Credential: Insufficient permissions."
	case apiErr.StatusCode == http.StatusTooManyRequests:
		msg = "Too many requests. Please try again later."
	case apiErr.StatusCode >= http.StatusInternalServerError:
		msg = "PayU server error. Please try again later."
	default:
		msg = "Invalid Credential: Unable to verify credentials."
	}
	return domainerrors.Validation("clientId", msg)
}

// SetStatus toggles a config. Activation is refused while another config
// serves the same currency; an unchanged status is a no-op.
func (u *CurrencyConfigUsecase) SetStatus(ctx context.Context, id uuid.UUID, currency string, status entities.CurrencyConfigStatus) (*entities.CurrencyConfig, error) {
	if status != entities.CurrencyConfigStatusActive && status != entities.CurrencyConfigStatusInactive {
		return nil, domainerrors.Validation("status", "Status must be active or inactive.")
	}
	currency = normalizeCurrency(currency)

	var cfg *entities.CurrencyConfig
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		cfg, err = u.configRepo.GetByID(txCtx, id)
		if errors.Is(err, domainerrors.ErrNotFound) || (err == nil && currency != "" && cfg.Currency != currency) {
			return domainerrors.NotFound(msgConfigNotFound)
		}
		if err != nil {
			return err
		}
		if cfg.Status == status {
			return nil
		}
		if status == entities.CurrencyConfigStatusActive {
			other, err := u.configRepo.GetActiveByCurrency(txCtx, cfg.Currency)
			if err == nil && other.ID != cfg.ID {
				return domainerrors.Validation("status", fmt.Sprintf(msgActiveExists, cfg.Currency))
			}
			if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
				return err
			}
		}
		if err := u.configRepo.SetStatus(txCtx, cfg.ID, status); err != nil {
			return err
		}
		cfg.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Get returns one config with its secret masked.
func (u *CurrencyConfigUsecase) Get(ctx context.Context, id uuid.UUID) (*entities.CurrencyConfigView, error) {
	cfg, err := u.configRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(msgConfigNotFound)
		}
		return nil, err
	}
	return u.view(cfg), nil
}

// List returns one page of configs; secrets are masked.
func (u *CurrencyConfigUsecase) List(ctx context.Context, q entities.ConfigListQuery) (utils.Page[*entities.CurrencyConfigView], error) {
	configs, total, err := u.configRepo.List(ctx, q)
	if err != nil {
		return utils.Page[*entities.CurrencyConfigView]{}, err
	}
	views := lo.Map(configs, func(cfg *entities.CurrencyConfig, _ int) *entities.CurrencyConfigView {
		return u.view(cfg)
	})
	return utils.NewPage(views, total, q.Page, q.Limit), nil
}

// ActiveCurrencies lists the currencies links can be created in.
func (u *CurrencyConfigUsecase) ActiveCurrencies(ctx context.Context) ([]string, error) {
	return u.configRepo.ListActiveCurrencies(ctx)
}

// Delete soft deletes a config.
func (u *CurrencyConfigUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := u.configRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound(msgConfigNotFound)
		}
		return err
	}
	return nil
}

// ActiveConfig returns the config serving currency, as a validation error when there is none.
func (u *CurrencyConfigUsecase) ActiveConfig(ctx context.Context, currency string) (*entities.CurrencyConfig, error) {
	cfg, err := u.configRepo.GetActiveByCurrency(ctx, normalizeCurrency(currency))
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil, domainerrors.Validation("currency", "Please select a valid currency from PayU configurations.")
	}
	return cfg, err
}

// ResolveConfig picks the config by id, then by active currency, then the first active one.
func (u *CurrencyConfigUsecase) ResolveConfig(ctx context.Context, configID uuid.UUID, currency string) (*entities.CurrencyConfig, error) {
	lookups := []func() (*entities.CurrencyConfig, error){
		func() (*entities.CurrencyConfig, error) {
			if configID == uuid.Nil {
				return nil, domainerrors.ErrNotFound
			}
			return u.configRepo.GetByID(ctx, configID)
		},
		func() (*entities.CurrencyConfig, error) {
			if currency = normalizeCurrency(currency); currency == "" {
				return nil, domainerrors.ErrNotFound
			}
			return u.configRepo.GetActiveByCurrency(ctx, currency)
		},
		func() (*entities.CurrencyConfig, error) {
			return u.configRepo.GetFirstActive(ctx)
		},
	}
	for _, lookup := range lookups {
		cfg, err := lookup()
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, domainerrors.ErrNotFound) {
			return nil, err
		}
	}
	return nil, domainerrors.Configuration(domainerrors.CodeNoConfig, msgNoConfig)
}

// Credentials decrypts the stored secret of cfg.
func (u *CurrencyConfigUsecase) Credentials(cfg *entities.CurrencyConfig) (entities.Credentials, error) {
	secret, err := u.cipher.Open(cfg.ClientSecret)
	if err != nil || secret == "" {
		return entities.Credentials{}, domainerrors.Configuration(domainerrors.CodeDecryptFailed, msgDecryptFailed)
	}
	return entities.Credentials{
		MerchantID:   cfg.MerchantID,
		ClientID:     cfg.ClientID,
		ClientSecret: secret,
		Environment:  cfg.Environment,
	}, nil
}

func (u *CurrencyConfigUsecase) view(cfg *entities.CurrencyConfig) *entities.CurrencyConfigView {
	masked := ""
	if plain, err := u.cipher.Open(cfg.ClientSecret); err == nil {
		masked = crypto.Mask(plain)
	}
	return &entities.CurrencyConfigView{CurrencyConfig: cfg, ClientSecretMasked: masked}
}

func credentialsOf(in *configInput) entities.Credentials {
	return entities.Credentials{
		MerchantID:   in.merchantID,
		ClientID:     in.clientID,
		ClientSecret: in.clientSecret,
		Environment:  in.environment,
	}
}
