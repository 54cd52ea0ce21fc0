package usecases_test

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"payment-links.backend/internal/domain/entities"
	"payment-links.backend/internal/infrastructure/payu"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

// Mock CurrencyConfigRepository
type MockCurrencyConfigRepository struct {
	mock.Mock
}

func (m *MockCurrencyConfigRepository) Create(ctx context.Context, cfg *entities.CurrencyConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockCurrencyConfigRepository) Update(ctx context.Context, cfg *entities.CurrencyConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockCurrencyConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.CurrencyConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CurrencyConfig), args.Error(1)
}

func (m *MockCurrencyConfigRepository) GetActiveByCurrency(ctx context.Context, currency string) (*entities.CurrencyConfig, error) {
	args := m.Called(ctx, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CurrencyConfig), args.Error(1)
}

func (m *MockCurrencyConfigRepository) GetFirstActive(ctx context.Context) (*entities.CurrencyConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CurrencyConfig), args.Error(1)
}

func (m *MockCurrencyConfigRepository) GetActiveByCurrencyAndMerchant(ctx context.Context, currency, merchantID string) (*entities.CurrencyConfig, error) {
	args := m.Called(ctx, currency, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CurrencyConfig), args.Error(1)
}

func (m *MockCurrencyConfigRepository) FindByMerchantID(ctx context.Context, merchantID string, excludeID uuid.UUID) (*entities.CurrencyConfig, error) {
	args := m.Called(ctx, merchantID, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CurrencyConfig), args.Error(1)
}

func (m *MockCurrencyConfigRepository) IsUnique(ctx context.Context, currency, merchantID string, env entities.Environment, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, currency, merchantID, env, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCurrencyConfigRepository) SetStatus(ctx context.Context, id uuid.UUID, status entities.CurrencyConfigStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockCurrencyConfigRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCurrencyConfigRepository) List(ctx context.Context, q entities.ConfigListQuery) ([]*entities.CurrencyConfig, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.CurrencyConfig), args.Get(1).(int64), args.Error(2)
}

func (m *MockCurrencyConfigRepository) ListActiveCurrencies(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Mock ApiTokenRepository
type MockApiTokenRepository struct {
	mock.Mock
}

func (m *MockApiTokenRepository) FindUsable(ctx context.Context, merchantID, environment, scopeHash string, notBefore time.Time) (*entities.ApiToken, error) {
	args := m.Called(ctx, merchantID, environment, scopeHash, notBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ApiToken), args.Error(1)
}

func (m *MockApiTokenRepository) Upsert(ctx context.Context, token *entities.ApiToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockApiTokenRepository) Invalidate(ctx context.Context, merchantID, environment, scopeHash string) error {
	args := m.Called(ctx, merchantID, environment, scopeHash)
	return args.Error(0)
}

// Mock PaymentLinkRepository
type MockPaymentLinkRepository struct {
	mock.Mock
}

func (m *MockPaymentLinkRepository) Create(ctx context.Context, link *entities.PaymentLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockPaymentLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.PaymentLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentLink), args.Error(1)
}

func (m *MockPaymentLinkRepository) GetByInvoice(ctx context.Context, invoice string) (*entities.PaymentLink, error) {
	args := m.Called(ctx, invoice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentLink), args.Error(1)
}

func (m *MockPaymentLinkRepository) GetByInvoiceForUpdate(ctx context.Context, invoice string) (*entities.PaymentLink, error) {
	args := m.Called(ctx, invoice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentLink), args.Error(1)
}

func (m *MockPaymentLinkRepository) GetLatestByOrder(ctx context.Context, orderID int64) (*entities.PaymentLink, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentLink), args.Error(1)
}

func (m *MockPaymentLinkRepository) ListByOrder(ctx context.Context, orderID int64) ([]*entities.PaymentLink, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PaymentLink), args.Error(1)
}

func (m *MockPaymentLinkRepository) UpdateAggregate(ctx context.Context, id uuid.UUID, agg entities.PaymentAggregate) error {
	args := m.Called(ctx, id, agg)
	return args.Error(0)
}

func (m *MockPaymentLinkRepository) SaveReconciliation(ctx context.Context, link *entities.PaymentLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockPaymentLinkRepository) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*entities.PaymentLink, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PaymentLink), args.Error(1)
}

func (m *MockPaymentLinkRepository) MarkExpired(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockPaymentLinkRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Upsert(ctx context.Context, txn *entities.Transaction) (bool, error) {
	args := m.Called(ctx, txn)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) ListByPaymentLink(ctx context.Context, paymentLinkID uuid.UUID) ([]*entities.Transaction, error) {
	args := m.Called(ctx, paymentLinkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListSettledByOrder(ctx context.Context, orderID int64) ([]*entities.Transaction, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

// Mock OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetOrder(ctx context.Context, orderID int64) (*entities.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Order), args.Error(1)
}

// Mock OrderNotifier
type MockOrderNotifier struct {
	mock.Mock
}

func (m *MockOrderNotifier) MarkPaid(ctx context.Context, orderID int64, transactionID string) error {
	args := m.Called(ctx, orderID, transactionID)
	return args.Error(0)
}

func (m *MockOrderNotifier) AddNote(ctx context.Context, orderID int64, note string) error {
	args := m.Called(ctx, orderID, note)
	return args.Error(0)
}

// Mock PayUGateway
type MockPayUGateway struct {
	mock.Mock
}

func (m *MockPayUGateway) FetchToken(ctx context.Context, creds entities.Credentials, scope entities.Scope) (*payu.Token, error) {
	args := m.Called(ctx, creds, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payu.Token), args.Error(1)
}

func (m *MockPayUGateway) CreatePaymentLink(ctx context.Context, auth payu.Auth, req *payu.CreateLinkRequest) (*payu.CreatedLink, error) {
	args := m.Called(ctx, auth, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payu.CreatedLink), args.Error(1)
}

func (m *MockPayUGateway) GetPaymentLink(ctx context.Context, auth payu.Auth, invoice string) (*payu.LinkDetails, error) {
	args := m.Called(ctx, auth, invoice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payu.LinkDetails), args.Error(1)
}

func (m *MockPayUGateway) GetTransactions(ctx context.Context, auth payu.Auth, invoice string, from, to time.Time) ([]payu.TransactionRecord, error) {
	args := m.Called(ctx, auth, invoice, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payu.TransactionRecord), args.Error(1)
}

// fakeCipher seals by prefixing, so tests can read stored secrets.
type fakeCipher struct{}

func (fakeCipher) Seal(plaintext string) (string, error) {
	return "sealed:" + plaintext, nil
}

func (fakeCipher) Open(sealed string) (string, error) {
	if !strings.HasPrefix(sealed, "sealed:") {
		return "", errors.New("not sealed")
	}
	return strings.TrimPrefix(sealed, "sealed:"), nil
}
