package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/internal/infrastructure/payu"
	"payment-links.backend/internal/usecases"
)

type linkFixture struct {
	linkRepo   *MockPaymentLinkRepository
	txnRepo    *MockTransactionRepository
	orderRepo  *MockOrderRepository
	configRepo *MockCurrencyConfigRepository
	tokenRepo  *MockApiTokenRepository
	gateway    *MockPayUGateway
	config     *entities.CurrencyConfig
	uc         *usecases.PaymentLinkUsecase
}

func newLinkFixture() *linkFixture {
	f := &linkFixture{
		linkRepo:   new(MockPaymentLinkRepository),
		txnRepo:    new(MockTransactionRepository),
		orderRepo:  new(MockOrderRepository),
		configRepo: new(MockCurrencyConfigRepository),
		tokenRepo:  new(MockApiTokenRepository),
		gateway:    new(MockPayUGateway),
		config: &entities.CurrencyConfig{
			ID:           uuid.New(),
			Currency:     "INR",
			MerchantID:   "8800001",
			ClientID:     "client-1",
			ClientSecret: "sealed:secret-1",
			Environment:  entities.EnvironmentUAT,
			Status:       entities.CurrencyConfigStatusActive,
		},
	}
	configs := usecases.NewCurrencyConfigUsecase(f.configRepo, new(MockUnitOfWork), fakeCipher{}, f.gateway)
	tokens := usecases.NewTokenManager(f.tokenRepo, f.gateway, time.Minute)
	f.uc = usecases.NewPaymentLinkUsecase(f.linkRepo, f.txnRepo, f.orderRepo, configs, tokens, f.gateway, usecases.LinkOptions{
		CallbackBaseURL: "https://shop.example/",
	})
	return f
}

func testOrder() *entities.Order {
	return &entities.Order{
		ID:       42,
		Number:   "1042",
		Currency: "INR",
		Total:    decimal.NewFromInt(1000),
		Billing: entities.OrderBilling{
			FirstName: "Asha",
			LastName:  "Rao",
			Email:     "asha@example.com",
			Phone:     "9999999999",
		},
	}
}

func (f *linkFixture) withOrder(settled ...string) {
	f.orderRepo.On("GetOrder", mock.Anything, int64(42)).Return(testOrder(), nil)
	txns := make([]*entities.Transaction, 0, len(settled))
	for _, amount := range settled {
		txns = append(txns, &entities.Transaction{Amount: decimal.RequireFromString(amount), Status: entities.TransactionStatusSuccess})
	}
	f.txnRepo.On("ListSettledByOrder", mock.Anything, int64(42)).Return(txns, nil)
}

func (f *linkFixture) withProvider() {
	f.configRepo.On("GetActiveByCurrency", mock.Anything, "INR").Return(f.config, nil)
	f.tokenRepo.On("FindUsable", mock.Anything, "8800001", "uat", usecases.CreateScope.Hash(), mock.Anything).
		Return(cachedToken("create-token"), nil)
}

func TestPaymentLinkUsecase_CreatePaymentLink_Success(t *testing.T) {
	f := newLinkFixture()
	f.withOrder()
	f.withProvider()

	var sent *payu.CreateLinkRequest
	f.gateway.On("CreatePaymentLink", mock.Anything, mock.MatchedBy(func(auth payu.Auth) bool {
		return auth.AccessToken == "create-token" && auth.MerchantID == "8800001"
	}), mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(2).(*payu.CreateLinkRequest)
	}).Return(&payu.CreatedLink{InvoiceNumber: "WC42-ab12cd34ef", URL: "https://u.payu.in/abc", Raw: []byte(`{"status":0}`)}, nil)
	f.linkRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.PaymentLink")).Return(nil).Once()

	link, err := f.uc.CreatePaymentLink(context.Background(), 42, &entities.CreatePaymentLinkInput{
		Amount:      decimal.NewFromInt(1000),
		NotifyEmail: true,
	})
	require.NoError(t, err)

	require.NotNil(t, sent)
	assert.True(t, strings.HasPrefix(sent.InvoiceNumber, "WC42-"))
	assert.LessOrEqual(t, len(sent.InvoiceNumber), usecases.DefaultInvoiceLength)
	assert.Equal(t, int64(100000), sent.SubAmount)
	assert.Equal(t, "INR", sent.Currency)
	assert.Equal(t, "Payment for order #1042", sent.Description)
	assert.Equal(t, usecases.LinkSource, sent.Source)
	assert.Equal(t, "Asha Rao", sent.Customer.Name)
	assert.Equal(t, sent.InvoiceNumber, sent.UDF.UDF1)
	assert.Equal(t, "42", sent.UDF.UDF2)
	assert.Equal(t, "https://shop.example/payment-links/"+sent.InvoiceNumber+"/success", sent.SuccessURL)
	assert.Equal(t, "https://shop.example/payment-links/"+sent.InvoiceNumber+"/failure", sent.FailureURL)
	assert.Zero(t, sent.MinAmountForCustomer)

	assert.Equal(t, "WC42-ab12cd34ef", link.InvoiceNumber)
	assert.Equal(t, "https://u.payu.in/abc", link.PaymentLinkURL)
	assert.Equal(t, f.config.ID, link.ConfigID)
	assert.Equal(t, entities.PaymentStatusPending, link.Status)
	assert.Equal(t, entities.LinkStatusActive, link.LinkStatus)
	assert.True(t, link.RemainingAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, link.PaidAmount.IsZero())
	f.linkRepo.AssertExpectations(t)
}

func TestPaymentLinkUsecase_CreatePaymentLink_PartialTermsInSubunits(t *testing.T) {
	f := newLinkFixture()
	f.withOrder("400")
	f.withProvider()

	var sent *payu.CreateLinkRequest
	f.gateway.On("CreatePaymentLink", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(2).(*payu.CreateLinkRequest)
	}).Return(&payu.CreatedLink{InvoiceNumber: "WC42-00ff00ff00", URL: "https://u.payu.in/x"}, nil)
	f.linkRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	expiry := time.Now().Add(48 * time.Hour)
	_, err := f.uc.CreatePaymentLink(context.Background(), 42, &entities.CreatePaymentLinkInput{
		Amount:           decimal.RequireFromString("600"),
		PartialAllowed:   true,
		MinInitialAmount: decimal.RequireFromString("150.50"),
		Instalments:      3,
		ExpiryDate:       &expiry,
		Description:      "Balance",
	})
	require.NoError(t, err)
	assert.True(t, sent.IsPartialPaymentAllowed)
	assert.Equal(t, int64(60000), sent.SubAmount)
	assert.Equal(t, int64(15050), sent.MinAmountForCustomer)
	assert.Equal(t, 3, sent.NumberOfPayments)
	assert.Equal(t, expiry.Format(payu.ExpiryLayout), sent.ExpiryDate)
	assert.Equal(t, "Balance", sent.Description)
}

func TestPaymentLinkUsecase_CreatePaymentLink_Validation(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	tests := []struct {
		name    string
		settled []string
		order   func(o *entities.Order)
		input   entities.CreatePaymentLinkInput
		field   string
		message string
	}{
		{
			name:    "zero amount",
			input:   entities.CreatePaymentLinkInput{Amount: decimal.Zero},
			field:   "amount",
			message: "Payment amount must be greater than zero.",
		},
		{
			name:    "more than the order total",
			input:   entities.CreatePaymentLinkInput{Amount: decimal.NewFromInt(1500)},
			field:   "amount",
			message: "Payment amount must not exceed order total.",
		},
		{
			name:    "more than the remaining balance",
			settled: []string{"400", "400"},
			input:   entities.CreatePaymentLinkInput{Amount: decimal.NewFromInt(300)},
			field:   "amount",
			message: "Payment amount must not exceed order total.",
		},
		{
			name:    "expiry in the past",
			input:   entities.CreatePaymentLinkInput{Amount: decimal.NewFromInt(100), ExpiryDate: &past},
			field:   "expiryDate",
			message: "Expiry date must be in the future.",
		},
		{
			name:    "sms without phone",
			order:   func(o *entities.Order) { o.Billing.Phone = "" },
			input:   entities.CreatePaymentLinkInput{Amount: decimal.NewFromInt(100), NotifySMS: true, CustomerPhone: " "},
			field:   "customerPhone",
			message: "Please enter a mobile number when SMS is selected.",
		},
		{
			name:    "partial without minimum",
			input:   entities.CreatePaymentLinkInput{Amount: decimal.NewFromInt(100), PartialAllowed: true, Instalments: 2},
			field:   "minInitialPayment",
			message: "Minimum initial payment is required when partial payment is enabled.",
		},
		{
			name: "partial without instalments",
			input: entities.CreatePaymentLinkInput{
				Amount:           decimal.NewFromInt(100),
				PartialAllowed:   true,
				MinInitialAmount: decimal.NewFromInt(10),
			},
			field:   "numInstalments",
			message: "Number of instalments is required when partial payment is enabled.",
		},
		{
			name: "partial minimum above amount",
			input: entities.CreatePaymentLinkInput{
				Amount:           decimal.NewFromInt(100),
				PartialAllowed:   true,
				MinInitialAmount: decimal.NewFromInt(200),
				Instalments:      2,
			},
			field:   "minInitialPayment",
			message: "Minimum initial payment cannot be more than the payment amount.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLinkFixture()
			order := testOrder()
			if tt.order != nil {
				tt.order(order)
			}
			f.orderRepo.On("GetOrder", mock.Anything, int64(42)).Return(order, nil)
			settled := make([]*entities.Transaction, 0, len(tt.settled))
			for _, amount := range tt.settled {
				settled = append(settled, &entities.Transaction{Amount: decimal.RequireFromString(amount), Status: entities.TransactionStatusSuccess})
			}
			f.txnRepo.On("ListSettledByOrder", mock.Anything, int64(42)).Return(settled, nil)

			input := tt.input
			_, err := f.uc.CreatePaymentLink(context.Background(), 42, &input)
			require.Error(t, err)
			appErr, ok := domainerrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, appErr.Field)
			assert.Equal(t, tt.message, appErr.Message)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			f.gateway.AssertNotCalled(t, "CreatePaymentLink", mock.Anything, mock.Anything, mock.Anything)
			f.linkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestPaymentLinkUsecase_CreatePaymentLink_RetriesAfterUnauthorized(t *testing.T) {
	f := newLinkFixture()
	f.withOrder()
	f.configRepo.On("GetActiveByCurrency", mock.Anything, "INR").Return(f.config, nil)
	f.tokenRepo.On("FindUsable", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(cachedToken("stale"), nil).Once()
	f.tokenRepo.On("Invalidate", mock.Anything, "8800001", "uat", usecases.CreateScope.Hash()).Return(nil).Once()
	f.tokenRepo.On("FindUsable", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domainerrors.ErrNotFound).Once()
	f.gateway.On("FetchToken", mock.Anything, mock.Anything, usecases.CreateScope).
		Return(&payu.Token{AccessToken: "fresh", ExpiresIn: time.Hour}, nil).Once()
	f.tokenRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()

	f.gateway.On("CreatePaymentLink", mock.Anything, mock.MatchedBy(func(a payu.Auth) bool { return a.AccessToken == "stale" }), mock.Anything).
		Return(nil, payu.ErrUnauthorized).Once()
	f.gateway.On("CreatePaymentLink", mock.Anything, mock.MatchedBy(func(a payu.Auth) bool { return a.AccessToken == "fresh" }), mock.Anything).
		Return(&payu.CreatedLink{InvoiceNumber: "WC42-1234567890", URL: "https://u.payu.in/y"}, nil).Once()
	f.linkRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	link, err := f.uc.CreatePaymentLink(context.Background(), 42, &entities.CreatePaymentLinkInput{Amount: decimal.NewFromInt(250)})
	require.NoError(t, err)
	assert.Equal(t, "WC42-1234567890", link.InvoiceNumber)
	f.gateway.AssertNumberOfCalls(t, "CreatePaymentLink", 2)
	f.tokenRepo.AssertExpectations(t)
}

func TestPaymentLinkUsecase_CreatePaymentLink_Failures(t *testing.T) {
	t.Run("provider result error", func(t *testing.T) {
		f := newLinkFixture()
		f.withOrder()
		f.withProvider()
		f.gateway.On("CreatePaymentLink", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &payu.APIError{Kind: payu.KindResult, Message: "Invoice number already exists"})

		_, err := f.uc.CreatePaymentLink(context.Background(), 42, &entities.CreatePaymentLinkInput{Amount: decimal.NewFromInt(100)})
		appErr, ok := domainerrors.As(err)
		require.True(t, ok)
		assert.Equal(t, domainerrors.CodeProviderResult, appErr.Code)
		assert.Equal(t, "Invoice number already exists", appErr.Message)
		f.linkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("store failure after create", func(t *testing.T) {
		f := newLinkFixture()
		f.withOrder()
		f.withProvider()
		f.gateway.On("CreatePaymentLink", mock.Anything, mock.Anything, mock.Anything).
			Return(&payu.CreatedLink{InvoiceNumber: "WC42-aaaaaaaaaa", URL: "https://u.payu.in/z"}, nil)
		f.linkRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		_, err := f.uc.CreatePaymentLink(context.Background(), 42, &entities.CreatePaymentLinkInput{Amount: decimal.NewFromInt(100)})
		assert.ErrorIs(t, err, domainerrors.ErrPersistence)
	})

	t.Run("no active config for currency", func(t *testing.T) {
		f := newLinkFixture()
		f.withOrder()
		f.configRepo.On("GetActiveByCurrency", mock.Anything, "USD").Return(nil, domainerrors.ErrNotFound)

		_, err := f.uc.CreatePaymentLink(context.Background(), 42, &entities.CreatePaymentLinkInput{Amount: decimal.NewFromInt(100), Currency: "usd"})
		appErr, ok := domainerrors.As(err)
		require.True(t, ok)
		assert.Equal(t, "currency", appErr.Field)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newLinkFixture()
		f.orderRepo.On("GetOrder", mock.Anything, int64(7)).Return(nil, fmt.Errorf("orderstore: %w", domainerrors.ErrNotFound))

		_, err := f.uc.CreatePaymentLink(context.Background(), 7, &entities.CreatePaymentLinkInput{Amount: decimal.NewFromInt(100)})
		appErr, ok := domainerrors.As(err)
		require.True(t, ok)
		assert.Equal(t, domainerrors.CodeNotFound, appErr.Code)
	})
}

func TestPaymentLinkUsecase_OrderSummary(t *testing.T) {
	f := newLinkFixture()
	f.withOrder("400", "400")

	summary, err := f.uc.OrderSummary(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusPartiallyPaid, summary.Status)
	assert.True(t, summary.Paid.Equal(decimal.NewFromInt(800)))
	assert.True(t, summary.Remaining.Equal(decimal.NewFromInt(200)))
}

func TestPaymentLinkUsecase_SoftDeleteLink(t *testing.T) {
	f := newLinkFixture()
	id := uuid.New()
	f.linkRepo.On("SoftDelete", mock.Anything, id).Return(domainerrors.ErrNotFound)

	err := f.uc.SoftDeleteLink(context.Background(), id)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
