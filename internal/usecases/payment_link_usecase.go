package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/internal/domain/repositories"
	"payment-links.backend/internal/infrastructure/payu"
	"payment-links.backend/pkg/logger"
	"payment-links.backend/pkg/metrics"
)

// CredentialResolver finds the merchant account to use and unseals its secret.
type CredentialResolver interface {
	ActiveConfig(ctx context.Context, currency string) (*entities.CurrencyConfig, error)
	ResolveConfig(ctx context.Context, configID uuid.UUID, currency string) (*entities.CurrencyConfig, error)
	Credentials(cfg *entities.CurrencyConfig) (entities.Credentials, error)
}

// LinkOptions are deployment settings for new links.
type LinkOptions struct {
	CallbackBaseURL string
	InvoiceLength   int
}

// PaymentLinkUsecase creates and lists payment links for orders
type PaymentLinkUsecase struct {
	linkRepo  repositories.PaymentLinkRepository
	txnRepo   repositories.TransactionRepository
	orderRepo repositories.OrderRepository
	configs   CredentialResolver
	tokens    *TokenManager
	gateway   PayUGateway
	opts      LinkOptions
	now       func() time.Time
}

// NewPaymentLinkUsecase creates a new payment link usecase
func NewPaymentLinkUsecase(
	linkRepo repositories.PaymentLinkRepository,
	txnRepo repositories.TransactionRepository,
	orderRepo repositories.OrderRepository,
	configs CredentialResolver,
	tokens *TokenManager,
	gateway PayUGateway,
	opts LinkOptions,
) *PaymentLinkUsecase {
	if opts.InvoiceLength <= 0 {
		opts.InvoiceLength = DefaultInvoiceLength
	}
	return &PaymentLinkUsecase{
		linkRepo:  linkRepo,
		txnRepo:   txnRepo,
		orderRepo: orderRepo,
		configs:   configs,
		tokens:    tokens,
		gateway:   gateway,
		opts:      opts,
		now:       time.Now,
	}
}

// CreatePaymentLink validates the request against the order, creates the link
// at PayU and stores it. Nothing is written when any step fails.
func (u *PaymentLinkUsecase) CreatePaymentLink(ctx context.Context, orderID int64, input *entities.CreatePaymentLinkInput) (*entities.PaymentLink, error) {
	if input == nil {
		return nil, domainerrors.BadRequest("request body is required")
	}
	order, err := u.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	summary, err := u.summarize(ctx, order)
	if err != nil {
		return nil, err
	}

	customer := customerFor(order, input)
	if err := u.validate(input, summary, customer); err != nil {
		return nil, err
	}

	currency := normalizeCurrency(input.Currency)
	if currency == "" {
		currency = order.Currency
	}
	cfg, err := u.configs.ActiveConfig(ctx, currency)
	if err != nil {
		return nil, err
	}
	creds, err := u.configs.Credentials(cfg)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithMerchant(ctx, creds.MerchantID)

	invoice, err := generateInvoiceNumber(order.ID, u.opts.InvoiceLength)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithInvoice(ctx, invoice)

	req := u.buildRequest(order, input, invoice, currency, customer)
	var created *payu.CreatedLink
	err = u.tokens.WithToken(ctx, creds, CreateScope, func(auth payu.Auth) error {
		var callErr error
		created, callErr = u.gateway.CreatePaymentLink(ctx, auth, req)
		return callErr
	})
	if err != nil {
		logger.Error(ctx, "PayU payment link creation failed", zap.Error(err))
		return nil, providerError(err)
	}

	link := &entities.PaymentLink{
		OrderID:         order.ID,
		ConfigID:        cfg.ID,
		InvoiceNumber:   created.InvoiceNumber,
		PaymentLinkURL:  created.URL,
		Currency:        currency,
		Description:     req.Description,
		Amount:          input.Amount,
		PaidAmount:      decimal.Zero,
		RemainingAmount: input.Amount,
		Status:          entities.PaymentStatusPending,
		LinkStatus:      entities.LinkStatusActive,
		PartialPayment: entities.PartialPaymentTerms{
			Allowed:          input.PartialAllowed,
			MinInitialAmount: input.MinInitialAmount,
			Instalments:      input.Instalments,
		},
		Customer: customer,
		Notify: entities.NotifyFlags{
			Email: input.NotifyEmail,
			SMS:   input.NotifySMS,
		},
		ProviderResponse: null.JSONFrom(created.Raw),
	}
	if input.ExpiryDate != nil {
		link.ExpiryDate = null.TimeFrom(*input.ExpiryDate)
	}
	if err := u.linkRepo.Create(ctx, link); err != nil {
		logger.Error(ctx, "Failed to store payment link", zap.Error(err))
		return nil, domainerrors.Persistence(msgLinkSaveFailed, err)
	}

	metrics.LinksCreated.WithLabelValues(currency).Inc()
	logger.Info(ctx, "Payment link created",
		zap.Int64("order_id", order.ID),
		zap.String("amount", link.Amount.String()),
		zap.String("currency", currency),
	)
	return link, nil
}

func (u *PaymentLinkUsecase) validate(input *entities.CreatePaymentLinkInput, summary *entities.OrderPaymentSummary, customer entities.CustomerSnapshot) error {
	if !input.Amount.IsPositive() {
		return domainerrors.Validation("amount", "Payment amount must be greater than zero.")
	}
	if input.Amount.GreaterThan(summary.Remaining) {
		return domainerrors.Validation("amount", "Payment amount must not exceed order total.")
	}
	if input.ExpiryDate != nil && !input.ExpiryDate.After(u.now()) {
		return domainerrors.Validation("expiryDate", "Expiry date must be in the future.")
	}
	if input.NotifyEmail && customer.Email == "" {
		return domainerrors.Validation("customerEmail", "Please enter an email address when Email is selected.")
	}
	if input.NotifySMS && customer.Phone == "" {
		return domainerrors.Validation("customerPhone", "Please enter a mobile number when SMS is selected.")
	}
	if input.PartialAllowed {
		if !input.MinInitialAmount.IsPositive() {
			return domainerrors.Validation("minInitialPayment", "Minimum initial payment is required when partial payment is enabled.")
		}
		if input.Instalments <= 0 {
			return domainerrors.Validation("numInstalments", "Number of instalments is required when partial payment is enabled.")
		}
		if input.MinInitialAmount.GreaterThan(input.Amount) {
			return domainerrors.Validation("minInitialPayment", "Minimum initial payment cannot be more than the payment amount.")
		}
	}
	return nil
}

func (u *PaymentLinkUsecase) buildRequest(order *entities.Order, input *entities.CreatePaymentLinkInput, invoice, currency string, customer entities.CustomerSnapshot) *payu.CreateLinkRequest {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		number := order.Number
		if number == "" {
			number = strconv.FormatInt(order.ID, 10)
		}
		description = fmt.Sprintf(defaultDescription, number)
	}
	base := strings.TrimRight(u.opts.CallbackBaseURL, "/")
	escaped := url.PathEscape(invoice)

	req := &payu.CreateLinkRequest{
		InvoiceNumber:           invoice,
		SubAmount:               payu.ToSubunits(input.Amount),
		Currency:                currency,
		Description:             description,
		Source:                  LinkSource,
		IsPartialPaymentAllowed: input.PartialAllowed,
		Customer: payu.Customer{
			Name:  customer.Name,
			Email: customer.Email,
			Phone: customer.Phone,
		},
		ViaEmail:   input.NotifyEmail,
		ViaSMS:     input.NotifySMS,
		SuccessURL: base + fmt.Sprintf(successPath, escaped),
		FailureURL: base + fmt.Sprintf(failurePath, escaped),
		UDF: payu.UDF{
			UDF1: invoice,
			UDF2: strconv.FormatInt(order.ID, 10),
		},
	}
	if input.PartialAllowed {
		req.MinAmountForCustomer = payu.ToSubunits(input.MinInitialAmount)
		req.NumberOfPayments = input.Instalments
	}
	if input.ExpiryDate != nil {
		req.ExpiryDate = input.ExpiryDate.Format(payu.ExpiryLayout)
	}
	return req
}

// customerFor prefers the request's contact details over the order billing.
func customerFor(order *entities.Order, input *entities.CreatePaymentLinkInput) entities.CustomerSnapshot {
	pick := func(override, fallback string) string {
		if v := strings.TrimSpace(override); v != "" {
			return v
		}
		return strings.TrimSpace(fallback)
	}
	return entities.CustomerSnapshot{
		Name:  pick(input.CustomerName, order.Billing.FullName()),
		Email: pick(input.CustomerEmail, order.Billing.Email),
		Phone: pick(input.CustomerPhone, order.Billing.Phone),
	}
}

// ListByOrder returns the order's links, latest first.
func (u *PaymentLinkUsecase) ListByOrder(ctx context.Context, orderID int64) ([]*entities.PaymentLink, error) {
	return u.linkRepo.ListByOrder(ctx, orderID)
}

// OrderSummary aggregates settled transactions across the order's links.
func (u *PaymentLinkUsecase) OrderSummary(ctx context.Context, orderID int64) (*entities.OrderPaymentSummary, error) {
	order, err := u.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return u.summarize(ctx, order)
}

func (u *PaymentLinkUsecase) summarize(ctx context.Context, order *entities.Order) (*entities.OrderPaymentSummary, error) {
	settled, err := u.txnRepo.ListSettledByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	summary := entities.NewOrderPaymentSummary(order, entities.SettledTotal(settled))
	return &summary, nil
}

// SoftDeleteLink hides a link from listings and lookups.
func (u *PaymentLinkUsecase) SoftDeleteLink(ctx context.Context, id uuid.UUID) error {
	if err := u.linkRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("Payment link not found.")
		}
		return err
	}
	return nil
}

func (u *PaymentLinkUsecase) getOrder(ctx context.Context, orderID int64) (*entities.Order, error) {
	if orderID <= 0 {
		return nil, domainerrors.Validation("orderId", "Invalid order id.")
	}
	order, err := u.orderRepo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(msgOrderNotFound)
		}
		return nil, err
	}
	return order, nil
}
