package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/internal/domain/repositories"
	"payment-links.backend/internal/infrastructure/payu"
	"payment-links.backend/pkg/logger"
	"payment-links.backend/pkg/metrics"
)

type noopNotifier struct{}

func (noopNotifier) MarkPaid(context.Context, int64, string) error { return nil }
func (noopNotifier) AddNote(context.Context, int64, string) error  { return nil }

// ReconciliationUsecase converges local link state with PayU through webhooks and polls
type ReconciliationUsecase struct {
	linkRepo  repositories.PaymentLinkRepository
	txnRepo   repositories.TransactionRepository
	orderRepo repositories.OrderRepository
	uow       repositories.UnitOfWork
	configs   CredentialResolver
	tokens    *TokenManager
	gateway   PayUGateway
	notifier  repositories.OrderNotifier
	now       func() time.Time
}

// NewReconciliationUsecase creates a new reconciliation usecase. notifier may be nil.
func NewReconciliationUsecase(
	linkRepo repositories.PaymentLinkRepository,
	txnRepo repositories.TransactionRepository,
	orderRepo repositories.OrderRepository,
	uow repositories.UnitOfWork,
	configs CredentialResolver,
	tokens *TokenManager,
	gateway PayUGateway,
	notifier repositories.OrderNotifier,
) *ReconciliationUsecase {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ReconciliationUsecase{
		linkRepo:  linkRepo,
		txnRepo:   txnRepo,
		orderRepo: orderRepo,
		uow:       uow,
		configs:   configs,
		tokens:    tokens,
		gateway:   gateway,
		notifier:  notifier,
		now:       time.Now,
	}
}

// HandleWebhook processes one PayU notification. It never fails: every error
// is logged and the returned outcome only feeds metrics.
func (u *ReconciliationUsecase) HandleWebhook(ctx context.Context, form url.Values) string {
	outcome := u.handleWebhook(ctx, form)
	metrics.WebhookDeliveries.WithLabelValues(outcome).Inc()
	return outcome
}

func (u *ReconciliationUsecase) handleWebhook(ctx context.Context, form url.Values) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "PayU webhook panicked", zap.Any("panic", r))
			outcome = metrics.OutcomeError
		}
	}()

	audit := payu.AuditFields(form)
	logger.Info(ctx, "PayU webhook received", zap.Any("fields", lo.OmitByKeys(audit, []string{"hash", "key"})))

	n, err := payu.ParseWebhook(form)
	if err != nil {
		logger.Warn(ctx, "PayU webhook ignored", zap.Error(err))
		return metrics.OutcomeIgnored
	}
	ctx = logger.WithInvoice(ctx, n.InvoiceNumber)

	txn := transactionFromRecord(n.Record, n.InvoiceNumber)
	link, becamePaid, err := u.applyWebhook(ctx, txn)
	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		logger.Info(ctx, "PayU webhook for unknown invoice acknowledged")
		return metrics.OutcomeIgnored
	case err != nil:
		logger.Error(ctx, "Failed to apply PayU webhook", zap.Error(err))
		return metrics.OutcomeError
	}

	if becamePaid {
		u.notifyPaid(ctx, link, txn.TransactionID.String)
	}
	logger.Info(ctx, "PayU webhook applied",
		zap.String("transaction_id", txn.TransactionID.String),
		zap.String("status", string(txn.Status)),
		zap.String("link_status", string(link.Status)),
	)
	return metrics.OutcomeOK
}

// applyWebhook upserts the transaction and recomputes the link from its
// settled transactions under a row lock.
func (u *ReconciliationUsecase) applyWebhook(ctx context.Context, txn *entities.Transaction) (*entities.PaymentLink, bool, error) {
	var (
		link       *entities.PaymentLink
		becamePaid bool
	)
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		locked, err := u.linkRepo.GetByInvoiceForUpdate(txCtx, txn.InvoiceNumber)
		if err != nil {
			return err
		}
		txn.PaymentLinkID = locked.ID
		if _, err := u.txnRepo.Upsert(txCtx, txn); err != nil {
			return err
		}
		txns, err := u.txnRepo.ListByPaymentLink(txCtx, locked.ID)
		if err != nil {
			return err
		}

		agg := entities.Aggregate(locked.Amount, entities.SettledTotal(txns))
		if err := u.linkRepo.UpdateAggregate(txCtx, locked.ID, agg); err != nil {
			return err
		}
		becamePaid = locked.Status != entities.PaymentStatusPaid && agg.Status == entities.PaymentStatusPaid
		locked.ApplyAggregate(agg)
		link = locked
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return link, becamePaid, nil
}

// Poll queries PayU for the link behind invoice and stores what it reports.
func (u *ReconciliationUsecase) Poll(ctx context.Context, invoice string) (view *entities.PaymentLinkStatusView, err error) {
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
			if errors.Is(err, domainerrors.ErrNotYetAvailable) {
				outcome = metrics.OutcomeNotYet
			}
		}
		metrics.Polls.WithLabelValues(outcome).Inc()
	}()

	invoice = strings.TrimSpace(invoice)
	if invoice == "" {
		return nil, domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeInvalidInvoice, msgInvalidInvoice, domainerrors.ErrValidation)
	}
	link, err := u.findLink(ctx, invoice)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithInvoice(ctx, link.InvoiceNumber)

	cfg, err := u.configs.ResolveConfig(ctx, link.ConfigID, link.Currency)
	if err != nil {
		return nil, err
	}
	creds, err := u.configs.Credentials(cfg)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithMerchant(ctx, creds.MerchantID)

	var details *payu.LinkDetails
	err = u.tokens.WithToken(ctx, creds, ReadScope, func(auth payu.Auth) error {
		var callErr error
		details, callErr = u.gateway.GetPaymentLink(ctx, auth, link.InvoiceNumber)
		return callErr
	})
	if err != nil {
		logger.Warn(ctx, "PayU link lookup failed", zap.Error(err))
		return nil, providerError(err)
	}

	now := u.now()
	var records []payu.TransactionRecord
	err = u.tokens.WithToken(ctx, creds, ReadScope, func(auth payu.Auth) error {
		var callErr error
		records, callErr = u.gateway.GetTransactions(ctx, auth, link.InvoiceNumber, startOfDay(link.CreatedAt), now)
		return callErr
	})
	if err != nil {
		logger.Warn(ctx, "PayU transaction lookup failed", zap.Error(err))
		return nil, providerError(err)
	}
	if len(records) == 0 {
		return nil, domainerrors.NotYetAvailable(msgNoTransactions)
	}

	txns := lo.Map(records, func(rec payu.TransactionRecord, _ int) *entities.Transaction {
		return transactionFromRecord(rec, link.InvoiceNumber)
	})
	saved, agg, becamePaid, err := u.applyPoll(ctx, link, details, txns)
	if err != nil {
		logger.Error(ctx, "Failed to save polled payment status", zap.Error(err))
		return nil, domainerrors.Persistence(msgPersistFailed, err)
	}

	if becamePaid {
		paid := lo.Filter(txns, func(t *entities.Transaction, _ int) bool { return t.Status.Settled() })
		reference := ""
		if len(paid) > 0 {
			reference = paid[len(paid)-1].TransactionID.String
		}
		u.notifyPaid(ctx, saved, reference)
	}

	all, err := u.txnRepo.ListByPaymentLink(ctx, saved.ID)
	if err != nil {
		all = txns
	}
	return &entities.PaymentLinkStatusView{
		InvoiceNumber: saved.InvoiceNumber,
		OrderRef:      orderReference(saved.OrderID),
		Currency:      saved.Currency,
		Status:        agg.Status,
		LinkStatus:    saved.LinkStatus,
		Total:         agg.Total,
		Paid:          agg.Paid,
		Remaining:     agg.Remaining,
		Transactions: lo.Map(all, func(t *entities.Transaction, _ int) *entities.TransactionView {
			return t.View()
		}),
	}, nil
}

// applyPoll stores the provider view of the link and its transactions. The
// paid amount never drops below what the stored settled transactions prove,
// so a poll and a webhook racing each other converge.
func (u *ReconciliationUsecase) applyPoll(ctx context.Context, link *entities.PaymentLink, details *payu.LinkDetails, txns []*entities.Transaction) (*entities.PaymentLink, entities.PaymentAggregate, bool, error) {
	var (
		saved      *entities.PaymentLink
		agg        entities.PaymentAggregate
		becamePaid bool
	)
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		locked, err := u.linkRepo.GetByInvoiceForUpdate(txCtx, link.InvoiceNumber)
		if err != nil {
			return err
		}
		for _, txn := range txns {
			txn.PaymentLinkID = locked.ID
			if _, err := u.txnRepo.Upsert(txCtx, txn); err != nil {
				return err
			}
		}
		stored, err := u.txnRepo.ListByPaymentLink(txCtx, locked.ID)
		if err != nil {
			return err
		}

		total, ok := details.Amount(payu.TotalAmountKeys)
		if !ok || !total.IsPositive() {
			total = locked.Amount
		}
		settled := entities.SettledTotal(stored)
		paid, ok := details.Amount(payu.PaidAmountKeys)
		if !ok || paid.LessThan(settled) {
			paid = settled
		}

		agg = entities.Aggregate(total, paid)
		becamePaid = locked.Status != entities.PaymentStatusPaid && agg.Status == entities.PaymentStatusPaid
		locked.ApplyAggregate(agg)
		locked.LinkStatus = linkLifecycle(details)
		locked.ProviderResponse = null.JSONFrom(details.Raw)
		if expiry := details.ExpiryDate(); expiry.Valid {
			locked.ExpiryDate = expiry
		}
		if err := u.linkRepo.SaveReconciliation(txCtx, locked); err != nil {
			return err
		}
		saved = locked
		return nil
	})
	return saved, agg, becamePaid, err
}

// findLink looks the invoice up directly, then as a bare order reference.
func (u *ReconciliationUsecase) findLink(ctx context.Context, invoice string) (*entities.PaymentLink, error) {
	link, err := u.linkRepo.GetByInvoice(ctx, invoice)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}
	if orderID, ok := parseOrderReference(invoice); ok {
		link, err = u.linkRepo.GetLatestByOrder(ctx, orderID)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, domainerrors.ErrNotFound) {
			return nil, err
		}
	}
	return nil, domainerrors.NewAppError(http.StatusNotFound, domainerrors.CodeNoLink, msgNoLink, domainerrors.ErrNotFound)
}

// notifyPaid tells the order store about a link reaching PAID and marks the
// order paid once nothing remains. Failures are logged only.
func (u *ReconciliationUsecase) notifyPaid(ctx context.Context, link *entities.PaymentLink, transactionID string) {
	if _, ok := u.notifier.(noopNotifier); ok {
		return
	}
	note := fmt.Sprintf("PayU payment link %s fully paid (%s %s).", link.InvoiceNumber, link.PaidAmount.StringFixed(2), link.Currency)
	if transactionID != "" {
		note += " PayU ID: " + transactionID
	}
	if err := u.notifier.AddNote(ctx, link.OrderID, note); err != nil {
		logger.Warn(ctx, "Failed to add order note", zap.Int64("order_id", link.OrderID), zap.Error(err))
	}

	order, err := u.orderRepo.GetOrder(ctx, link.OrderID)
	if err != nil {
		logger.Warn(ctx, "Failed to load order", zap.Int64("order_id", link.OrderID), zap.Error(err))
		return
	}
	settled, err := u.txnRepo.ListSettledByOrder(ctx, link.OrderID)
	if err != nil {
		logger.Warn(ctx, "Failed to load order payments", zap.Int64("order_id", link.OrderID), zap.Error(err))
		return
	}
	summary := entities.NewOrderPaymentSummary(order, entities.SettledTotal(settled))
	if summary.Status != entities.PaymentStatusPaid {
		return
	}
	if err := u.notifier.MarkPaid(ctx, link.OrderID, transactionID); err != nil {
		logger.Warn(ctx, "Failed to mark order paid", zap.Int64("order_id", link.OrderID), zap.Error(err))
	}
}

// linkLifecycle maps the provider link status onto the local lifecycle.
func linkLifecycle(details *payu.LinkDetails) entities.LinkStatus {
	switch strings.ToUpper(details.Status()) {
	case "EXPIRED":
		return entities.LinkStatusExpired
	case "DEACTIVATED", "INACTIVE":
		return entities.LinkStatusDeactivated
	}
	if active, ok := details.Active(); ok && !active {
		return entities.LinkStatusDeactivated
	}
	return entities.LinkStatusActive
}

func transactionFromRecord(rec payu.TransactionRecord, invoice string) *entities.Transaction {
	txn := &entities.Transaction{
		MerchantReferenceID: rec.MerchantReferenceID,
		InvoiceNumber:       invoice,
		Amount:              rec.Amount,
		Status:              entities.NormalizeTransactionStatus(rec.Status, rec.ErrorCode),
		Instrument: entities.PaymentInstrument{
			PaymentMode:   rec.PaymentMode,
			PGType:        rec.PGType,
			BankCode:      rec.BankCode,
			BankReference: rec.BankReference,
			CardNumber:    rec.CardNumber,
			CardType:      rec.CardType,
			IssuingBank:   rec.IssuingBank,
			NameOnCard:    rec.NameOnCard,
			Source:        rec.Source,
		},
		Payer: entities.CustomerSnapshot{
			Name:  rec.PayerName,
			Email: rec.PayerEmail,
			Phone: rec.PayerPhone,
		},
		OccurredAt: rec.OccurredAt,
	}
	if rec.TransactionID != "" {
		txn.TransactionID = null.StringFrom(rec.TransactionID)
	}
	if len(rec.Raw) > 0 {
		txn.RawPayload = null.JSONFrom(rec.Raw)
	}
	return txn
}
