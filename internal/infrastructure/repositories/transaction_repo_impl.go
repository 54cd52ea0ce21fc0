package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"payment-links.backend/internal/domain/entities"
	"payment-links.backend/internal/infrastructure/models"
	"payment-links.backend/pkg/utils"
)

var transactionMutableColumns = []string{
	"amount", "status", "payment_mode", "pg_type", "bank_code", "bank_reference",
	"card_number", "card_type", "issuing_bank", "name_on_card", "payment_source",
	"payer_name", "payer_email", "payer_phone", "raw_payload", "occurred_at", "updated_at",
}

// TransactionRepositoryImpl implements TransactionRepository
type TransactionRepositoryImpl struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepositoryImpl {
	return &TransactionRepositoryImpl{db: db}
}

func (r *TransactionRepositoryImpl) Upsert(ctx context.Context, txn *entities.Transaction) (bool, error) {
	if txn.TransactionID.Valid && txn.TransactionID.String != "" {
		return r.upsertByProviderID(ctx, txn)
	}
	return r.insertUnlessDuplicate(ctx, txn)
}

func (r *TransactionRepositoryImpl) upsertByProviderID(ctx context.Context, txn *entities.Transaction) (bool, error) {
	db := GetDB(ctx, r.db)
	providerID := txn.TransactionID.String

	existing, err := r.findByProviderID(db, providerID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		// A poll may have stored this payment before its id was known.
		if existing, err = r.findMatch(db, txn, true); err != nil {
			return false, err
		}
	}
	if existing != nil {
		return false, r.merge(db, existing, txn)
	}

	now := time.Now()
	m := r.toModel(txn)
	m.ID = utils.GenerateUUIDv7()
	m.CreatedAt = now
	m.UpdatedAt = now
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoNothing: true,
	}).Create(m)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		// A concurrent delivery inserted the row first.
		if existing, err = r.findByProviderID(db, providerID); err != nil {
			return false, err
		}
		if existing == nil {
			return false, fmt.Errorf("transaction %s missing after insert conflict", providerID)
		}
		return false, r.merge(db, existing, txn)
	}

	txn.ID = m.ID
	txn.CreatedAt = now
	txn.UpdatedAt = now
	return true, nil
}

// merge applies a repeat report of a stored payment. A report that does not
// supersede the stored status leaves the row untouched and txn mirrors it.
func (r *TransactionRepositoryImpl) merge(db *gorm.DB, existing *models.Transaction, txn *entities.Transaction) error {
	txn.ID = existing.ID
	txn.PaymentLinkID = existing.PaymentLinkID
	txn.CreatedAt = existing.CreatedAt

	stored := entities.TransactionStatus(existing.Status)
	if !txn.Status.Supersedes(stored) {
		txn.Status = stored
		txn.Amount = existing.Amount
		txn.UpdatedAt = existing.UpdatedAt
		return nil
	}

	now := time.Now()
	m := r.toModel(txn)
	m.UpdatedAt = now
	if m.OccurredAt == nil {
		m.OccurredAt = existing.OccurredAt
	}

	columns := transactionMutableColumns
	if existing.TransactionID == nil && m.TransactionID != nil {
		columns = append(append([]string{}, transactionMutableColumns...), "transaction_id")
	}
	if err := db.Model(&models.Transaction{}).
		Where("id = ?", existing.ID).
		Select(columns).
		Updates(m).Error; err != nil {
		return err
	}
	txn.UpdatedAt = now
	return nil
}

func (r *TransactionRepositoryImpl) findByProviderID(db *gorm.DB, providerID string) (*models.Transaction, error) {
	var rows []models.Transaction
	if err := db.Where("transaction_id = ?", providerID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// findMatch looks for a stored report of the same payment by its natural key
// (link, invoice, status, amount and occurrence time when both sides know it).
// unkeyedOnly restricts the search to rows stored without a provider id.
func (r *TransactionRepositoryImpl) findMatch(db *gorm.DB, txn *entities.Transaction, unkeyedOnly bool) (*models.Transaction, error) {
	q := db.Where("payment_link_id = ? AND invoice_number = ? AND status = ?",
		txn.PaymentLinkID, txn.InvoiceNumber, string(txn.Status))
	if unkeyedOnly {
		q = q.Where("transaction_id IS NULL")
	}

	var candidates []models.Transaction
	if err := q.Order("created_at ASC").Find(&candidates).Error; err != nil {
		return nil, err
	}

	match, found := lo.Find(candidates, func(c models.Transaction) bool {
		if !c.Amount.Equal(txn.Amount) {
			return false
		}
		if !txn.OccurredAt.Valid || c.OccurredAt == nil {
			return true
		}
		return c.OccurredAt.Equal(txn.OccurredAt.Time)
	})
	if !found {
		return nil, nil
	}
	return &match, nil
}

// insertUnlessDuplicate stores a report without a provider id unless any
// stored row already describes the same payment.
func (r *TransactionRepositoryImpl) insertUnlessDuplicate(ctx context.Context, txn *entities.Transaction) (bool, error) {
	db := GetDB(ctx, r.db)

	dup, err := r.findMatch(db, txn, false)
	if err != nil {
		return false, err
	}
	if dup != nil {
		txn.ID = dup.ID
		txn.CreatedAt = dup.CreatedAt
		txn.UpdatedAt = dup.UpdatedAt
		if dup.TransactionID != nil {
			txn.TransactionID = null.StringFrom(*dup.TransactionID)
		}
		return false, nil
	}

	now := time.Now()
	m := r.toModel(txn)
	m.ID = utils.GenerateUUIDv7()
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := db.Create(m).Error; err != nil {
		return false, err
	}
	txn.ID = m.ID
	txn.CreatedAt = now
	txn.UpdatedAt = now
	return true, nil
}

func (r *TransactionRepositoryImpl) ListByPaymentLink(ctx context.Context, paymentLinkID uuid.UUID) ([]*entities.Transaction, error) {
	var ms []models.Transaction
	if err := GetDB(ctx, r.db).
		Where("payment_link_id = ?", paymentLinkID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.toEntities(ms), nil
}

func (r *TransactionRepositoryImpl) ListSettledByOrder(ctx context.Context, orderID int64) ([]*entities.Transaction, error) {
	var ms []models.Transaction
	if err := GetDB(ctx, r.db).
		Table(models.Transaction{}.TableName()+" AS t").
		Select("t.*").
		Joins("JOIN "+models.PaymentLink{}.TableName()+" AS l ON l.id = t.payment_link_id").
		Where("l.order_id = ? AND l.is_deleted = ?", orderID, false).
		Where("t.status IN ?", []string{string(entities.TransactionStatusSuccess), string(entities.TransactionStatusPaid)}).
		Order("t.created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.toEntities(ms), nil
}

func (r *TransactionRepositoryImpl) toEntities(ms []models.Transaction) []*entities.Transaction {
	return lo.Map(ms, func(m models.Transaction, _ int) *entities.Transaction {
		return r.toEntity(&m)
	})
}

func (r *TransactionRepositoryImpl) toModel(txn *entities.Transaction) *models.Transaction {
	m := &models.Transaction{
		ID:                  txn.ID,
		PaymentLinkID:       txn.PaymentLinkID,
		MerchantReferenceID: txn.MerchantReferenceID,
		InvoiceNumber:       txn.InvoiceNumber,
		Amount:              txn.Amount,
		Status:              string(txn.Status),
		PaymentMode:         txn.Instrument.PaymentMode,
		PGType:              txn.Instrument.PGType,
		BankCode:            txn.Instrument.BankCode,
		BankReference:       txn.Instrument.BankReference,
		CardNumber:          txn.Instrument.CardNumber,
		CardType:            txn.Instrument.CardType,
		IssuingBank:         txn.Instrument.IssuingBank,
		NameOnCard:          txn.Instrument.NameOnCard,
		PaymentSource:       txn.Instrument.Source,
		PayerName:           txn.Payer.Name,
		PayerEmail:          txn.Payer.Email,
		PayerPhone:          txn.Payer.Phone,
	}
	if txn.TransactionID.Valid && txn.TransactionID.String != "" {
		id := txn.TransactionID.String
		m.TransactionID = &id
	}
	if txn.RawPayload.Valid {
		m.RawPayload = txn.RawPayload.JSON
	}
	if txn.OccurredAt.Valid {
		at := txn.OccurredAt.Time
		m.OccurredAt = &at
	}
	return m
}

func (r *TransactionRepositoryImpl) toEntity(m *models.Transaction) *entities.Transaction {
	txn := &entities.Transaction{
		ID:                  m.ID,
		PaymentLinkID:       m.PaymentLinkID,
		MerchantReferenceID: m.MerchantReferenceID,
		InvoiceNumber:       m.InvoiceNumber,
		Amount:              m.Amount,
		Status:              entities.TransactionStatus(m.Status),
		Instrument: entities.PaymentInstrument{
			PaymentMode:   m.PaymentMode,
			PGType:        m.PGType,
			BankCode:      m.BankCode,
			BankReference: m.BankReference,
			CardNumber:    m.CardNumber,
			CardType:      m.CardType,
			IssuingBank:   m.IssuingBank,
			NameOnCard:    m.NameOnCard,
			Source:        m.PaymentSource,
		},
		Payer: entities.CustomerSnapshot{
			Name:  m.PayerName,
			Email: m.PayerEmail,
			Phone: m.PayerPhone,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.TransactionID != nil {
		txn.TransactionID = null.StringFrom(*m.TransactionID)
	}
	if len(m.RawPayload) > 0 {
		txn.RawPayload = null.JSONFrom(m.RawPayload)
	}
	if m.OccurredAt != nil {
		txn.OccurredAt = null.TimeFrom(*m.OccurredAt)
	}
	return txn
}
