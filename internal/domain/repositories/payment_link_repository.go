package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"payment-links.backend/internal/domain/entities"
)

// PaymentLinkRepository defines payment link persistence
type PaymentLinkRepository interface {
	Create(ctx context.Context, link *entities.PaymentLink) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.PaymentLink, error)
	GetByInvoice(ctx context.Context, invoice string) (*entities.PaymentLink, error)
	// GetByInvoiceForUpdate locks the row for the rest of the surrounding transaction.
	GetByInvoiceForUpdate(ctx context.Context, invoice string) (*entities.PaymentLink, error)
	GetLatestByOrder(ctx context.Context, orderID int64) (*entities.PaymentLink, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*entities.PaymentLink, error)
	UpdateAggregate(ctx context.Context, id uuid.UUID, agg entities.PaymentAggregate) error
	// SaveReconciliation writes amounts, statuses and the raw provider payload,
	// matching by id and falling back to invoice number.
	SaveReconciliation(ctx context.Context, link *entities.PaymentLink) error
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*entities.PaymentLink, error)
	MarkExpired(ctx context.Context, ids []uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
