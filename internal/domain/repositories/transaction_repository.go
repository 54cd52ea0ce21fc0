package repositories

import (
	"context"

	"github.com/google/uuid"
	"payment-links.backend/internal/domain/entities"
)

// TransactionRepository stores payment attempts reported by webhook or poll.
type TransactionRepository interface {
	// Upsert is idempotent by provider transaction id, or by the natural key
	// (link, invoice, amount, status, occurred_at) when the id is missing.
	Upsert(ctx context.Context, txn *entities.Transaction) (created bool, err error)
	ListByPaymentLink(ctx context.Context, paymentLinkID uuid.UUID) ([]*entities.Transaction, error)
	// ListSettledByOrder returns SUCCESS/PAID transactions of the order's non-deleted links.
	ListSettledByOrder(ctx context.Context, orderID int64) ([]*entities.Transaction, error)
}
