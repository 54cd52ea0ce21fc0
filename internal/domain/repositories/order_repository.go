package repositories

import (
	"context"

	"payment-links.backend/internal/domain/entities"
)

// OrderRepository reads orders from the host shop.
type OrderRepository interface {
	GetOrder(ctx context.Context, orderID int64) (*entities.Order, error)
}

// OrderNotifier writes payment outcomes back to the host shop.
type OrderNotifier interface {
	MarkPaid(ctx context.Context, orderID int64, transactionID string) error
	AddNote(ctx context.Context, orderID int64, note string) error
}
