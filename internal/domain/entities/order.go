package entities

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Order is the host shop order a link collects money for.
type Order struct {
	ID       int64           `json:"id"`
	Number   string          `json:"number"`
	Status   string          `json:"status"`
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
	Billing  OrderBilling    `json:"billing"`
}

// OrderBilling is the subset of billing details PayU needs.
type OrderBilling struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// FullName joins first and last name.
func (b OrderBilling) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

// OrderPaymentSummary aggregates successful transactions across all links of an order.
type OrderPaymentSummary struct {
	OrderID   int64           `json:"orderId"`
	Currency  string          `json:"currency"`
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    PaymentStatus   `json:"status"`
}

// NewOrderPaymentSummary applies the shared status rule at order level.
func NewOrderPaymentSummary(order *Order, paid decimal.Decimal) OrderPaymentSummary {
	agg := Aggregate(order.Total, paid)
	return OrderPaymentSummary{
		OrderID:   order.ID,
		Currency:  order.Currency,
		Total:     agg.Total,
		Paid:      agg.Paid,
		Remaining: agg.Remaining,
		Status:    agg.Status,
	}
}
