package entities

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the canonical money status of a link or an order.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	// PaymentStatusFailed is display only and is never written to a link row.
	PaymentStatusFailed PaymentStatus = "FAILED"
)

// ResolvePaymentStatus is the single status rule shared by webhook, poll and order summaries.
func ResolvePaymentStatus(total, paid decimal.Decimal) PaymentStatus {
	if !total.IsPositive() {
		return PaymentStatusFailed
	}
	if paid.GreaterThanOrEqual(total) {
		return PaymentStatusPaid
	}
	if paid.IsPositive() {
		return PaymentStatusPartiallyPaid
	}
	return PaymentStatusFailed
}

// Stored maps a resolved status onto the values a link row may hold.
func (s PaymentStatus) Stored() PaymentStatus {
	switch s {
	case PaymentStatusPaid, PaymentStatusPartiallyPaid:
		return s
	}
	return PaymentStatusPending
}

// RemainingAmount is max(0, total - paid).
func RemainingAmount(total, paid decimal.Decimal) decimal.Decimal {
	remaining := total.Sub(paid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// SettledTotal sums the amounts of SUCCESS and PAID transactions.
func SettledTotal(txns []*Transaction) decimal.Decimal {
	settled := lo.Filter(txns, func(t *Transaction, _ int) bool {
		return t != nil && t.Status.Settled()
	})
	return lo.Reduce(settled, func(acc decimal.Decimal, t *Transaction, _ int) decimal.Decimal {
		return acc.Add(t.Amount)
	}, decimal.Zero)
}

// PaymentAggregate is the recomputed money state of one link.
type PaymentAggregate struct {
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    PaymentStatus   `json:"status"`
}

// Aggregate derives paid, remaining and status from a total and a paid amount.
func Aggregate(total, paid decimal.Decimal) PaymentAggregate {
	return PaymentAggregate{
		Total:     total,
		Paid:      paid,
		Remaining: RemainingAmount(total, paid),
		Status:    ResolvePaymentStatus(total, paid),
	}
}
