package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// LinkStatus is the lifecycle of the hosted link itself, independent of money.
type LinkStatus string

const (
	LinkStatusActive      LinkStatus = "active"
	LinkStatusExpired     LinkStatus = "expired"
	LinkStatusDeactivated LinkStatus = "deactivated"
)

// PartialPaymentTerms controls instalment payments on a link.
type PartialPaymentTerms struct {
	Allowed          bool            `json:"allowed"`
	MinInitialAmount decimal.Decimal `json:"minInitialAmount"`
	Instalments      int             `json:"instalments"`
}

// CustomerSnapshot is copied from the order billing details at creation.
type CustomerSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// NotifyFlags ask PayU to deliver the link to the customer.
type NotifyFlags struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
}

// PaymentLink represents a hosted PayU payment link for an order
type PaymentLink struct {
	ID               uuid.UUID           `json:"id"`
	OrderID          int64               `json:"orderId"`
	ConfigID         uuid.UUID           `json:"configId"`
	InvoiceNumber    string              `json:"invoiceNumber"`
	PaymentLinkURL   string              `json:"paymentLinkUrl"`
	Currency         string              `json:"currency"`
	Description      string              `json:"description"`
	Amount           decimal.Decimal     `json:"amount"`
	PaidAmount       decimal.Decimal     `json:"paidAmount"`
	RemainingAmount  decimal.Decimal     `json:"remainingAmount"`
	Status           PaymentStatus       `json:"status"`
	LinkStatus       LinkStatus          `json:"paymentLinkStatus"`
	ExpiryDate       null.Time           `json:"expiryDate"`
	PartialPayment   PartialPaymentTerms `json:"partialPayment"`
	Customer         CustomerSnapshot    `json:"customer"`
	Notify           NotifyFlags         `json:"notify"`
	ProviderResponse null.JSON           `json:"-"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
	IsDeleted        bool                `json:"-"`
}

// ApplyAggregate copies a recomputed aggregate onto the link, keeping the
// stored status within PENDING, PAID and PARTIALLY_PAID.
func (l *PaymentLink) ApplyAggregate(agg PaymentAggregate) {
	l.Amount = agg.Total
	l.PaidAmount = agg.Paid
	l.RemainingAmount = agg.Remaining
	l.Status = agg.Status.Stored()
}

// CreatePaymentLinkInput is the admin request for a new link.
type CreatePaymentLinkInput struct {
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Description      string          `json:"description"`
	ExpiryDate       *time.Time      `json:"expiryDate"`
	PartialAllowed   bool            `json:"isPartialPaymentAllowed"`
	MinInitialAmount decimal.Decimal `json:"minInitialPayment"`
	Instalments      int             `json:"numInstalments"`
	NotifyEmail      bool            `json:"notifyEmail"`
	NotifySMS        bool            `json:"notifySms"`

	// Customer fields override the order billing details when set.
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
}

// PaymentLinkStatusView is the storefront payload returned after a poll.
type PaymentLinkStatusView struct {
	InvoiceNumber string             `json:"invoice"`
	OrderRef      string             `json:"orderRef"`
	Currency      string             `json:"currency"`
	Status        PaymentStatus      `json:"status"`
	LinkStatus    LinkStatus         `json:"paymentLinkStatus"`
	Total         decimal.Decimal    `json:"total"`
	Paid          decimal.Decimal    `json:"amountPaid"`
	Remaining     decimal.Decimal    `json:"remaining"`
	Transactions  []*TransactionView `json:"transactions"`
}
