package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// TransactionStatus is the normalized provider status of one payment attempt.
type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusPaid    TransactionStatus = "PAID"
	TransactionStatusFailed  TransactionStatus = "FAILED"
	TransactionStatusPending TransactionStatus = "PENDING"
)

// Settled reports whether the transaction counts towards the paid amount.
func (s TransactionStatus) Settled() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusPaid
}

// Supersedes reports whether a report in status s may replace a stored
// report of the same payment in status stored. Settled beats failed beats
// pending, so repeat reports converge whatever order they arrive in.
func (s TransactionStatus) Supersedes(stored TransactionStatus) bool {
	return s.rank() >= stored.rank()
}

func (s TransactionStatus) rank() int {
	switch {
	case s.Settled():
		return 3
	case s == TransactionStatusFailed:
		return 2
	case s == TransactionStatusPending:
		return 1
	}
	return 0
}

// NoErrorCode is what PayU sends in the error field of a successful payment.
const NoErrorCode = "E000"

var (
	successTokens = map[string]struct{}{
		"success": {}, "successful": {}, "credited": {}, "captured": {}, "paid": {}, "completed": {},
	}
	failureTokens = map[string]struct{}{
		"failure": {}, "failed": {}, "fail": {}, "cancel": {}, "cancelled": {}, "canceled": {},
		"error": {}, "dropped": {}, "bounced": {}, "usercancelled": {}, "tampered": {},
	}
	pendingTokens = map[string]struct{}{
		"pending": {}, "in progress": {}, "initiated": {},
	}
)

// NormalizeTransactionStatus maps provider vocabulary onto TransactionStatus.
// A non-empty error code other than E000 forces FAILED; unknown words count as SUCCESS.
func NormalizeTransactionStatus(raw, errorCode string) TransactionStatus {
	code := strings.TrimSpace(errorCode)
	if code != "" && !strings.EqualFold(code, NoErrorCode) {
		return TransactionStatusFailed
	}
	word := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := failureTokens[word]; ok {
		return TransactionStatusFailed
	}
	if _, ok := pendingTokens[word]; ok {
		return TransactionStatusPending
	}
	if _, ok := successTokens[word]; ok {
		return TransactionStatusSuccess
	}
	return TransactionStatusSuccess
}

// PaymentInstrument holds bank and card metadata reported by PayU.
type PaymentInstrument struct {
	PaymentMode   string `json:"paymentMode"`
	PGType        string `json:"pgType"`
	BankCode      string `json:"bankCode"`
	BankReference string `json:"bankReference"`
	CardNumber    string `json:"cardNumber"`
	CardType      string `json:"cardType"`
	IssuingBank   string `json:"issuingBank"`
	NameOnCard    string `json:"nameOnCard"`
	Source        string `json:"paymentSource"`
}

// Transaction is one payment attempt against a link.
type Transaction struct {
	ID                  uuid.UUID         `json:"id"`
	PaymentLinkID       uuid.UUID         `json:"paymentLinkId"`
	TransactionID       null.String       `json:"transactionId"`
	MerchantReferenceID string            `json:"merchantReferenceId"`
	InvoiceNumber       string            `json:"invoiceNumber"`
	Amount              decimal.Decimal   `json:"amount"`
	Status              TransactionStatus `json:"status"`
	Instrument          PaymentInstrument `json:"instrument"`
	Payer               CustomerSnapshot  `json:"payer"`
	RawPayload          null.JSON         `json:"-"`
	OccurredAt          null.Time         `json:"occurredAt"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// TransactionView is the storefront rendering of a transaction.
type TransactionView struct {
	TransactionID string            `json:"transactionId"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        TransactionStatus `json:"status"`
	PaymentMode   string            `json:"paymentMode"`
	OccurredAt    *time.Time        `json:"occurredAt,omitempty"`
}

// View renders a transaction for the status page.
func (t *Transaction) View() *TransactionView {
	v := &TransactionView{
		TransactionID: t.TransactionID.String,
		Amount:        t.Amount,
		Status:        t.Status,
		PaymentMode:   t.Instrument.PaymentMode,
	}
	if t.OccurredAt.Valid {
		at := t.OccurredAt.Time
		v.OccurredAt = &at
	}
	return v
}
