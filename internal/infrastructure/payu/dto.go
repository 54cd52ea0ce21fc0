package payu

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// ExpiryLayout is the date format PayU expects for expiryDate.
const ExpiryLayout = "2006-01-02 15:04:05"

// DefaultTokenTTL applies when the token endpoint omits expires_in.
const DefaultTokenTTL = 3600 * time.Second

// Token is a freshly issued client-credentials token.
type Token struct {
	AccessToken string
	Scope       string
	ExpiresIn   time.Duration
}

type tokenResponse struct {
	AccessToken      string      `json:"access_token"`
	TokenType        string      `json:"token_type"`
	ExpiresIn        json.Number `json:"expires_in"`
	Scope            string      `json:"scope"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
	Message          string      `json:"message"`
}

// Customer is the customer block of a create request.
type Customer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// UDF carries merchant-defined fields echoed back in webhooks.
type UDF struct {
	UDF1 string `json:"udf1,omitempty"`
	UDF2 string `json:"udf2,omitempty"`
}

// CreateLinkRequest is the body of POST /payment-links.
type CreateLinkRequest struct {
	InvoiceNumber           string   `json:"invoiceNumber"`
	SubAmount               int64    `json:"subAmount"`
	Currency                string   `json:"currency"`
	Description             string   `json:"description"`
	Source                  string   `json:"source"`
	IsPartialPaymentAllowed bool     `json:"isPartialPaymentAllowed"`
	MinAmountForCustomer    int64    `json:"minAmountForCustomer,omitempty"`
	NumberOfPayments        int      `json:"numberOfPayments,omitempty"`
	ExpiryDate              string   `json:"expiryDate,omitempty"`
	Customer                Customer `json:"customer"`
	ViaEmail                bool     `json:"viaEmail"`
	ViaSMS                  bool     `json:"viaSms"`
	SuccessURL              string   `json:"successURL"`
	FailureURL              string   `json:"failureURL"`
	UDF                     UDF      `json:"udf"`
}

// ToSubunits converts a major-unit amount to integer minor units.
func ToSubunits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// CreatedLink is the useful part of a successful create.
type CreatedLink struct {
	InvoiceNumber string
	URL           string
	Raw           []byte
}

// LinkDetails is the parsed result of GET /payment-links/{invoice}.
type LinkDetails struct {
	Result map[string]any
	Raw    []byte
}

// Amount walks keys on the result and then on result.summary.
func (d *LinkDetails) Amount(keys []string) (decimal.Decimal, bool) {
	if v, ok := pickDecimal(d.Result, keys...); ok {
		return v, true
	}
	if summary, ok := asObject(d.Result["summary"]); ok {
		return pickDecimal(summary, keys...)
	}
	return decimal.Zero, false
}

// Status is the provider link status word, upper-cased by the caller.
func (d *LinkDetails) Status() string {
	return pickString(d.Result, "status", "paymentLinkStatus")
}

// Active is the provider active flag when present.
func (d *LinkDetails) Active() (bool, bool) {
	return pickBool(d.Result, "active")
}

// ExpiryDate is the provider expiry when present.
func (d *LinkDetails) ExpiryDate() null.Time {
	if t, ok := pickTime(d.Result, "expiryDate", "expiry_date"); ok {
		return null.TimeFrom(t)
	}
	return null.Time{}
}

// TransactionRecord is one entry of the transaction details listing.
type TransactionRecord struct {
	TransactionID       string
	MerchantReferenceID string
	Amount              decimal.Decimal
	Status              string
	ErrorCode           string
	PaymentMode         string
	PGType              string
	BankCode            string
	BankReference       string
	CardNumber          string
	CardType            string
	IssuingBank         string
	NameOnCard          string
	Source              string
	PayerName           string
	PayerEmail          string
	PayerPhone          string
	OccurredAt          null.Time
	Raw                 json.RawMessage
}

func newTransactionRecord(m map[string]any) TransactionRecord {
	amount, _ := pickDecimal(m, txnAmountKeys...)
	rec := TransactionRecord{
		TransactionID:       pickString(m, txnIDKeys...),
		MerchantReferenceID: pickString(m, txnMerchantRefKeys...),
		Amount:              amount,
		Status:              pickString(m, txnStatusKeys...),
		ErrorCode:           pickString(m, txnErrorKeys...),
		PaymentMode:         pickString(m, txnModeKeys...),
		PGType:              pickString(m, "pgType", "pg_type"),
		BankCode:            pickString(m, "bankCode", "bankcode"),
		BankReference:       pickString(m, "bankReferenceNumber", "bank_ref_num", "bankRefNum"),
		CardNumber:          pickString(m, "cardNumber", "cardnum"),
		CardType:            pickString(m, "cardType", "card_type"),
		IssuingBank:         pickString(m, "issuingBank", "issuing_bank"),
		NameOnCard:          pickString(m, "nameOnCard", "name_on_card"),
		Source:              pickString(m, "paymentSource", "payment_source"),
		PayerName:           pickString(m, "customerName", "firstname", "name"),
		PayerEmail:          pickString(m, "customerEmail", "email"),
		PayerPhone:          pickString(m, "customerPhone", "phone"),
	}
	if t, ok := pickTime(m, txnTimeKeys...); ok {
		rec.OccurredAt = null.TimeFrom(t)
	}
	if raw, err := json.Marshal(m); err == nil {
		rec.Raw = raw
	}
	return rec
}
