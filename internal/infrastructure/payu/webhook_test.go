package payu

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhook(t *testing.T) {
	form := url.Values{
		"mihpayid":         {"403993715531"},
		"txnid":            {"txn-77"},
		"status":           {"success"},
		"error":            {"E000"},
		"amount":           {"1000.00"},
		"net_amount_debit": {"990.00"},
		"udf1":             {"WC42-a1b2c3d4"},
		"mode":             {"UPI"},
		"bank_ref_num":     {"REF-1"},
		"firstname":        {"Asha"},
		"addedon":          {"2025-03-01 10:30:00"},
		"hash":             {"abc"},
		"not_whitelisted":  {"dropped"},
	}

	n, err := ParseWebhook(form)
	require.NoError(t, err)
	assert.Equal(t, "WC42-a1b2c3d4", n.InvoiceNumber)
	assert.Equal(t, "403993715531", n.Record.TransactionID)
	assert.Equal(t, "txn-77", n.Record.MerchantReferenceID)
	assert.True(t, n.Record.Amount.Equal(decimal.NewFromInt(990)), "net settled amount wins over amount")
	assert.Equal(t, "success", n.Record.Status)
	assert.Equal(t, "E000", n.Record.ErrorCode)
	assert.Equal(t, "UPI", n.Record.PaymentMode)
	assert.Equal(t, "REF-1", n.Record.BankReference)
	assert.Equal(t, "Asha", n.Record.PayerName)
	assert.True(t, n.Record.OccurredAt.Valid)
	assert.NotContains(t, n.Fields, "not_whitelisted")
	assert.NotContains(t, string(n.Record.Raw), "dropped")
}

func TestParseWebhook_InvoiceFallbackAndRequiredFields(t *testing.T) {
	n, err := ParseWebhook(url.Values{"mihpayid": {"1"}, "invoiceNumber": {"WC9-ffff0000"}, "amount": {"5"}})
	require.NoError(t, err)
	assert.Equal(t, "WC9-ffff0000", n.InvoiceNumber)
	assert.True(t, n.Record.Amount.Equal(decimal.NewFromInt(5)))

	_, err = ParseWebhook(url.Values{"udf1": {"WC9-ffff0000"}})
	assert.ErrorIs(t, err, ErrMissingPaymentID)

	_, err = ParseWebhook(url.Values{"mihpayid": {"1"}})
	assert.ErrorIs(t, err, ErrMissingInvoice)
}
