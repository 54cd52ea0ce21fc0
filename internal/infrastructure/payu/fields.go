package payu

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PayU answers use several names for the same value depending on endpoint and
// account version, so lookups walk an ordered list of candidates.
var (
	TotalAmountKeys = []string{"totalAmount", "subAmount", "amountRequested"}
	PaidAmountKeys  = []string{"totalAmountCollected", "totalRevenue", "amountCollected"}

	linkURLKeys = []string{"paymentLink", "paymentLinkUrl", "shortUrl", "url"}
	invoiceKeys = []string{"invoiceNumber", "invoice_number"}

	txnIDKeys          = []string{"mihpayid", "payuId", "transactionId", "txnId", "id"}
	txnMerchantRefKeys = []string{"merchantReferenceId", "txnid", "merchantTxnId"}
	txnAmountKeys      = []string{"settledAmount", "net_amount_debit", "netAmountDebit", "amount", "transactionAmount"}
	txnStatusKeys      = []string{"status", "txnStatus", "unmappedstatus"}
	txnErrorKeys       = []string{"error", "errorCode", "error_code"}
	txnModeKeys        = []string{"paymentMode", "mode"}
	txnTimeKeys        = []string{"addedOn", "addedon", "createdOn", "transactionDate", "txnDate", "createdAt"}
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		case json.Number:
			return s.String()
		case float64:
			return decimal.NewFromFloat(s).String()
		case bool:
			if s {
				return "true"
			}
			return "false"
		}
	}
	return ""
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	}
	return decimal.Zero, false
}

// pickDecimal returns the first numeric value among keys.
func pickDecimal(m map[string]any, keys ...string) (decimal.Decimal, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if d, ok := toDecimal(v); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

func pickTime(m map[string]any, keys ...string) (time.Time, bool) {
	raw := pickString(m, keys...)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func pickBool(m map[string]any, key string) (bool, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	case json.Number:
		return b.String() != "0", true
	}
	return false, false
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// decodeJSON keeps numbers as json.Number so amounts do not pass through float64.
func decodeJSON(body []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(out)
}
