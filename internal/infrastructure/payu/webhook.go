package payu

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
)

var (
	ErrMissingPaymentID = errors.New("payu: webhook without mihpayid")
	ErrMissingInvoice   = errors.New("payu: webhook without invoice number")
)

// WebhookAuditKeys are the form fields kept for the audit log and the stored payload.
var WebhookAuditKeys = []string{
	"mihpayid", "mode", "status", "unmappedstatus", "key", "txnid", "amount",
	"productinfo", "firstname", "email", "phone",
	"udf1", "udf2", "udf3", "udf4", "udf5", "udf6", "udf7", "udf8", "udf9", "udf10",
	"hash", "error", "error_Message", "bank_ref_num", "PG_TYPE", "pg_type", "bankcode",
	"cardnum", "issuing_bank", "card_type", "name_on_card", "payment_source",
	"net_amount_debit", "settledAmount", "addedon",
	"invoice_number", "invoiceNumber", "event", "eventType", "type",
}

// WebhookNotification is one parsed PayU payment notification.
type WebhookNotification struct {
	InvoiceNumber string
	Record        TransactionRecord
	Fields        map[string]string
}

// AuditFields copies the whitelisted, non-empty fields of a delivery.
func AuditFields(form url.Values) map[string]string {
	fields := make(map[string]string, len(WebhookAuditKeys))
	for _, key := range WebhookAuditKeys {
		if v := strings.TrimSpace(form.Get(key)); v != "" {
			fields[key] = v
		}
	}
	return fields
}

// ParseWebhook reads a form-encoded delivery. The invoice comes from udf1,
// which is set at link creation, then from the invoice fields.
func ParseWebhook(form url.Values) (*WebhookNotification, error) {
	fields := AuditFields(form)
	m := make(map[string]any, len(fields))
	for k, v := range fields {
		m[k] = v
	}

	if pickString(m, "mihpayid") == "" {
		return nil, ErrMissingPaymentID
	}
	invoice := pickString(m, "udf1", "invoiceNumber", "invoice_number")
	if invoice == "" {
		return nil, ErrMissingInvoice
	}

	rec := newTransactionRecord(m)
	rec.TransactionID = pickString(m, "mihpayid")
	rec.PGType = pickString(m, "PG_TYPE", "pg_type")
	if raw, err := json.Marshal(fields); err == nil {
		rec.Raw = raw
	}
	return &WebhookNotification{
		InvoiceNumber: invoice,
		Record:        rec,
		Fields:        fields,
	}, nil
}
