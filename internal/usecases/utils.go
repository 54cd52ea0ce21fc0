package usecases

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/internal/infrastructure/payu"
	"payment-links.backend/pkg/crypto"
)

// PayUGateway is the subset of the OneAPI client the usecases depend on.
type PayUGateway interface {
	FetchToken(ctx context.Context, creds entities.Credentials, scope entities.Scope) (*payu.Token, error)
	CreatePaymentLink(ctx context.Context, auth payu.Auth, req *payu.CreateLinkRequest) (*payu.CreatedLink, error)
	GetPaymentLink(ctx context.Context, auth payu.Auth, invoice string) (*payu.LinkDetails, error)
	GetTransactions(ctx context.Context, auth payu.Auth, invoice string, from, to time.Time) ([]payu.TransactionRecord, error)
}

// SecretCipher seals client secrets at rest.
type SecretCipher interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

var (
	randomHex         = crypto.RandomHex
	orderReferenceRe  = regexp.MustCompile(`^` + InvoicePrefix + `(\d+)$`)
	currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

// generateInvoiceNumber builds "WC{orderID}-{hex}" padded with randomness up to maxLen.
func generateInvoiceNumber(orderID int64, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = DefaultInvoiceLength
	}
	prefix := fmt.Sprintf("%s%d-", InvoicePrefix, orderID)
	room := maxLen - len(prefix)
	if room < minInvoiceRandomness {
		return "", domainerrors.Validation("orderId", "Order number is too long for a PayU invoice number.")
	}
	suffix, err := randomHex(room)
	if err != nil {
		return "", err
	}
	return prefix + suffix, nil
}

// parseOrderReference extracts the order id from a bare "WC{orderID}" reference.
func parseOrderReference(invoice string) (int64, bool) {
	m := orderReferenceRe.FindStringSubmatch(strings.TrimSpace(invoice))
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func orderReference(orderID int64) string {
	return InvoicePrefix + strconv.FormatInt(orderID, 10)
}

func normalizeCurrency(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// providerError maps PayU client failures onto the domain taxonomy.
func providerError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domainerrors.As(err); ok {
		return err
	}
	if domainerrors.Is(err, payu.ErrUnauthorized) {
		return domainerrors.Auth(msgProviderAuth)
	}
	if apiErr, ok := payu.AsAPIError(err); ok {
		if apiErr.Kind == payu.KindToken && apiErr.StatusCode == http.StatusUnauthorized {
			return domainerrors.Auth(msgInvalidClient)
		}
		code := domainerrors.CodeProvider
		if apiErr.Kind == payu.KindResult {
			code = domainerrors.CodeProviderResult
		}
		return domainerrors.Provider(code, apiErr.Message, err)
	}
	return domainerrors.Provider(domainerrors.CodeProvider, msgProviderDown, err)
}
