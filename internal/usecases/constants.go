package usecases

import (
	"strings"

	"payment-links.backend/internal/domain/entities"
)

// Scopes requested from the token endpoint.
var (
	CreateScope = entities.NewScope(entities.ScopeCreatePaymentLinks)
	ReadScope   = entities.NewScope(entities.ScopeReadPaymentLinks)
	// VerifyScope must be granted in full before a config is saved.
	VerifyScope = entities.NewScope(strings.Join([]string{
		entities.ScopeCreatePaymentLinks,
		entities.ScopeReadPaymentLinks,
		entities.ScopeUpdatePaymentLinks,
	}, " "))
)

// Invoice numbers are "WC{orderID}-{hex}".
const (
	InvoicePrefix        = "WC"
	DefaultInvoiceLength = 16
	minInvoiceRandomness = 4
)

// Link creation defaults.
const (
	LinkSource         = "API"
	defaultDescription = "Payment for order #%s"
	successPath        = "/payment-links/%s/success"
	failurePath        = "/payment-links/%s/failure"
)

// User facing messages.
const (
	msgNoConfig        = "Payment setup incomplete. Please contact the store."
	msgDecryptFailed   = "Unable to use stored credentials."
	msgNoLink          = "Payment link not found for this invoice."
	msgInvalidInvoice  = "Invalid or missing invoice number."
	msgPersistFailed   = "Something went wrong while saving payment status. Please try again."
	msgNoTransactions  = "No transactions yet. Please refresh in a moment."
	msgProviderDown    = "Unable to reach PayU. Please try again."
	msgProviderAuth    = "PayU rejected the access token."
	msgInvalidClient   = "PayU rejected the stored client credentials."
	msgLinkSaveFailed  = "Payment link was created but could not be saved. Please try again."
	msgOrderNotFound   = "Order not found."
	msgConfigNotFound  = "Configuration not found or currency mismatch."
	msgDuplicateConfig = "This configuration already exists. Please use a different Currency, Merchant ID, or Environment."
	msgMerchantTaken   = "This Merchant ID is already allocated to currency: %s"
	msgActiveExists    = "Cannot activate: There is already an active configuration for currency %s. Only one active configuration per currency is allowed. Please deactivate the existing active configuration first."
)
