package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Environment selects the PayU host family.
type Environment string

const (
	EnvironmentUAT  Environment = "uat"
	EnvironmentProd Environment = "prod"
)

// ParseEnvironment accepts "uat", "prod" and "production"; empty means uat.
func ParseEnvironment(raw string) (Environment, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "uat":
		return EnvironmentUAT, true
	case "prod", "production":
		return EnvironmentProd, true
	}
	return "", false
}

// TokenKey is the environment name stored on cached tokens.
func (e Environment) TokenKey() string {
	if e == EnvironmentProd {
		return "production"
	}
	return string(EnvironmentUAT)
}

// CurrencyConfigStatus represents the lifecycle of a credential row
type CurrencyConfigStatus string

const (
	CurrencyConfigStatusActive   CurrencyConfigStatus = "active"
	CurrencyConfigStatusInactive CurrencyConfigStatus = "inactive"
	CurrencyConfigStatusInvalid  CurrencyConfigStatus = "invalid"
)

// CurrencyConfig binds a currency to a PayU merchant account.
// ClientSecret holds the sealed secret, never plaintext.
type CurrencyConfig struct {
	ID           uuid.UUID            `json:"id"`
	Currency     string               `json:"currency"`
	MerchantID   string               `json:"merchantId"`
	ClientID     string               `json:"clientId"`
	ClientSecret string               `json:"-"`
	Environment  Environment          `json:"environment"`
	Status       CurrencyConfigStatus `json:"status"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
	DeletedAt    null.Time            `json:"-"`
}

func (c *CurrencyConfig) IsActive() bool {
	return c.Status == CurrencyConfigStatusActive && !c.DeletedAt.Valid
}

// Credentials are the decrypted values needed to talk to PayU. Never persisted.
type Credentials struct {
	MerchantID   string
	ClientID     string
	ClientSecret string
	Environment  Environment
}

// CurrencyConfigInput is the admin form for creating or editing a config.
type CurrencyConfigInput struct {
	Currency     string `json:"currency"`
	MerchantID   string `json:"merchantId"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Environment  string `json:"environment"`
}

// ConfigListQuery is an explicit listing query for the admin table.
type ConfigListQuery struct {
	Environment string `form:"environment"`
	Search      string `form:"search"`
	OrderBy     string `form:"orderby"`
	Order       string `form:"order"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

// ConfigEvent describes what a save did to the credential store.
type ConfigEvent interface {
	Current() *CurrencyConfig
}

// ConfigCreated is emitted when a brand new row is inserted.
type ConfigCreated struct {
	Config *CurrencyConfig
}

func (e ConfigCreated) Current() *CurrencyConfig { return e.Config }

// ConfigUpdated is emitted when a row is edited in place.
type ConfigUpdated struct {
	Config *CurrencyConfig
}

func (e ConfigUpdated) Current() *CurrencyConfig { return e.Config }

// ConfigReplaced is emitted when the merchant id changed: Previous was soft
// deleted and Config inserted in its place.
type ConfigReplaced struct {
	Previous *CurrencyConfig
	Config   *CurrencyConfig
}

func (e ConfigReplaced) Current() *CurrencyConfig { return e.Config }

// CurrencyConfigView is the admin rendering of a config with the secret masked.
type CurrencyConfigView struct {
	*CurrencyConfig
	ClientSecretMasked string `json:"clientSecret"`
}
