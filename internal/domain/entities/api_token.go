package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// OneAPI permission names.
const (
	ScopeCreatePaymentLinks = "create_payment_links"
	ScopeReadPaymentLinks   = "read_payment_links"
	ScopeUpdatePaymentLinks = "update_payment_links"
)

// Scope is a normalized, order independent set of permission names.
type Scope struct {
	value string
}

// NewScope splits raw on whitespace, drops empties and duplicates and sorts the rest.
func NewScope(raw string) Scope {
	parts := lo.Uniq(strings.Fields(raw))
	sort.Strings(parts)
	return Scope{value: strings.Join(parts, " ")}
}

func (s Scope) String() string { return s.value }

func (s Scope) IsEmpty() bool { return s.value == "" }

// Hash is the hex sha256 of the normalized form; the empty scope hashes to "".
func (s Scope) Hash() string {
	if s.value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.value))
	return hex.EncodeToString(sum[:])
}

// Contains reports whether every permission of other is granted by s.
func (s Scope) Contains(other Scope) bool {
	granted := strings.Fields(s.value)
	return lo.Every(granted, strings.Fields(other.value))
}

// ApiTokenStatus represents the cache state of a bearer token
type ApiTokenStatus string

const (
	ApiTokenStatusActive  ApiTokenStatus = "active"
	ApiTokenStatusExpired ApiTokenStatus = "expired"
	ApiTokenStatusRevoked ApiTokenStatus = "revoked"
)

// ApiToken is a cached OneAPI bearer token keyed by (merchant, environment, scope hash).
type ApiToken struct {
	ID          uuid.UUID
	MerchantID  string
	Environment string
	Scope       Scope
	AccessToken string
	ExpiresAt   time.Time
	Status      ApiTokenStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UsableAt reports whether the token can still be handed out at now with the given safety buffer.
func (t *ApiToken) UsableAt(now time.Time, buffer time.Duration) bool {
	return t.Status == ApiTokenStatusActive && t.AccessToken != "" && t.ExpiresAt.After(now.Add(buffer))
}
