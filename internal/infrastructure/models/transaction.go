package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	PaymentLinkID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	TransactionID       *string         `gorm:"type:varchar(64);uniqueIndex"`
	MerchantReferenceID string          `gorm:"type:varchar(64)"`
	InvoiceNumber       string          `gorm:"type:varchar(32);not null;index"`
	Amount              decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Status              string          `gorm:"type:varchar(20);not null"`
	PaymentMode         string          `gorm:"type:varchar(32)"`
	PGType              string          `gorm:"column:pg_type;type:varchar(32)"`
	BankCode            string          `gorm:"type:varchar(32)"`
	BankReference       string          `gorm:"type:varchar(64)"`
	CardNumber          string          `gorm:"type:varchar(32)"`
	CardType            string          `gorm:"type:varchar(32)"`
	IssuingBank         string          `gorm:"type:varchar(64)"`
	NameOnCard          string          `gorm:"type:varchar(255)"`
	PaymentSource       string          `gorm:"type:varchar(32)"`
	PayerName           string          `gorm:"type:varchar(255)"`
	PayerEmail          string          `gorm:"type:varchar(255)"`
	PayerPhone          string          `gorm:"type:varchar(32)"`
	RawPayload          []byte          `gorm:"type:jsonb"`
	OccurredAt          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (Transaction) TableName() string {
	return "payu_payment_transactions"
}
