package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentLink struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	OrderID           int64           `gorm:"not null;index"`
	ConfigID          uuid.UUID       `gorm:"type:uuid;not null"`
	InvoiceNumber     string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	PaymentLinkURL    string          `gorm:"type:text;not null"`
	Currency          string          `gorm:"type:varchar(3);not null"`
	Description       string          `gorm:"type:text"`
	Amount            decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PaidAmount        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	RemainingAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Status            string          `gorm:"type:varchar(20);not null;default:'PENDING'"`
	PaymentLinkStatus string          `gorm:"type:varchar(20);not null;default:'active'"`
	ExpiryDate        *time.Time
	PartialAllowed    bool            `gorm:"not null;default:false"`
	MinInitialAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Instalments       int             `gorm:"not null;default:0"`
	CustomerName      string          `gorm:"type:varchar(255)"`
	CustomerEmail     string          `gorm:"type:varchar(255)"`
	CustomerPhone     string          `gorm:"type:varchar(32)"`
	NotifyEmail       bool            `gorm:"not null;default:false"`
	NotifySMS         bool            `gorm:"column:notify_sms;not null;default:false"`
	ProviderResponse  []byte          `gorm:"type:jsonb"`
	IsDeleted         bool            `gorm:"not null;default:false;index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (PaymentLink) TableName() string {
	return "payu_payment_links"
}
