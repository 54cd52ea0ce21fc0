package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CurrencyConfig struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Currency     string         `gorm:"type:varchar(3);not null;index"`
	MerchantID   string         `gorm:"type:varchar(100);not null;index"`
	ClientID     string         `gorm:"type:varchar(255);not null"`
	ClientSecret string         `gorm:"type:text;not null"`
	Environment  string         `gorm:"type:varchar(10);not null;default:'uat'"`
	Status       string         `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (CurrencyConfig) TableName() string {
	return "payu_currency_configs"
}
