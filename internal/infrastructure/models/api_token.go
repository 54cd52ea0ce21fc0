package models

import (
	"time"

	"github.com/google/uuid"
)

type ApiToken struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	MerchantID  string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_api_token_key"`
	Environment string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_api_token_key"`
	Scope       string    `gorm:"type:text;not null"`
	ScopeHash   string    `gorm:"type:char(64);not null;uniqueIndex:idx_api_token_key"`
	AccessToken string    `gorm:"type:text;not null"`
	ExpiresAt   time.Time `gorm:"not null;index"`
	Status      string    `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ApiToken) TableName() string {
	return "payu_api_tokens"
}
