package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MerchantStatusActive   = "active"
	MerchantStatusDisabled = "disabled"
)

// Merchant is the platform actor that transactions are created for. Each
// merchant has exactly one configured sub-acquirer at a time; creation
// requests are routed through it.
type Merchant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=3,max=150"`
	Email       string    `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email"`
	APIKeyHash  string    `gorm:"type:varchar(64);index" json:"-"`
	Subacquirer string    `gorm:"type:varchar(50)" json:"subacquirer"`
	Status      string    `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active disabled"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *Merchant) Validate() error {
	v := validator.New()

	return v.Struct(m)
}

// ActiveSubacquirer returns the configured provider name, or "" when the
// merchant is disabled or has none configured.
func (m *Merchant) ActiveSubacquirer() string {
	if m.Status != MerchantStatusActive {
		return ""
	}
	return strings.TrimSpace(m.Subacquirer)
}

// HashAPIKey returns the SHA-256 hash for the provided API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}
