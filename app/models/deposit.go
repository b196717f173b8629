package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	DepositStatusPending    = "PENDING"
	DepositStatusProcessing = "PROCESSING"
	DepositStatusConfirmed  = "CONFIRMED"
	DepositStatusFailed     = "FAILED"
	DepositStatusCancelled  = "CANCELLED"
)

// Deposit is an instant-transfer collection request routed through a
// sub-acquirer. ExternalID is assigned once the provider acknowledges
// creation and never changes afterwards; (subacquirer, external_id) is
// unique across all deposits.
type Deposit struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	MerchantID    uint              `gorm:"not null;index" json:"merchant_id"`
	Subacquirer   string            `gorm:"type:varchar(50);not null;index:ux_deposits_provider_external,unique,priority:1" json:"subacquirer"`
	ExternalID    *string           `gorm:"type:varchar(191);index:ux_deposits_provider_external,unique,priority:2" json:"external_id,omitempty"`
	Amount        decimal.Decimal   `gorm:"type:decimal(14,2);not null" json:"amount"`
	Status        string            `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	PayerName     *string           `gorm:"type:varchar(150)" json:"payer_name,omitempty"`
	PayerDocument *string           `gorm:"type:varchar(20)" json:"payer_document,omitempty"`
	Reference     *string           `gorm:"type:varchar(100)" json:"reference,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	PaymentDate   *time.Time        `gorm:"type:timestamp;default:null" json:"payment_date,omitempty"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsConfirmed reports whether the deposit reached its terminal success state.
func (d *Deposit) IsConfirmed() bool {
	return d.Status == DepositStatusConfirmed
}

// CanonicalDepositStatus maps a provider-reported deposit status string to
// the internal vocabulary. The mapping is total: unrecognized values mean
// the provider is still working on it.
func CanonicalDepositStatus(raw string) string {
	switch raw {
	case "CONFIRMED", "PAID":
		return DepositStatusConfirmed
	case "FAILED", "ERROR":
		return DepositStatusFailed
	case "CANCELLED":
		return DepositStatusCancelled
	default:
		return DepositStatusProcessing
	}
}
