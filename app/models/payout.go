package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	PayoutStatusPending    = "PENDING"
	PayoutStatusProcessing = "PROCESSING"
	PayoutStatusSuccess    = "SUCCESS"
	PayoutStatusFailed     = "FAILED"
	PayoutStatusCancelled  = "CANCELLED"
)

// Payout is a withdrawal/disbursement request routed through a
// sub-acquirer. ProviderTxID carries the secondary transaction id some
// providers report alongside the external id.
type Payout struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	MerchantID   uint              `gorm:"not null;index" json:"merchant_id"`
	Subacquirer  string            `gorm:"type:varchar(50);not null;index:ux_payouts_provider_external,unique,priority:1" json:"subacquirer"`
	ExternalID   *string           `gorm:"type:varchar(191);index:ux_payouts_provider_external,unique,priority:2" json:"external_id,omitempty"`
	ProviderTxID *string           `gorm:"type:varchar(191)" json:"provider_tx_id,omitempty"`
	Amount       decimal.Decimal   `gorm:"type:decimal(14,2);not null" json:"amount"`
	Status       string            `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	BankInfo     datatypes.JSONMap `gorm:"type:json" json:"bank_info"`
	Metadata     datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	RequestedAt  *time.Time        `gorm:"type:timestamp;default:null" json:"requested_at,omitempty"`
	CompletedAt  *time.Time        `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsCompleted reports whether the payout reached its terminal success state.
func (w *Payout) IsCompleted() bool {
	return w.Status == PayoutStatusSuccess
}

// CanonicalPayoutStatus maps a provider-reported payout status string to
// the internal vocabulary. Total, like CanonicalDepositStatus.
func CanonicalPayoutStatus(raw string) string {
	switch raw {
	case "SUCCESS", "DONE":
		return PayoutStatusSuccess
	case "FAILED", "ERROR":
		return PayoutStatusFailed
	case "CANCELLED":
		return PayoutStatusCancelled
	default:
		return PayoutStatusProcessing
	}
}
