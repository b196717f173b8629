package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	WebhookStatusPending   = "PENDING"
	WebhookStatusProcessed = "PROCESSED"
	WebhookStatusFailed    = "FAILED"
)

const (
	WebhookKindDeposit = "deposit"
	WebhookKindPayout  = "payout"
)

// WebhookLog is the deduplication ledger for inbound delivery
// notifications. One row exists per (subacquirer, external_id, kind); the
// unique index makes concurrent first sightings collapse to a single row.
// A row that reached PROCESSED is never reprocessed.
type WebhookLog struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Subacquirer  string            `gorm:"type:varchar(50);not null;index:ux_webhook_logs_identity,unique,priority:1" json:"subacquirer"`
	ExternalID   string            `gorm:"type:varchar(191);not null;index:ux_webhook_logs_identity,unique,priority:2" json:"external_id"`
	Kind         string            `gorm:"type:varchar(20);not null;index:ux_webhook_logs_identity,unique,priority:3" json:"kind"`
	Payload      datatypes.JSONMap `gorm:"type:json" json:"payload"`
	Status       string            `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Attempts     int               `gorm:"not null;default:0" json:"attempts"`
	ErrorMessage string            `gorm:"type:text" json:"error_message"`
	ProcessedAt  *time.Time        `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	CreatedAt    time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsKnownWebhookKind reports whether kind names one of the two transaction
// kinds the pipeline handles.
func IsKnownWebhookKind(kind string) bool {
	return kind == WebhookKindDeposit || kind == WebhookKindPayout
}
