package repository

import (
	"github.com/pagfox/pagfox/app/models"
	"gorm.io/gorm"
)

// PaymentRepository defines the store operations the payment core relies
// on. The contract matters more than the engine: atomic find-or-create
// under a uniqueness constraint, exclusive row locks readable inside a
// transaction, and multi-row atomic commit.
type PaymentRepository interface {
	// Transaction runs fn against a repository bound to one database
	// transaction; fn's writes commit together or not at all.
	Transaction(fn func(PaymentRepository) error) error

	// FindOrCreateWebhookLog inserts the ledger row unless one already
	// exists for its (subacquirer, external_id, kind) key. Concurrent
	// callers all observe the same stored row; created reports whether
	// this call inserted it.
	FindOrCreateWebhookLog(entry *models.WebhookLog) (created bool, stored *models.WebhookLog, err error)
	GetWebhookLog(id uint) (*models.WebhookLog, error)
	// GetWebhookLogForUpdate re-reads the row under an exclusive lock.
	// Only meaningful inside Transaction.
	GetWebhookLogForUpdate(id uint) (*models.WebhookLog, error)
	MarkWebhookProcessed(id uint) error
	MarkWebhookFailed(id uint, errorMessage string) error

	CreateDeposit(deposit *models.Deposit) error
	GetDepositByID(id uint) (*models.Deposit, error)
	GetDepositByExternalIDForUpdate(subacquirer, externalID string) (*models.Deposit, error)
	UpdateDeposit(deposit *models.Deposit) error

	CreatePayout(payout *models.Payout) error
	GetPayoutByID(id uint) (*models.Payout, error)
	GetPayoutByExternalIDForUpdate(subacquirer, externalID string) (*models.Payout, error)
	UpdatePayout(payout *models.Payout) error
}

// MerchantRepository resolves platform actors.
type MerchantRepository interface {
	Create(merchant *models.Merchant) error
	GetByID(id uint) (*models.Merchant, error)
	GetByAPIKeyHash(hash string) (*models.Merchant, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Payment  PaymentRepository
	Merchant MerchantRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Payment:  NewPaymentRepository(db),
		Merchant: NewMerchantRepository(db),
	}
}
