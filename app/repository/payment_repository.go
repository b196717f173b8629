package repository

import (
	"time"

	"github.com/pagfox/pagfox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paymentRepository implements PaymentRepository on GORM/MySQL.
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a payment repository backed by GORM.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Transaction(fn func(PaymentRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&paymentRepository{db: tx})
	})
}

func (r *paymentRepository) FindOrCreateWebhookLog(entry *models.WebhookLog) (bool, *models.WebhookLog, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "subacquirer"},
			{Name: "external_id"},
			{Name: "kind"},
		},
		DoNothing: true,
	}).Create(entry)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookLog
	if err := r.db.Where("subacquirer = ? AND external_id = ? AND kind = ?", entry.Subacquirer, entry.ExternalID, entry.Kind).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *paymentRepository) GetWebhookLog(id uint) (*models.WebhookLog, error) {
	var entry models.WebhookLog
	if err := r.db.First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *paymentRepository) GetWebhookLogForUpdate(id uint) (*models.WebhookLog, error) {
	var entry models.WebhookLog
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *paymentRepository) MarkWebhookProcessed(id uint) error {
	now := time.Now()
	return r.db.Model(&models.WebhookLog{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        models.WebhookStatusProcessed,
		"processed_at":  &now,
		"error_message": "",
	}).Error
}

func (r *paymentRepository) MarkWebhookFailed(id uint, errorMessage string) error {
	return r.db.Model(&models.WebhookLog{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        models.WebhookStatusFailed,
		"error_message": errorMessage,
		"attempts":      gorm.Expr("attempts + 1"),
	}).Error
}

func (r *paymentRepository) CreateDeposit(deposit *models.Deposit) error {
	return r.db.Create(deposit).Error
}

func (r *paymentRepository) GetDepositByID(id uint) (*models.Deposit, error) {
	var deposit models.Deposit
	if err := r.db.First(&deposit, id).Error; err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *paymentRepository) GetDepositByExternalIDForUpdate(subacquirer, externalID string) (*models.Deposit, error) {
	var deposit models.Deposit
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("subacquirer = ? AND external_id = ?", subacquirer, externalID).
		First(&deposit).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *paymentRepository) UpdateDeposit(deposit *models.Deposit) error {
	return r.db.Save(deposit).Error
}

func (r *paymentRepository) CreatePayout(payout *models.Payout) error {
	return r.db.Create(payout).Error
}

func (r *paymentRepository) GetPayoutByID(id uint) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.First(&payout, id).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *paymentRepository) GetPayoutByExternalIDForUpdate(subacquirer, externalID string) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("subacquirer = ? AND external_id = ?", subacquirer, externalID).
		First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *paymentRepository) UpdatePayout(payout *models.Payout) error {
	return r.db.Save(payout).Error
}
