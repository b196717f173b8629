package repository

import (
	"strings"

	"github.com/pagfox/pagfox/app/models"
	"gorm.io/gorm"
)

// merchantRepository implements the MerchantRepository interface
type merchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a new merchant repository instance
func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) Create(merchant *models.Merchant) error {
	return r.db.Create(merchant).Error
}

func (r *merchantRepository) GetByID(id uint) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.First(&merchant, id).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

// GetByAPIKeyHash resolves an API key hash to its merchant.
func (r *merchantRepository) GetByAPIKeyHash(hash string) (*models.Merchant, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var merchant models.Merchant
	if err := r.db.Where("api_key_hash = ? AND api_key_hash <> ''", trimmed).First(&merchant).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}
