package repository

import (
	"errors"

	"github.com/leafline-next/internal/models"

	"gorm.io/gorm"
)

// MerchantRepository 商户数据访问接口
type MerchantRepository interface {
	GetByID(id uint) (*models.Merchant, error)
	ListActive() ([]models.Merchant, error)
	Create(merchant *models.Merchant) error
	Update(merchant *models.Merchant) error
}

// GormMerchantRepository GORM 实现
type GormMerchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository 创建商户仓库
func NewMerchantRepository(db *gorm.DB) *GormMerchantRepository {
	return &GormMerchantRepository{db: db}
}

// GetByID 根据 ID 获取商户
func (r *GormMerchantRepository) GetByID(id uint) (*models.Merchant, error) {
	if id == 0 {
		return nil, errors.New("invalid merchant id")
	}
	var merchant models.Merchant
	if err := r.db.First(&merchant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &merchant, nil
}

// ListActive 获取营业中的商户
func (r *GormMerchantRepository) ListActive() ([]models.Merchant, error) {
	merchants := make([]models.Merchant, 0)
	if err := r.db.Where("is_active = ?", true).Order("id ASC").Find(&merchants).Error; err != nil {
		return nil, err
	}
	return merchants, nil
}

// Create 创建商户
func (r *GormMerchantRepository) Create(merchant *models.Merchant) error {
	if merchant == nil {
		return errors.New("merchant is nil")
	}
	return r.db.Create(merchant).Error
}

// Update 更新商户
func (r *GormMerchantRepository) Update(merchant *models.Merchant) error {
	if merchant == nil {
		return errors.New("merchant is nil")
	}
	return r.db.Save(merchant).Error
}
