package repository

import (
	"errors"

	"github.com/leafline-next/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
// ReserveStock / ReleaseStock 通过条件更新维护 stock >= 0 不变量，
// 返回影响行数，0 行表示库存不足（预占）或参数不符。
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	List(filter ProductListFilter) ([]models.Product, int64, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	AdjustStock(productID uint, delta int) (int64, error)
	ReserveStock(productID uint, quantity int) (int64, error)
	ReleaseStock(productID uint, quantity int) (int64, error)
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, errors.New("invalid product id")
	}
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetBySlug 根据 slug 获取商品
func (r *GormProductRepository) GetBySlug(slug string) (*models.Product, error) {
	if slug == "" {
		return nil, errors.New("invalid product slug")
	}
	var product models.Product
	if err := r.db.Where("slug = ?", slug).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs 批量获取商品
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.InStock {
		query = query.Where("stock > 0")
	}
	if filter.Search != "" {
		condition, count := buildLikeCondition(r.db, []string{"name", "slug", "description"})
		if count > 0 {
			query = query.Where(condition, repeatLikeArgs("%"+filter.Search+"%", count)...)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var products []models.Product
	if err := query.Order("sort_order DESC, id ASC").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	if product == nil {
		return errors.New("product is nil")
	}
	return r.db.Create(product).Error
}

// Update 更新商品
func (r *GormProductRepository) Update(product *models.Product) error {
	if product == nil {
		return errors.New("product is nil")
	}
	return r.db.Save(product).Error
}

// AdjustStock 管理端库存修正（增减均可，不允许减到负数）
func (r *GormProductRepository) AdjustStock(productID uint, delta int) (int64, error) {
	if productID == 0 || delta == 0 {
		return 0, errors.New("invalid stock adjust params")
	}
	query := r.db.Model(&models.Product{}).Where("id = ?", productID)
	if delta < 0 {
		query = query.Where("stock >= ?", -delta)
	}
	result := query.Update("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReserveStock 预占库存
// 单条条件 UPDATE 原子完成校验与扣减，并发下不会超卖。
func (r *GormProductRepository) ReserveStock(productID uint, quantity int) (int64, error) {
	if productID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock reserve params")
	}
	result := r.db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReleaseStock 释放预占库存（补偿与取消路径）
func (r *GormProductRepository) ReleaseStock(productID uint, quantity int) (int64, error) {
	if productID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock release params")
	}
	result := r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
