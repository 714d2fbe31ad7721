package service

import (
	"strings"
	"time"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/repository"
)

// ProductService 商品业务服务
type ProductService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditLogRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository, auditRepo repository.AuditLogRepository) *ProductService {
	return &ProductService{productRepo: productRepo, auditRepo: auditRepo}
}

// ListPublic 前台商品列表（仅上架商品）
func (s *ProductService) ListPublic(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.OnlyActive = true
	return s.productRepo.List(filter)
}

// GetBySlug 按 slug 获取上架商品
func (s *ProductService) GetBySlug(slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrProductNotAvailable
	}
	product, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotAvailable
	}
	return product, nil
}

// ListAdmin 管理端商品列表
func (s *ProductService) ListAdmin(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// GetByID 按 ID 获取商品
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	return s.productRepo.GetByID(id)
}

// Create 创建商品
func (s *ProductService) Create(product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	return s.productRepo.Create(product)
}

// Update 更新商品
func (s *ProductService) Update(product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	return s.productRepo.Update(product)
}

// AdjustStock 管理端库存修正（入库、盘亏等），留审计
// 负向修正不允许把库存打穿成负数。
func (s *ProductService) AdjustStock(productID uint, delta int, reason string, operatorAdminID uint, operatorUsername string) (*models.Product, error) {
	if productID == 0 || delta == 0 {
		return nil, ErrInvalidOrderItem
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotAvailable
	}

	affected, err := s.productRepo.AdjustStock(productID, delta)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInsufficientStock
	}

	if s.auditRepo != nil {
		entry := &models.AuditLog{
			OperatorAdminID:  operatorAdminID,
			OperatorUsername: operatorUsername,
			Action:           constants.AuditActionStockAdjust,
			DetailJSON: models.JSON{
				"product_id": productID,
				"delta":      delta,
				"reason":     strings.TrimSpace(reason),
			},
			CreatedAt: time.Now(),
		}
		_ = s.auditRepo.Create(entry)
	}

	return s.productRepo.GetByID(productID)
}

func validateProduct(product *models.Product) error {
	if product == nil || strings.TrimSpace(product.Name) == "" || strings.TrimSpace(product.Slug) == "" {
		return ErrProductNotAvailable
	}
	switch product.Category {
	case constants.CategoryFlower, constants.CategoryConcentrate, constants.CategoryAccessory:
	default:
		return ErrProductNotAvailable
	}
	if product.PriceAmount.Decimal.IsNegative() {
		return ErrInvalidOrderAmount
	}
	if product.IsRegulated() && !product.UnitWeightGrams.Decimal.IsPositive() {
		// 受监管类目必须有单件重量，否则限购无法计量
		return ErrInvalidOrderItem
	}
	return nil
}
