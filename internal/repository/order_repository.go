package repository

import (
	"errors"
	"time"

	"github.com/leafline-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
// Claim 与 AdvanceStatus 通过条件更新返回影响行数，0 行表示竞争失败或状态不匹配。
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	GetByOrderNoAndUser(orderNo string, userID uint) (*models.Order, error)
	GetByTrackingCode(code string) (*models.Order, error)
	GetByIdempotencyKey(key string) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListByCourier(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	ListClaimable(boroughs []string, limit int) ([]models.Order, error)
	ListPendingBefore(cutoff time.Time, limit int) ([]models.Order, error)
	Claim(orderID, courierID uint, fromStatus, toStatus string) (int64, error)
	AdvanceStatus(orderID uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error)
	ReassignCourier(orderID, courierID uint) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withDetail(query *gorm.DB) *gorm.DB {
	return query.Preload("Items").Preload("Courier")
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户订单详情
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNoAndUser 获取用户订单详情（按订单号）
func (r *GormOrderRepository) GetByOrderNoAndUser(orderNo string, userID uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).Where("order_no = ? AND user_id = ?", orderNo, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByTrackingCode 按追踪码获取订单（含追踪事件，公开追踪页使用）
func (r *GormOrderRepository) GetByTrackingCode(code string) (*models.Order, error) {
	if code == "" {
		return nil, nil
	}
	var order models.Order
	query := r.withDetail(r.db).Preload("Events", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
	if err := query.Where("tracking_code = ?", code).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIdempotencyKey 按幂等键获取订单（重试请求返回既有订单）
func (r *GormOrderRepository) GetByIdempotencyKey(key string) (*models.Order, error) {
	if key == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.withDetail(r.db).Where("idempotency_key = ?", key).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser 获取用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("user_id = ?", filter.UserID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+filter.OrderNo+"%")
	}
	return r.listPage(query, filter.Page, filter.PageSize)
}

// ListByCourier 获取骑手名下订单列表
func (r *GormOrderRepository) ListByCourier(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("courier_id = ?", filter.CourierID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return r.listPage(query, filter.Page, filter.PageSize)
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.CourierID != 0 {
		query = query.Where("courier_id = ?", filter.CourierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if filter.Borough != "" {
		query = query.Where("address_borough = ?", filter.Borough)
	}
	if filter.GuestEmail != "" {
		query = query.Where("guest_email = ?", filter.GuestEmail)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return r.listPage(query, filter.Page, filter.PageSize)
}

func (r *GormOrderRepository) listPage(query *gorm.DB, page, pageSize int) ([]models.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)
	var orders []models.Order
	if err := r.withDetail(query).Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListClaimable 获取可认领订单（待处理且未被占用）
func (r *GormOrderRepository) ListClaimable(boroughs []string, limit int) ([]models.Order, error) {
	query := r.db.Model(&models.Order{}).
		Where("status = ? AND courier_id IS NULL", "pending")
	if len(boroughs) > 0 {
		query = query.Where("address_borough IN ?", boroughs)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	if err := query.Preload("Items").Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListPendingBefore 获取超时未认领的待处理订单（定时取消使用）
func (r *GormOrderRepository) ListPendingBefore(cutoff time.Time, limit int) ([]models.Order, error) {
	query := r.db.Model(&models.Order{}).
		Where("status = ? AND created_at < ?", "pending", cutoff)
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	if err := query.Preload("Items").Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Claim 骑手认领订单
// 条件更新一次性占用 courier_id 并推进状态，并发认领只有一个成功：
// 影响行数为 0 表示订单已被占用或状态不符。
func (r *GormOrderRepository) Claim(orderID, courierID uint, fromStatus, toStatus string) (int64, error) {
	if orderID == 0 || courierID == 0 {
		return 0, errors.New("invalid claim params")
	}
	now := time.Now()
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ? AND courier_id IS NULL", orderID, fromStatus).
		Updates(map[string]interface{}{
			"courier_id": courierID,
			"status":     toStatus,
			"claimed_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// AdvanceStatus 推进订单状态
// WHERE 同时约束当前状态，保证过期写入（基于陈旧读）不会落库。
func (r *GormOrderRepository) AdvanceStatus(orderID uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error) {
	if orderID == 0 || fromStatus == "" || toStatus == "" {
		return 0, errors.New("invalid status advance params")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = toStatus
	updates["updated_at"] = time.Now()
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReassignCourier 改派骑手（管理端操作，状态校验在服务层完成）
func (r *GormOrderRepository) ReassignCourier(orderID, courierID uint) error {
	if orderID == 0 || courierID == 0 {
		return errors.New("invalid reassign params")
	}
	now := time.Now()
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]interface{}{
		"courier_id": courierID,
		"claimed_at": now,
		"updated_at": now,
	}).Error
}
