package repository

import (
	"errors"
	"time"

	"github.com/leafline-next/internal/models"

	"gorm.io/gorm"
)

// CourierRepository 骑手数据访问接口
type CourierRepository interface {
	GetByID(id uint) (*models.Courier, error)
	List(filter CourierListFilter) ([]models.Courier, int64, error)
	Create(courier *models.Courier) error
	Update(courier *models.Courier) error
	CountOnline(seenAfter time.Time) (int64, error)
	Heartbeat(courierID uint, at time.Time) error
	SetOnline(courierID uint, online bool) error
	MarkStaleOffline(seenBefore time.Time) (int64, error)
}

// GormCourierRepository GORM 实现
type GormCourierRepository struct {
	db *gorm.DB
}

// NewCourierRepository 创建骑手仓库
func NewCourierRepository(db *gorm.DB) *GormCourierRepository {
	return &GormCourierRepository{db: db}
}

// GetByID 根据 ID 获取骑手
func (r *GormCourierRepository) GetByID(id uint) (*models.Courier, error) {
	if id == 0 {
		return nil, errors.New("invalid courier id")
	}
	var courier models.Courier
	if err := r.db.First(&courier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &courier, nil
}

// List 骑手列表
func (r *GormCourierRepository) List(filter CourierListFilter) ([]models.Courier, int64, error) {
	query := r.db.Model(&models.Courier{})
	if filter.OnlyOnline {
		query = query.Where("is_online = ?", true)
	}
	if filter.Keyword != "" {
		condition, count := buildLikeCondition(r.db, []string{"name", "phone"})
		if count > 0 {
			query = query.Where(condition, repeatLikeArgs("%"+filter.Keyword+"%", count)...)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	couriers := make([]models.Courier, 0)
	if err := query.Order("id ASC").Find(&couriers).Error; err != nil {
		return nil, 0, err
	}
	return couriers, total, nil
}

// Create 创建骑手
func (r *GormCourierRepository) Create(courier *models.Courier) error {
	if courier == nil {
		return errors.New("courier is nil")
	}
	return r.db.Create(courier).Error
}

// Update 更新骑手
func (r *GormCourierRepository) Update(courier *models.Courier) error {
	if courier == nil {
		return errors.New("courier is nil")
	}
	return r.db.Save(courier).Error
}

// CountOnline 统计在线骑手数（心跳未过期才计入，作为动态加价的需求信号）
func (r *GormCourierRepository) CountOnline(seenAfter time.Time) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Courier{}).
		Where("is_online = ? AND last_seen_at IS NOT NULL AND last_seen_at > ?", true, seenAfter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Heartbeat 位置流心跳续约
func (r *GormCourierRepository) Heartbeat(courierID uint, at time.Time) error {
	if courierID == 0 {
		return nil
	}
	return r.db.Model(&models.Courier{}).Where("id = ?", courierID).Updates(map[string]interface{}{
		"is_online":    true,
		"last_seen_at": at,
		"updated_at":   at,
	}).Error
}

// SetOnline 设置骑手上下线
func (r *GormCourierRepository) SetOnline(courierID uint, online bool) error {
	if courierID == 0 {
		return nil
	}
	updates := map[string]interface{}{
		"is_online":  online,
		"updated_at": time.Now(),
	}
	if online {
		updates["last_seen_at"] = time.Now()
	}
	return r.db.Model(&models.Courier{}).Where("id = ?", courierID).Updates(updates).Error
}

// MarkStaleOffline 将心跳过期的骑手批量置为离线（定时清扫任务调用）
func (r *GormCourierRepository) MarkStaleOffline(seenBefore time.Time) (int64, error) {
	result := r.db.Model(&models.Courier{}).
		Where("is_online = ? AND (last_seen_at IS NULL OR last_seen_at < ?)", true, seenBefore).
		Update("is_online", false)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
