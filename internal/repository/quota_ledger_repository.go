package repository

import (
	"errors"
	"time"

	"github.com/leafline-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotaLedgerRepository 限购账本数据访问接口
// GetForUpdate 必须在事务内调用：行锁把同一顾客同一天的并发下单串行化，
// 读额度、判额度、累加额度与订单落库在同一事务内完成。
type QuotaLedgerRepository interface {
	GetForUpdate(tx *gorm.DB, customerID uint, ledgerDate string) (*models.QuotaLedgerEntry, error)
	Accumulate(tx *gorm.DB, entry *models.QuotaLedgerEntry) error
	GetByCustomerAndDate(customerID uint, ledgerDate string) (*models.QuotaLedgerEntry, error)
	MarkFinalized(customerID uint, ledgerDate string) error
	ListAdmin(filter QuotaLedgerListFilter) ([]models.QuotaLedgerEntry, int64, error)
}

// GormQuotaLedgerRepository GORM 实现
type GormQuotaLedgerRepository struct {
	db *gorm.DB
}

// NewQuotaLedgerRepository 创建限购账本仓库
func NewQuotaLedgerRepository(db *gorm.DB) *GormQuotaLedgerRepository {
	return &GormQuotaLedgerRepository{db: db}
}

// GetForUpdate 加行锁读取当日账本，不存在时先插入零值行再锁定
// 先插入再锁，避免两个事务同时发现行缺失后重复插入（唯一索引兜底，冲突方重读既有行）。
func (r *GormQuotaLedgerRepository) GetForUpdate(tx *gorm.DB, customerID uint, ledgerDate string) (*models.QuotaLedgerEntry, error) {
	if tx == nil {
		return nil, errors.New("quota ledger requires a transaction")
	}
	if customerID == 0 || ledgerDate == "" {
		return nil, errors.New("invalid quota ledger params")
	}

	seed := models.QuotaLedgerEntry{
		CustomerID: customerID,
		LedgerDate: ledgerDate,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}, {Name: "ledger_date"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return nil, err
	}

	query := tx.Where("customer_id = ? AND ledger_date = ?", customerID, ledgerDate)
	switch dbDialectName(tx) {
	case "postgres", "postgresql":
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	default:
		// sqlite 不支持 FOR UPDATE，写事务本身互斥
	}
	var entry models.QuotaLedgerEntry
	if err := query.First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Accumulate 写回累加后的账本行（只增不减由服务层保证）
func (r *GormQuotaLedgerRepository) Accumulate(tx *gorm.DB, entry *models.QuotaLedgerEntry) error {
	if tx == nil {
		return errors.New("quota ledger requires a transaction")
	}
	if entry == nil || entry.ID == 0 {
		return errors.New("invalid quota ledger entry")
	}
	return tx.Model(&models.QuotaLedgerEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"flower_grams":      entry.FlowerGrams,
			"concentrate_grams": entry.ConcentrateGrams,
			"updated_at":        time.Now(),
		}).Error
}

// GetByCustomerAndDate 读取账本（无锁，余量查询使用）
func (r *GormQuotaLedgerRepository) GetByCustomerAndDate(customerID uint, ledgerDate string) (*models.QuotaLedgerEntry, error) {
	if customerID == 0 || ledgerDate == "" {
		return nil, nil
	}
	var entry models.QuotaLedgerEntry
	if err := r.db.Where("customer_id = ? AND ledger_date = ?", customerID, ledgerDate).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// MarkFinalized 终态订单触发的审计定稿时间戳
func (r *GormQuotaLedgerRepository) MarkFinalized(customerID uint, ledgerDate string) error {
	if customerID == 0 || ledgerDate == "" {
		return nil
	}
	return r.db.Model(&models.QuotaLedgerEntry{}).
		Where("customer_id = ? AND ledger_date = ? AND finalized_at IS NULL", customerID, ledgerDate).
		Update("finalized_at", time.Now()).Error
}

// ListAdmin 管理端账本查询
func (r *GormQuotaLedgerRepository) ListAdmin(filter QuotaLedgerListFilter) ([]models.QuotaLedgerEntry, int64, error) {
	query := r.db.Model(&models.QuotaLedgerEntry{})
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.DateFrom != "" {
		query = query.Where("ledger_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("ledger_date <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	entries := make([]models.QuotaLedgerEntry, 0)
	if err := query.Order("id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
