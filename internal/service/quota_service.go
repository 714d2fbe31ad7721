package service

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/repository"
)

// QuotaRules 每日限购上限（辖区常量，默认值可被配置覆盖）
type QuotaRules struct {
	FlowerCeilingGrams      decimal.Decimal // 花类每日上限（克，≈ 3 oz）
	ConcentrateCeilingGrams decimal.Decimal // 浓缩物每日上限（克）
}

// DefaultQuotaRules 返回默认限购上限
func DefaultQuotaRules() QuotaRules {
	return QuotaRules{
		FlowerCeilingGrams:      decimal.NewFromFloat(85.05),
		ConcentrateCeilingGrams: decimal.NewFromInt(24),
	}
}

// QuotaRemaining 当日剩余额度
type QuotaRemaining struct {
	LedgerDate       string       `json:"ledger_date"`
	FlowerGrams      models.Grams `json:"flower_grams"`
	ConcentrateGrams models.Grams `json:"concentrate_grams"`
}

// QuotaService 每日限购账本服务
type QuotaService struct {
	ledgerRepo repository.QuotaLedgerRepository
	rules      QuotaRules
}

// NewQuotaService 创建限购服务
func NewQuotaService(ledgerRepo repository.QuotaLedgerRepository, rules QuotaRules) *QuotaService {
	return &QuotaService{ledgerRepo: ledgerRepo, rules: rules}
}

// LedgerDate 统一账本日期格式
func LedgerDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ReserveInTx 在订单事务内累加当日限购额度
// 行锁把同一顾客的并发下单串行化：读额度、判上限、写回在同一事务内完成，
// 与订单落库同生共死，所以限购不需要独立的补偿动作。
// 超限时返回携带剩余额度的 QuotaExceededError，不落任何状态。
func (s *QuotaService) ReserveInTx(tx *gorm.DB, customerID uint, ledgerDate string, flowerGrams, concentrateGrams decimal.Decimal) (*models.QuotaLedgerEntry, error) {
	if flowerGrams.IsZero() && concentrateGrams.IsZero() {
		return nil, nil
	}

	entry, err := s.ledgerRepo.GetForUpdate(tx, customerID, ledgerDate)
	if err != nil {
		return nil, err
	}

	candidateFlower := entry.FlowerGrams.Add(flowerGrams)
	candidateConcentrate := entry.ConcentrateGrams.Add(concentrateGrams)
	if candidateFlower.GreaterThan(s.rules.FlowerCeilingGrams) ||
		candidateConcentrate.GreaterThan(s.rules.ConcentrateCeilingGrams) {
		return nil, &QuotaExceededError{
			RemainingFlowerGrams:      remainingGrams(s.rules.FlowerCeilingGrams, entry.FlowerGrams.Decimal),
			RemainingConcentrateGrams: remainingGrams(s.rules.ConcentrateCeilingGrams, entry.ConcentrateGrams.Decimal),
		}
	}

	entry.FlowerGrams = models.NewGramsFromDecimal(candidateFlower)
	entry.ConcentrateGrams = models.NewGramsFromDecimal(candidateConcentrate)
	if err := s.ledgerRepo.Accumulate(tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Remaining 查询顾客当日剩余额度（无锁读，仅作展示）
func (s *QuotaService) Remaining(customerID uint, ledgerDate string) (*QuotaRemaining, error) {
	result := &QuotaRemaining{
		LedgerDate:       ledgerDate,
		FlowerGrams:      models.NewGramsFromDecimal(s.rules.FlowerCeilingGrams),
		ConcentrateGrams: models.NewGramsFromDecimal(s.rules.ConcentrateCeilingGrams),
	}
	entry, err := s.ledgerRepo.GetByCustomerAndDate(customerID, ledgerDate)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return result, nil
	}
	result.FlowerGrams = remainingGrams(s.rules.FlowerCeilingGrams, entry.FlowerGrams.Decimal)
	result.ConcentrateGrams = remainingGrams(s.rules.ConcentrateCeilingGrams, entry.ConcentrateGrams.Decimal)
	return result, nil
}

// Finalize 终态订单触发的账本审计定稿
func (s *QuotaService) Finalize(customerID uint, ledgerDate string) error {
	return s.ledgerRepo.MarkFinalized(customerID, ledgerDate)
}

// ListAdmin 管理端账本查询
func (s *QuotaService) ListAdmin(filter repository.QuotaLedgerListFilter) ([]models.QuotaLedgerEntry, int64, error) {
	return s.ledgerRepo.ListAdmin(filter)
}

func remainingGrams(ceiling, used decimal.Decimal) models.Grams {
	remaining := ceiling.Sub(used)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return models.NewGramsFromDecimal(remaining)
}
