package models

import "time"

// QuotaLedgerEntry 每日限购账本
// 每个顾客每个自然日一行（uniqueIndex），累加值只增不减：
// 订单取消不回填额度，这是防刷单套额的合规口径。
type QuotaLedgerEntry struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                            // 主键
	CustomerID       uint       `gorm:"uniqueIndex:uniq_customer_day;not null" json:"customer_id"`       // 顾客ID
	LedgerDate       string     `gorm:"uniqueIndex:uniq_customer_day;type:varchar(10);not null" json:"ledger_date"` // 账本日期（YYYY-MM-DD）
	FlowerGrams      Grams      `gorm:"type:decimal(20,2);not null;default:0" json:"flower_grams"`       // 当日花类累计克数
	ConcentrateGrams Grams      `gorm:"type:decimal(20,2);not null;default:0" json:"concentrate_grams"`  // 当日浓缩物累计克数
	FinalizedAt      *time.Time `gorm:"index" json:"finalized_at"`                                       // 审计定稿时间（终态订单触发）
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`                                                      // 更新时间
}

// TableName 指定表名
func (QuotaLedgerEntry) TableName() string {
	return "quota_ledger_entries"
}
