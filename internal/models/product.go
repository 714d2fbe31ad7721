package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
// stock 只允许通过条件更新增减，应用层保证其永不为负。
type Product struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                           // 主键
	MerchantID      uint           `gorm:"index;not null" json:"merchant_id"`                              // 商户ID
	Slug            string         `gorm:"uniqueIndex;not null" json:"slug"`                               // 唯一标识
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`                         // 商品名称
	Description     string         `gorm:"type:text" json:"description"`                                   // 商品描述
	Category        string         `gorm:"type:varchar(40);index;not null" json:"category"`                // 类目（flower/concentrate/accessory）
	PriceAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"`      // 价格金额
	UnitWeightGrams Grams          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_weight_grams"` // 单件重量（克，仅受监管类目使用）
	Stock           int            `gorm:"not null;default:0" json:"stock"`                                // 可售库存
	Images          StringArray    `gorm:"type:json" json:"images"`                                        // 图片数组
	Tags            StringArray    `gorm:"type:json" json:"tags"`                                          // 标签数组
	IsActive        bool           `gorm:"default:true;index" json:"is_active"`                            // 是否上架
	SortOrder       int            `gorm:"default:0;index" json:"sort_order"`                              // 排序权重
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                                     // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// IsRegulated 判断商品是否属于受每日限额约束的类目
func (p *Product) IsRegulated() bool {
	return p.Category == "flower" || p.Category == "concentrate"
}
