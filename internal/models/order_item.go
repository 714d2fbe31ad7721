package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表
// 商品名称、单价、类目与单件重量均为下单时快照，后续改价不影响历史订单。
type OrderItem struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                           // 主键
	OrderID         uint           `gorm:"index;not null" json:"order_id"`                                 // 订单ID
	ProductID       uint           `gorm:"index;not null" json:"product_id"`                               // 商品ID
	ProductName     string         `gorm:"type:varchar(255);not null" json:"product_name"`                 // 商品名称快照
	Category        string         `gorm:"type:varchar(40);index;not null" json:"category"`                // 类目快照
	UnitPrice       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`        // 单价快照
	UnitWeightGrams Grams          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_weight_grams"` // 单件重量快照（克）
	Quantity        int            `gorm:"not null" json:"quantity"`                                       // 数量
	TotalPrice      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`       // 小计
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
