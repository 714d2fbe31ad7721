package models

import (
	"time"

	"gorm.io/gorm"
)

// Merchant 商户表
type Merchant struct {
	ID        uint           `gorm:"primarykey" json:"id"`                   // 主键
	Name      string         `gorm:"type:varchar(150);not null" json:"name"` // 商户名称
	Borough   string         `gorm:"type:varchar(40);not null" json:"borough"` // 所在配送区
	Lat       float64        `gorm:"not null" json:"lat"`                    // 门店纬度
	Lng       float64        `gorm:"not null" json:"lng"`                    // 门店经度
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`    // 是否营业
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                             // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (Merchant) TableName() string {
	return "merchants"
}
