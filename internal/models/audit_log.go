package models

import "time"

// AuditLog 运营审计日志
// 记录后台改单、强制改派、库存修正、补偿修复等特权操作，支持按操作者与时间范围检索。
type AuditLog struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	OperatorAdminID  uint      `gorm:"index;not null" json:"operator_admin_id"`
	OperatorUsername string    `gorm:"type:varchar(100);index;not null;default:''" json:"operator_username"`
	Action           string    `gorm:"type:varchar(100);index;not null" json:"action"`
	OrderID          *uint     `gorm:"index" json:"order_id,omitempty"`
	CourierID        *uint     `gorm:"index" json:"courier_id,omitempty"`
	RequestID        string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	DetailJSON       JSON      `gorm:"type:json" json:"detail"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
