package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
// 状态流转由订单状态机控制，courier_id 的占用通过条件更新完成，
// 任何写路径都不得绕过这两条约束直接改列。
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	TrackingCode   string         `gorm:"uniqueIndex;not null" json:"-"`                                // 追踪码（高熵，仅通过下单响应下发）
	IdempotencyKey *string        `gorm:"uniqueIndex" json:"-"`                                         // 幂等键（客户端重试去重）
	UserID         uint           `gorm:"index;not null" json:"user_id,omitempty"`                      // 用户ID（游客订单为 0）
	GuestEmail     string         `gorm:"index" json:"guest_email,omitempty"`                           // 游客邮箱
	MerchantID     uint           `gorm:"index;not null" json:"merchant_id"`                            // 商户ID
	CourierID      *uint          `gorm:"index" json:"courier_id,omitempty"`                            // 骑手ID（认领前为空）
	Status         string         `gorm:"index;not null" json:"status"`                                 // 订单状态
	Currency       string         `gorm:"not null" json:"currency"`                                     // 币种
	Subtotal       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 商品小计
	DeliveryFee    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`    // 配送费（服务端计价）
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 应付金额
	PaymentMethod  string         `gorm:"type:varchar(40);not null" json:"payment_method"`              // 支付方式（到付标记）
	SpeedTier      string         `gorm:"type:varchar(20);not null" json:"speed_tier"`                  // 配送时效档位
	AddressStreet  string         `gorm:"type:varchar(255);not null" json:"address_street"`             // 收货街道快照
	AddressBorough string         `gorm:"type:varchar(40);index;not null" json:"address_borough"`       // 收货配送区快照
	AddressLat     float64        `gorm:"not null" json:"address_lat"`                                  // 收货纬度
	AddressLng     float64        `gorm:"not null" json:"address_lng"`                                  // 收货经度
	ClientIP       string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                  // 下单客户端IP
	ScheduledAt    *time.Time     `gorm:"index" json:"scheduled_at,omitempty"`                          // 预约送达时间（为空即尽快送）
	ClaimedAt      *time.Time     `gorm:"index" json:"claimed_at"`                                      // 骑手认领时间
	DeliveredAt    *time.Time     `gorm:"index" json:"delivered_at"`                                    // 送达时间
	CanceledAt     *time.Time     `gorm:"index" json:"canceled_at"`                                     // 取消时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	// 关联
	Items   []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`  // 订单项
	Events  []TrackingEvent `gorm:"foreignKey:OrderID" json:"events,omitempty"` // 追踪事件（追加写）
	Courier *Courier        `gorm:"foreignKey:CourierID" json:"courier,omitempty"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
