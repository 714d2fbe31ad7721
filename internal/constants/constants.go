package constants

// 订单状态常量
const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusPreparing      = "preparing"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCanceled       = "canceled"
)

// 商品类目常量（flower 与 concentrate 受每日限额约束）
const (
	CategoryFlower      = "flower"
	CategoryConcentrate = "concentrate"
	CategoryAccessory   = "accessory"
)

// 配送时效档位常量
const (
	SpeedTierStandard = "standard"
	SpeedTierExpress  = "express"
)

// 支付方式常量（线下结算，下单时仅做标记）
const (
	PaymentMethodCashOnDelivery = "cash_on_delivery"
	PaymentMethodDebitOnDoor    = "debit_on_door"
)

// 配送区常量
const (
	BoroughManhattan    = "manhattan"
	BoroughBrooklyn     = "brooklyn"
	BoroughQueens       = "queens"
	BoroughBronx        = "bronx"
	BoroughStatenIsland = "staten_island"
)

// 默认配送范围（可由配置覆盖）
var DefaultServedBoroughs = []string{BoroughManhattan, BoroughBrooklyn, BoroughQueens}

// IsKnownBorough 判断是否为已知配送区
func IsKnownBorough(borough string) bool {
	switch borough {
	case BoroughManhattan, BoroughBrooklyn, BoroughQueens, BoroughBronx, BoroughStatenIsland:
		return true
	default:
		return false
	}
}

// 骑手状态常量
const (
	CourierVehicleBike    = "bike"
	CourierVehicleScooter = "scooter"
	CourierVehicleCar     = "car"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 商品库存状态常量
const (
	ProductStockStatusInStock    = "in_stock"
	ProductStockStatusLowStock   = "low_stock"
	ProductStockStatusOutOfStock = "out_of_stock"
)

// 审计动作常量
const (
	AuditActionAdminCancel        = "admin_cancel_order"
	AuditActionMerchantAccept     = "merchant_accept_order"
	AuditActionCourierReassign    = "courier_reassign"
	AuditActionStockAdjust        = "stock_adjust"
	AuditActionReservationRepair  = "reservation_reconcile"
	AuditActionLedgerFinalize     = "ledger_finalize"
	AuditActionSettingUpdate      = "setting_update"
	AuditActionCourierForceOnline = "courier_force_online"
	AuditActionAuthzRoleChange    = "authz_role_change"
	AuditActionAuthzPolicyChange  = "authz_policy_change"
)

// 队列常量
const (
	QueueDefault               = "default"
	TaskOrderTimeoutCancel     = "order:timeout_cancel"
	TaskReservationReconcile   = "order:reconcile_reservation"
	TaskOrderLedgerFinalize    = "order:finalize_ledger"
	TaskCourierPresenceRefresh = "courier:presence_refresh"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "ll"
)

// 设置键常量
const (
	SettingKeySiteConfig    = "site_config"
	SettingKeyOrderConfig   = "order_config"
	SettingKeyQuotaConfig   = "quota_config"
	SettingKeyPricingConfig = "pricing_config"
)

// 设置字段常量
const (
	SettingFieldClaimTimeoutMinutes = "claim_timeout_minutes"
	SettingFieldServedBoroughs      = "served_boroughs"
	SettingFieldAllowGuest          = "allow_guest_checkout"
)

// 币种常量
const (
	SiteCurrencyDefault = "USD"
)

// 站点语言常量
const (
	LocaleEnUS = "en-US"
	LocaleEsUS = "es-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleEnUS, LocaleEsUS}

// 追踪码常量
const (
	TrackingCodeBytes = 16
)
