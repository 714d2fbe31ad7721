package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Category   string
	Search     string
	OnlyActive bool
	InStock    bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	MerchantID  uint
	CourierID   uint
	Status      string
	OrderNo     string
	Borough     string
	GuestEmail  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page          int
	PageSize      int
	Keyword       string
	Status        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	LastLoginFrom *time.Time
	LastLoginTo   *time.Time
}

// CourierListFilter 查询骑手列表的过滤条件
type CourierListFilter struct {
	Page       int
	PageSize   int
	Keyword    string
	OnlyOnline bool
}

// QuotaLedgerListFilter 查询限购账本的过滤条件
type QuotaLedgerListFilter struct {
	Page       int
	PageSize   int
	CustomerID uint
	DateFrom   string
	DateTo     string
}

// AuditLogListFilter 查询运营审计日志的过滤条件
type AuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	OrderID         uint
	Action          string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}
