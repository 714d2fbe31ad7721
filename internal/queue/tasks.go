package queue

import (
	"encoding/json"

	"github.com/leafline-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderTimeoutCancel 超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	// TaskReservationReconcile 库存补偿修复任务
	TaskReservationReconcile = constants.TaskReservationReconcile
	// TaskOrderLedgerFinalize 限购账本定稿任务
	TaskOrderLedgerFinalize = constants.TaskOrderLedgerFinalize
)

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// ReservationReconcilePayload 库存补偿修复任务载荷
// 补偿释放失败时投递，由 worker 重放释放直至成功。
type ReservationReconcilePayload struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// OrderLedgerFinalizePayload 限购账本定稿任务载荷
type OrderLedgerFinalizePayload struct {
	CustomerID uint   `json:"customer_id"`
	LedgerDate string `json:"ledger_date"`
	OrderID    uint   `json:"order_id"`
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}

// NewReservationReconcileTask 创建库存补偿修复任务
func NewReservationReconcileTask(payload ReservationReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReservationReconcile, body), nil
}

// NewOrderLedgerFinalizeTask 创建限购账本定稿任务
func NewOrderLedgerFinalizeTask(payload OrderLedgerFinalizePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderLedgerFinalize, body), nil
}
