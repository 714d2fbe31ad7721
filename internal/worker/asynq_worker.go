package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/leafline-next/internal/logger"
	"github.com/leafline-next/internal/provider"
	"github.com/leafline-next/internal/queue"
	"github.com/leafline-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskReservationReconcile, c.handleReservationReconcile)
	mux.HandleFunc(queue.TaskOrderLedgerFinalize, c.handleOrderLedgerFinalize)
}

func (c *Consumer) handleOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_timeout_cancel_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	_, err := c.OrderService.CancelExpiredOrder(payload.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_timeout_cancel_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderCancelNotAllowed):
			logger.Debugw("worker_order_timeout_cancel_skip_terminal", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderFetchFailed):
			logger.Warnw("worker_order_timeout_cancel_fetch_failed", "order_id", payload.OrderID, "error", err)
			return nil
		default:
			logger.Warnw("worker_order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

// handleReservationReconcile 重放失败的库存补偿释放
// 返回错误触发 asynq 重试，直到释放成功。
func (c *Consumer) handleReservationReconcile(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_reservation_reconcile_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ReservationReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_reservation_reconcile_unmarshal_failed", "error", err)
		return err
	}
	if payload.ProductID == 0 || payload.Quantity <= 0 {
		logger.Debugw("worker_reservation_reconcile_skip_invalid_payload",
			"product_id", payload.ProductID,
			"quantity", payload.Quantity,
		)
		return nil
	}
	if _, err := c.ProductRepo.ReleaseStock(payload.ProductID, payload.Quantity); err != nil {
		logger.Warnw("worker_reservation_reconcile_release_failed",
			"product_id", payload.ProductID,
			"quantity", payload.Quantity,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_reservation_reconcile_done",
		"product_id", payload.ProductID,
		"quantity", payload.Quantity,
	)
	return nil
}

func (c *Consumer) handleOrderLedgerFinalize(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_ledger_finalize_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderLedgerFinalizePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_ledger_finalize_unmarshal_failed", "error", err)
		return err
	}
	if payload.CustomerID == 0 || payload.LedgerDate == "" {
		logger.Debugw("worker_ledger_finalize_skip_invalid_payload",
			"customer_id", payload.CustomerID,
			"ledger_date", payload.LedgerDate,
		)
		return nil
	}
	if c.QuotaService == nil {
		logger.Warnw("worker_ledger_finalize_skip_quota_service_nil", "customer_id", payload.CustomerID)
		return nil
	}
	if err := c.QuotaService.Finalize(payload.CustomerID, payload.LedgerDate); err != nil {
		logger.Warnw("worker_ledger_finalize_failed",
			"customer_id", payload.CustomerID,
			"ledger_date", payload.LedgerDate,
			"order_id", payload.OrderID,
			"error", err,
		)
		return err
	}
	return nil
}
