package worker

import (
	"context"
	"errors"
	"time"

	"github.com/leafline-next/internal/config"
	"github.com/leafline-next/internal/logger"
	"github.com/leafline-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	presenceSweepInterval = time.Minute
	expiredSweepInterval  = 5 * time.Minute
	expiredSweepBatch     = 100
)

// Service 异步队列服务
// 除消费 asynq 任务外，还跑两个周期清扫：
// 心跳过期的骑手下线、延迟任务丢失时的超时订单兜底取消。
type Service struct {
	name           string
	server         *asynq.Server
	mux            *asynq.ServeMux
	consumer       *Consumer
	presenceWindow time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer, presenceWindow time.Duration) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	if presenceWindow <= 0 {
		presenceWindow = 2 * time.Minute
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:           "worker",
		server:         server,
		mux:            mux,
		consumer:       consumer,
		presenceWindow: presenceWindow,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.CourierRepo != nil {
		go s.runPresenceSweepLoop(ctx)
	}
	if s.consumer != nil && s.consumer.OrderService != nil {
		go s.runExpiredOrderSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runPresenceSweepLoop 周期把心跳过期的骑手置为离线
// 在线骑手数直接进配送费的运力倍率，僵尸在线会压低费用。
func (s *Service) runPresenceSweepLoop(ctx context.Context) {
	runOnce := func() {
		affected, err := s.consumer.CourierRepo.MarkStaleOffline(time.Now().Add(-s.presenceWindow))
		if err != nil {
			logger.Warnw("worker_presence_sweep_failed", "error", err)
			return
		}
		if affected > 0 {
			logger.Infow("worker_presence_sweep_done", "offline_count", affected)
		}
	}
	runOnce()

	ticker := time.NewTicker(presenceSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// runExpiredOrderSweepLoop 周期兜底取消超时未认领订单
func (s *Service) runExpiredOrderSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(expiredSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.consumer.OrderService.SweepExpiredPending(expiredSweepBatch)
		}
	}
}
