package provider

import (
	"time"

	"github.com/leafline-next/internal/authz"
	"github.com/leafline-next/internal/cache"
	"github.com/leafline-next/internal/config"
	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/feed"
	"github.com/leafline-next/internal/logger"
	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/queue"
	"github.com/leafline-next/internal/repository"
	"github.com/leafline-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config       *config.Config
	QueueClient  *queue.Client
	FeedProducer *feed.Producer

	// Repositories
	AdminRepo       repository.AdminRepository
	UserRepo        repository.UserRepository
	OrderRepo       repository.OrderRepository
	ProductRepo     repository.ProductRepository
	TrackingRepo    repository.TrackingEventRepository
	CourierRepo     repository.CourierRepository
	MerchantRepo    repository.MerchantRepository
	QuotaLedgerRepo repository.QuotaLedgerRepository
	SettingRepo     repository.SettingRepository
	AuditLogRepo    repository.AuditLogRepository

	// Services
	AuthzService    *authz.Service
	SettingService  *service.SettingService
	QuotaService    *service.QuotaService
	OrderService    *service.OrderService
	TrackingService *service.TrackingService
	ProductService  *service.ProductService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:       cfg,
		QueueClient:  queueClient,
		FeedProducer: feed.NewProducer(&cfg.Feed),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.TrackingRepo = repository.NewTrackingEventRepository(db)
	c.CourierRepo = repository.NewCourierRepository(db)
	c.MerchantRepo = repository.NewMerchantRepository(db)
	c.QuotaLedgerRepo = repository.NewQuotaLedgerRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AuditLogRepo = repository.NewAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.SettingService = service.NewSettingService(c.SettingRepo)

	// 限购上限在启动时解析一次，运行期修改设置需重启生效
	quotaRules, fromSetting := c.SettingService.GetQuotaRules(service.DefaultQuotaRules())
	if fromSetting {
		logger.Infow("provider_quota_rules_from_setting",
			"flower_ceiling_grams", quotaRules.FlowerCeilingGrams,
			"concentrate_ceiling_grams", quotaRules.ConcentrateCeilingGrams,
		)
	}
	c.QuotaService = service.NewQuotaService(c.QuotaLedgerRepo, quotaRules)

	presenceWindow := time.Duration(c.Config.Delivery.PresenceWindowSeconds) * time.Second
	servedBoroughs := c.Config.Delivery.ServedBoroughs
	if len(servedBoroughs) == 0 {
		servedBoroughs = constants.DefaultServedBoroughs
	}

	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ProductRepo,
		c.TrackingRepo,
		c.CourierRepo,
		c.UserRepo,
		c.MerchantRepo,
		c.AuditLogRepo,
		c.QuotaService,
		c.QueueClient,
		c.SettingService,
		service.OrderOptions{
			AllowGuest:          c.Config.Order.AllowGuest,
			ServedBoroughs:      servedBoroughs,
			ClaimTimeoutMinutes: c.Config.Order.ClaimTimeoutMinutes,
			PresenceWindow:      presenceWindow,
			Currency:            constants.SiteCurrencyDefault,
			PricingRules:        service.DefaultPricingRules(),
			DefaultMerchantID:   c.Config.Delivery.DefaultMerchantID,
		},
	)
	c.TrackingService = service.NewTrackingService(c.OrderRepo, c.TrackingRepo, c.CourierRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.AuditLogRepo)
}
