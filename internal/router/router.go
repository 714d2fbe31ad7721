package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leafline-next/internal/authz"
	"github.com/leafline-next/internal/cache"
	"github.com/leafline-next/internal/config"
	adminhandlers "github.com/leafline-next/internal/http/handlers/admin"
	courierhandlers "github.com/leafline-next/internal/http/handlers/courier"
	publichandlers "github.com/leafline-next/internal/http/handlers/public"
	"github.com/leafline-next/internal/http/response"
	"github.com/leafline-next/internal/logger"
	"github.com/leafline-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/骑手/后台分组）
	publicHandler := publichandlers.New(c)
	courierHandler := courierhandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ll"
	}
	redisClient := cache.Client()
	trackRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:track", redisPrefix),
		WindowSeconds: cfg.Security.TrackRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.TrackRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.TrackRateLimit.BlockSeconds,
		MessageKey:    "error.track_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:slug", publicHandler.GetProductBySlug)
		}

		// 追踪接口：凭追踪码访问，按码限流防止枚举
		apiV1.GET("/track/:code", RateLimitMiddleware(redisClient, trackRule, KeyByPathParam("code")), publicHandler.TrackOrder)

		// 游客接口
		guest := apiV1.Group("/guest")
		{
			guest.POST("/orders", publicHandler.CreateGuestOrder)
			guest.POST("/orders/preview", publicHandler.PreviewGuestOrder)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.POST("/orders", publicHandler.CreateOrder)
			user.POST("/orders/preview", publicHandler.PreviewOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.GET("/orders/by-order-no/:order_no", publicHandler.GetOrderByOrderNo)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			user.GET("/me/quota", publicHandler.GetRemainingQuota)
		}

		// 骑手接口（需骑手鉴权）
		courier := apiV1.Group("/courier")
		courier.Use(CourierJWTAuthMiddleware(cfg.CourierJWT.SecretKey, c.CourierRepo))
		{
			courier.GET("/orders/claimable", courierHandler.ListClaimable)
			courier.POST("/orders/:id/claim", courierHandler.ClaimOrder)
			courier.POST("/orders/:id/status", courierHandler.AdvanceStatus)
			courier.GET("/orders", courierHandler.ListMyOrders)
			courier.POST("/location", courierHandler.PushLocation)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 订单管理
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.POST("/orders/:id/cancel", adminHandler.AdminCancelOrder)
				authorized.POST("/orders/:id/accept", adminHandler.AdminAcceptOrder)
				authorized.POST("/orders/:id/reassign-courier", adminHandler.AdminReassignCourier)

				// 商品管理
				authorized.GET("/products", adminHandler.AdminListProducts)
				authorized.GET("/products/:id", adminHandler.AdminGetProduct)
				authorized.POST("/products", adminHandler.AdminCreateProduct)
				authorized.PUT("/products/:id", adminHandler.AdminUpdateProduct)
				authorized.POST("/products/:id/stock", adminHandler.AdminAdjustStock)

				// 骑手管理
				authorized.GET("/couriers", adminHandler.AdminListCouriers)
				authorized.POST("/couriers", adminHandler.AdminCreateCourier)
				authorized.PUT("/couriers/:id", adminHandler.AdminUpdateCourier)
				authorized.POST("/couriers/:id/offline", adminHandler.AdminForceCourierOffline)

				// 限购台账与审计
				authorized.GET("/quota-ledgers", adminHandler.AdminListQuotaLedgers)
				authorized.GET("/audit-logs", adminHandler.AdminListAuditLogs)

				// 用户管理
				authorized.GET("/users", adminHandler.AdminListUsers)
				authorized.GET("/users/:id", adminHandler.AdminGetUser)

				// 设置管理
				authorized.GET("/settings/:key", adminHandler.AdminGetSetting)
				authorized.PUT("/settings/:key", adminHandler.AdminUpdateSetting)

				// 权限管理
				authorized.GET("/authz/roles", adminHandler.AdminListRoles)
				authorized.POST("/authz/roles", adminHandler.AdminCreateRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.AdminDeleteRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.AdminGetRolePolicies)
				authorized.POST("/authz/policies", adminHandler.AdminGrantRolePolicy)
				authorized.DELETE("/authz/policies", adminHandler.AdminRevokeRolePolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.AdminGetAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.AdminSetAdminRoles)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
