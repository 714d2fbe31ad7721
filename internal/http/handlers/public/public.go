package public

import (
	"time"

	"github.com/leafline-next/internal/cache"
	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	publicConfigCacheKey = "public:config"
	publicConfigCacheTTL = 60 * time.Second
)

// GetConfig 获取站点公开配置
func (h *Handler) GetConfig(c *gin.Context) {
	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), publicConfigCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	// 默认配置
	defaults := map[string]interface{}{
		"site_name": "Leafline",
		"languages": constants.SupportedLocales,
		"currency":  constants.SiteCurrencyDefault,
		"contact": map[string]interface{}{
			"phone": "",
			"email": "",
		},
	}

	data, err := h.SettingService.GetConfig(defaults)
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}

	boroughs, err := h.SettingService.GetServedBoroughs()
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}
	if len(boroughs) == 0 {
		boroughs = constants.DefaultServedBoroughs
	}
	data["served_boroughs"] = boroughs
	data["allow_guest_checkout"] = h.SettingService.GetAllowGuest(h.Config.Order.AllowGuest)
	data["speed_tiers"] = []string{constants.SpeedTierStandard, constants.SpeedTierExpress}
	data["payment_methods"] = []string{
		constants.PaymentMethodCashOnDelivery,
		constants.PaymentMethodDebitOnDoor,
	}

	if err := cache.SetJSON(c.Request.Context(), publicConfigCacheKey, data, publicConfigCacheTTL); err != nil {
		requestLog(c).Warnw("public_config_cache_set_failed", "error", err)
	}

	response.Success(c, data)
}
