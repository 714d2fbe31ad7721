package admin

import (
	"strings"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/http/response"
	"github.com/leafline-next/internal/models"

	"github.com/gin-gonic/gin"
)

func knownSettingKey(key string) bool {
	switch key {
	case constants.SettingKeySiteConfig,
		constants.SettingKeyOrderConfig,
		constants.SettingKeyQuotaConfig,
		constants.SettingKeyPricingConfig:
		return true
	default:
		return false
	}
}

// AdminGetSetting 读取设置
func (h *Handler) AdminGetSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if !knownSettingKey(key) {
		respondError(c, response.CodeNotFound, "error.setting_not_found", nil)
		return
	}

	value, err := h.SettingService.GetByKey(key)
	if err != nil {
		respondError(c, response.CodeInternal, "error.setting_fetch_failed", err)
		return
	}
	if value == nil {
		value = models.JSON{}
	}

	response.Success(c, gin.H{"key": key, "value": value})
}

// AdminUpdateSetting 更新设置并留审计
func (h *Handler) AdminUpdateSetting(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	key := strings.TrimSpace(c.Param("key"))
	if !knownSettingKey(key) {
		respondError(c, response.CodeNotFound, "error.setting_not_found", nil)
		return
	}

	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	value, err := h.SettingService.Update(key, req)
	if err != nil {
		respondError(c, response.CodeInternal, "error.setting_save_failed", err)
		return
	}

	audit := &models.AuditLog{
		OperatorAdminID:  adminID,
		OperatorUsername: h.operatorName(adminID),
		Action:           constants.AuditActionSettingUpdate,
		DetailJSON:       models.JSON{"key": key, "value": value},
	}
	if err := h.AuditLogRepo.Create(audit); err != nil {
		requestLog(c).Errorw("audit_log_write_failed", "action", audit.Action, "error", err)
	}

	response.Success(c, gin.H{"key": key, "value": value})
}
