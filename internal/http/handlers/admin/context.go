package admin

import (
	handlershared "github.com/leafline-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "admin_id", "error.admin_id_invalid", "error.admin_id_type_invalid")
}

// operatorName 读取操作者账号，用于审计记录。
func (h *Handler) operatorName(adminID uint) string {
	admin, err := h.AdminRepo.GetByID(adminID)
	if err != nil || admin == nil {
		return ""
	}
	return admin.Username
}
