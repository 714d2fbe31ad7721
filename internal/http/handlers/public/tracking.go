package public

import (
	"errors"
	"strings"

	"github.com/leafline-next/internal/http/response"
	"github.com/leafline-next/internal/service"

	"github.com/gin-gonic/gin"
)

// TrackOrder 无鉴权追踪查询，仅凭追踪码返回脱敏快照
func (h *Handler) TrackOrder(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	snapshot, err := h.TrackingService.Track(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrTrackingNotFound) {
			respondError(c, response.CodeNotFound, "error.tracking_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.tracking_fetch_failed", err)
		return
	}

	response.Success(c, snapshot)
}
