package courier

import (
	"time"

	"github.com/leafline-next/internal/feed"
	"github.com/leafline-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// PushLocationRequest 位置上报请求
type PushLocationRequest struct {
	Lat float64 `json:"lat" binding:"required"`
	Lng float64 `json:"lng" binding:"required"`
}

// PushLocation 骑手位置上报
// 位置流启用时走流转发，消费端落缓存；未启用时直接本地写入。
func (h *Handler) PushLocation(c *gin.Context) {
	courierID, ok := getCourierID(c)
	if !ok {
		return
	}

	var req PushLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	now := time.Now()
	if h.FeedProducer.Enabled() {
		err := h.FeedProducer.PublishLocation(c.Request.Context(), feed.CourierLocationMessage{
			CourierID: courierID,
			Lat:       req.Lat,
			Lng:       req.Lng,
			Timestamp: now.Unix(),
		})
		if err != nil {
			requestLog(c).Warnw("courier_location_publish_failed",
				"courier_id", courierID,
				"error", err,
			)
			respondError(c, response.CodeInternal, "error.location_push_failed", nil)
			return
		}
		response.Success(c, nil)
		return
	}

	if err := h.TrackingService.RecordCourierLocation(c.Request.Context(), courierID, req.Lat, req.Lng, now); err != nil {
		respondError(c, response.CodeInternal, "error.location_push_failed", err)
		return
	}

	response.Success(c, nil)
}
