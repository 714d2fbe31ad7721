package admin

import (
	"strconv"
	"strings"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/http/response"
	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminCourierRequest 骑手创建/更新请求
type AdminCourierRequest struct {
	Name        string `json:"name" binding:"required"`
	Phone       string `json:"phone"`
	VehicleType string `json:"vehicle_type" binding:"required"`
	IsActive    *bool  `json:"is_active"`
}

func validCourierVehicle(vehicle string) bool {
	switch vehicle {
	case constants.CourierVehicleBike, constants.CourierVehicleScooter, constants.CourierVehicleCar:
		return true
	default:
		return false
	}
}

// AdminListCouriers 骑手列表
func (h *Handler) AdminListCouriers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	couriers, total, err := h.CourierRepo.List(repository.CourierListFilter{
		Page:       page,
		PageSize:   pageSize,
		Keyword:    strings.TrimSpace(c.Query("keyword")),
		OnlyOnline: c.Query("only_online") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.courier_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, couriers, pagination)
}

// AdminCreateCourier 创建骑手
func (h *Handler) AdminCreateCourier(c *gin.Context) {
	var req AdminCourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if !validCourierVehicle(req.VehicleType) {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	courier := &models.Courier{
		Name:        strings.TrimSpace(req.Name),
		Phone:       strings.TrimSpace(req.Phone),
		VehicleType: req.VehicleType,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := h.CourierRepo.Create(courier); err != nil {
		respondError(c, response.CodeInternal, "error.courier_save_failed", err)
		return
	}

	response.Success(c, courier)
}

// AdminUpdateCourier 更新骑手
func (h *Handler) AdminUpdateCourier(c *gin.Context) {
	courierID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || courierID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	var req AdminCourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if !validCourierVehicle(req.VehicleType) {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	courier, err := h.CourierRepo.GetByID(uint(courierID))
	if err != nil {
		respondError(c, response.CodeInternal, "error.courier_fetch_failed", err)
		return
	}
	if courier == nil {
		respondError(c, response.CodeNotFound, "error.courier_not_found", nil)
		return
	}

	courier.Name = strings.TrimSpace(req.Name)
	courier.Phone = strings.TrimSpace(req.Phone)
	courier.VehicleType = req.VehicleType
	if req.IsActive != nil {
		courier.IsActive = *req.IsActive
	}

	if err := h.CourierRepo.Update(courier); err != nil {
		respondError(c, response.CodeInternal, "error.courier_save_failed", err)
		return
	}

	response.Success(c, courier)
}

// AdminForceCourierOffline 强制骑手下线（异常设备持续心跳时的运营兜底）
func (h *Handler) AdminForceCourierOffline(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	courierID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || courierID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	courier, err := h.CourierRepo.GetByID(uint(courierID))
	if err != nil {
		respondError(c, response.CodeInternal, "error.courier_fetch_failed", err)
		return
	}
	if courier == nil {
		respondError(c, response.CodeNotFound, "error.courier_not_found", nil)
		return
	}

	if err := h.CourierRepo.SetOnline(uint(courierID), false); err != nil {
		respondError(c, response.CodeInternal, "error.courier_save_failed", err)
		return
	}

	cid := uint(courierID)
	audit := &models.AuditLog{
		OperatorAdminID:  adminID,
		OperatorUsername: h.operatorName(adminID),
		Action:           constants.AuditActionCourierForceOnline,
		CourierID:        &cid,
		DetailJSON:       models.JSON{"online": false},
	}
	if err := h.AuditLogRepo.Create(audit); err != nil {
		requestLog(c).Errorw("audit_log_write_failed", "action", audit.Action, "error", err)
	}

	response.Success(c, nil)
}
