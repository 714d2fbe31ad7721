package admin

import (
	"strconv"
	"strings"

	"github.com/leafline-next/internal/http/response"
	"github.com/leafline-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminListAuditLogs 运营审计日志列表
func (h *Handler) AdminListAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var operatorAdminID uint
	if raw := strings.TrimSpace(c.Query("operator_admin_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			operatorAdminID = uint(parsed)
		}
	}
	var orderID uint
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			orderID = uint(parsed)
		}
	}

	logs, total, err := h.AuditLogRepo.ListAdmin(repository.AuditLogListFilter{
		Page:            page,
		PageSize:        pageSize,
		OperatorAdminID: operatorAdminID,
		OrderID:         orderID,
		Action:          strings.TrimSpace(c.Query("action")),
		CreatedFrom:     createdFrom,
		CreatedTo:       createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.audit_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, logs, pagination)
}
