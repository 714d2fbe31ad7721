package admin

import (
	"strconv"
	"strings"

	"github.com/leafline-next/internal/http/response"
	"github.com/leafline-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminListQuotaLedgers 限购账本列表（合规查账）
func (h *Handler) AdminListQuotaLedgers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var customerID uint
	if raw := strings.TrimSpace(c.Query("customer_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			customerID = uint(parsed)
		}
	}

	entries, total, err := h.QuotaService.ListAdmin(repository.QuotaLedgerListFilter{
		Page:       page,
		PageSize:   pageSize,
		CustomerID: customerID,
		DateFrom:   strings.TrimSpace(c.Query("date_from")),
		DateTo:     strings.TrimSpace(c.Query("date_to")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.quota_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, entries, pagination)
}
