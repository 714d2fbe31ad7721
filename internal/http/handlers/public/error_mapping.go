package public

import (
	"errors"

	"github.com/leafline-next/internal/http/response"
	"github.com/leafline-next/internal/i18n"
	"github.com/leafline-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var orderCreateCommonErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, key: "error.invalid_items"},
	{target: service.ErrInvalidOrderAmount, code: response.CodeBadRequest, key: "error.invalid_items"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, key: "error.product_not_available"},
	{target: service.ErrInvalidPaymentMethod, code: response.CodeBadRequest, key: "error.invalid_payment_method"},
	{target: service.ErrInvalidSpeedTier, code: response.CodeBadRequest, key: "error.invalid_speed_tier"},
	{target: service.ErrInvalidAddress, code: response.CodeBadRequest, key: "error.invalid_address"},
	{target: service.ErrUnservedRegion, code: response.CodeForbidden, key: "error.unserved_region"},
	{target: service.ErrNotEligible, code: response.CodeForbidden, key: "error.not_eligible"},
	{target: service.ErrIdempotencyConflict, code: response.CodeConflict, key: "error.idempotency_conflict"},
	{target: service.ErrPersistenceFailure, code: response.CodeInternal, key: "error.persistence_failure"},
}

var guestOrderExtraErrorRules = []mappedHandlerError{
	{target: service.ErrGuestNotAllowed, code: response.CodeForbidden, key: "error.guest_not_allowed"},
	{target: service.ErrGuestEmailRequired, code: response.CodeBadRequest, key: "error.guest_email_required"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, key: "error.email_invalid"},
}

// respondOrderCreateError 先处理携带明细的限购/库存错误，再按映射表兜底。
func respondOrderCreateError(c *gin.Context, err error, extraRules []mappedHandlerError) {
	var quotaErr *service.QuotaExceededError
	if errors.As(err, &quotaErr) {
		msg := i18n.T(i18n.ResolveLocale(c), "error.quota_exceeded")
		response.ErrorWithData(c, response.CodeConflict, msg, gin.H{
			"remaining_flower_grams":      quotaErr.RemainingFlowerGrams,
			"remaining_concentrate_grams": quotaErr.RemainingConcentrateGrams,
		})
		return
	}
	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		msg := i18n.T(i18n.ResolveLocale(c), "error.insufficient_stock")
		response.ErrorWithData(c, response.CodeConflict, msg, gin.H{
			"product_id":   stockErr.ProductID,
			"product_name": stockErr.ProductName,
			"requested":    stockErr.Requested,
			"available":    stockErr.Available,
		})
		return
	}
	if errors.Is(err, service.ErrQuotaExceeded) {
		respondError(c, response.CodeConflict, "error.quota_exceeded", nil)
		return
	}
	if errors.Is(err, service.ErrInsufficientStock) {
		respondError(c, response.CodeConflict, "error.insufficient_stock", nil)
		return
	}
	rules := concatMappedHandlerErrors(orderCreateCommonErrorRules, extraRules)
	respondWithMappedError(c, err, rules, response.CodeInternal, "error.order_create_failed")
}

func respondUserOrderCreateError(c *gin.Context, err error) {
	respondOrderCreateError(c, err, nil)
}

func respondGuestOrderCreateError(c *gin.Context, err error) {
	respondOrderCreateError(c, err, guestOrderExtraErrorRules)
}
