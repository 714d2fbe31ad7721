package i18n

import (
	"fmt"
	"strings"

	"github.com/leafline-next/internal/constants"

	"github.com/gin-gonic/gin"
)

// ResolveLocale 解析请求语言，优先 query 参数，其次 Accept-Language。
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return constants.LocaleEnUS
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		if locale, ok := matchLocale(lang); ok {
			return locale
		}
	}
	header := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" {
			continue
		}
		if locale, ok := matchLocale(tag); ok {
			return locale
		}
	}
	return constants.LocaleEnUS
}

func matchLocale(tag string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	for _, locale := range constants.SupportedLocales {
		if normalized == strings.ToLower(locale) {
			return locale, true
		}
	}
	// 只匹配语言主码，如 "es" -> "es-US"
	base := strings.SplitN(normalized, "-", 2)[0]
	for _, locale := range constants.SupportedLocales {
		if base == strings.SplitN(strings.ToLower(locale), "-", 2)[0] {
			return locale, true
		}
	}
	return "", false
}

// T 返回指定语言的文案，缺失时回退英文，再缺失时返回 key 本身。
func T(locale, key string) string {
	if msgs, ok := catalog[locale]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog[constants.LocaleEnUS][key]; ok {
		return msg
	}
	return key
}

// Sprintf 返回带参数的国际化文案。
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

var catalog = map[string]map[string]string{
	constants.LocaleEnUS: {
		"error.internal":               "internal server error",
		"error.bad_request":            "bad request",
		"error.invalid_params":         "invalid request parameters",
		"error.not_found":              "resource not found",
		"error.unauthorized":           "unauthorized",
		"error.forbidden":              "forbidden",
		"error.auth_header_missing":    "authorization header missing",
		"error.auth_header_invalid":    "authorization header invalid",
		"error.token_invalid":          "token invalid or expired",
		"error.token_revoked":          "token revoked, please sign in again",
		"error.jwt_secret_missing":     "authentication not configured",
		"error.user_disabled":          "account disabled",
		"error.courier_disabled":       "courier account disabled",
		"error.rate_limited":           "too many requests, retry in %d seconds",
		"error.rate_limit_unavailable": "rate limiter unavailable",

		"error.user_id_invalid":         "invalid user identity",
		"error.user_id_type_invalid":    "invalid user identity",
		"error.courier_id_invalid":      "invalid courier identity",
		"error.courier_id_type_invalid": "invalid courier identity",
		"error.admin_id_invalid":        "invalid admin identity",
		"error.admin_id_type_invalid":   "invalid admin identity",

		"error.order_not_found":          "order not found",
		"error.order_fetch_failed":       "failed to load order",
		"error.order_already_claimed":    "order already claimed by another courier",
		"error.order_cancel_not_allowed": "order can no longer be canceled",
		"error.order_status_invalid":     "invalid order status transition",
		"error.courier_not_assigned":     "order is assigned to another courier",
		"error.reassign_not_allowed":     "order can no longer be reassigned",
		"error.persistence_failure":      "failed to save order",
		"error.idempotency_conflict":     "idempotency key already used with a different request",
		"error.order_create_failed":      "failed to create order",
		"error.order_cancel_failed":      "failed to cancel order",
		"error.order_update_failed":      "failed to update order",

		"error.not_eligible":           "account is not eligible to order",
		"error.guest_not_allowed":      "guest checkout is not available",
		"error.unserved_region":        "delivery is not available in this borough",
		"error.quota_exceeded":         "daily purchase limit exceeded",
		"error.insufficient_stock":     "insufficient stock",
		"error.invalid_payment_method": "unsupported payment method",
		"error.invalid_speed_tier":     "unsupported delivery speed",
		"error.invalid_address":        "invalid delivery address",
		"error.invalid_items":          "order items invalid",
		"error.guest_email_required":   "guest email is required",
		"error.email_invalid":          "invalid email address",
		"error.quota_fetch_failed":     "failed to load quota",

		"error.product_not_found":      "product not found",
		"error.product_not_available":  "product not available",
		"error.product_invalid":        "invalid product data",
		"error.product_slug_exists":    "product slug already in use",
		"error.product_fetch_failed":   "failed to load products",
		"error.product_save_failed":    "failed to save product",
		"error.tracking_not_found":     "tracking code not found",
		"error.tracking_fetch_failed":  "failed to load tracking info",
		"error.location_push_failed":   "failed to record location",
		"error.courier_not_found":      "courier not found",
		"error.courier_fetch_failed":   "failed to load couriers",
		"error.courier_save_failed":    "failed to save courier",
		"error.merchant_not_found":     "merchant not found",
		"error.setting_not_found":      "setting not found",
		"error.setting_fetch_failed":   "failed to load setting",
		"error.setting_save_failed":    "failed to save setting",
		"error.audit_fetch_failed":     "failed to load audit logs",
		"error.user_fetch_failed":      "failed to load users",
		"error.user_not_found":         "user not found",
		"error.authz_failed":           "authorization management failed",
		"error.config_fetch_failed":    "failed to load site config",
		"error.queue_unavailable":      "background queue unavailable",
		"error.track_too_many":         "too many tracking attempts, try again later",
	},
	constants.LocaleEsUS: {
		"error.internal":               "error interno del servidor",
		"error.bad_request":            "solicitud incorrecta",
		"error.invalid_params":         "parámetros de solicitud no válidos",
		"error.not_found":              "recurso no encontrado",
		"error.unauthorized":           "no autorizado",
		"error.forbidden":              "prohibido",
		"error.auth_header_missing":    "falta el encabezado de autorización",
		"error.auth_header_invalid":    "encabezado de autorización no válido",
		"error.token_invalid":          "token no válido o expirado",
		"error.token_revoked":          "token revocado, inicie sesión de nuevo",
		"error.jwt_secret_missing":     "autenticación no configurada",
		"error.user_disabled":          "cuenta deshabilitada",
		"error.courier_disabled":       "cuenta de repartidor deshabilitada",
		"error.rate_limited":           "demasiadas solicitudes, reintente en %d segundos",
		"error.rate_limit_unavailable": "limitador de peticiones no disponible",

		"error.user_id_invalid":         "identidad de usuario no válida",
		"error.user_id_type_invalid":    "identidad de usuario no válida",
		"error.courier_id_invalid":      "identidad de repartidor no válida",
		"error.courier_id_type_invalid": "identidad de repartidor no válida",
		"error.admin_id_invalid":        "identidad de administrador no válida",
		"error.admin_id_type_invalid":   "identidad de administrador no válida",

		"error.order_not_found":          "pedido no encontrado",
		"error.order_fetch_failed":       "no se pudo cargar el pedido",
		"error.order_already_claimed":    "el pedido ya fue tomado por otro repartidor",
		"error.order_cancel_not_allowed": "el pedido ya no se puede cancelar",
		"error.order_status_invalid":     "transición de estado no válida",
		"error.courier_not_assigned":     "el pedido está asignado a otro repartidor",
		"error.reassign_not_allowed":     "el pedido ya no se puede reasignar",
		"error.persistence_failure":      "no se pudo guardar el pedido",
		"error.idempotency_conflict":     "la clave de idempotencia ya fue usada con otra solicitud",
		"error.order_create_failed":      "no se pudo crear el pedido",
		"error.order_cancel_failed":      "no se pudo cancelar el pedido",
		"error.order_update_failed":      "no se pudo actualizar el pedido",

		"error.not_eligible":           "la cuenta no es elegible para pedir",
		"error.guest_not_allowed":      "la compra como invitado no está disponible",
		"error.unserved_region":        "no hay entrega disponible en este distrito",
		"error.quota_exceeded":         "límite diario de compra excedido",
		"error.insufficient_stock":     "inventario insuficiente",
		"error.invalid_payment_method": "método de pago no admitido",
		"error.invalid_speed_tier":     "velocidad de entrega no admitida",
		"error.invalid_address":        "dirección de entrega no válida",
		"error.invalid_items":          "artículos del pedido no válidos",
		"error.guest_email_required":   "se requiere el correo del invitado",
		"error.email_invalid":          "dirección de correo no válida",
		"error.quota_fetch_failed":     "no se pudo cargar el límite de compra",

		"error.product_not_found":      "producto no encontrado",
		"error.product_not_available":  "producto no disponible",
		"error.product_invalid":        "datos de producto no válidos",
		"error.product_slug_exists":    "el slug del producto ya está en uso",
		"error.product_fetch_failed":   "no se pudieron cargar los productos",
		"error.product_save_failed":    "no se pudo guardar el producto",
		"error.tracking_not_found":     "código de seguimiento no encontrado",
		"error.tracking_fetch_failed":  "no se pudo cargar el seguimiento",
		"error.location_push_failed":   "no se pudo registrar la ubicación",
		"error.courier_not_found":      "repartidor no encontrado",
		"error.courier_fetch_failed":   "no se pudieron cargar los repartidores",
		"error.courier_save_failed":    "no se pudo guardar el repartidor",
		"error.merchant_not_found":     "comercio no encontrado",
		"error.setting_not_found":      "configuración no encontrada",
		"error.setting_fetch_failed":   "no se pudo cargar la configuración",
		"error.setting_save_failed":    "no se pudo guardar la configuración",
		"error.audit_fetch_failed":     "no se pudieron cargar los registros de auditoría",
		"error.user_fetch_failed":      "no se pudieron cargar los usuarios",
		"error.user_not_found":         "usuario no encontrado",
		"error.authz_failed":           "falló la gestión de permisos",
		"error.config_fetch_failed":    "no se pudo cargar la configuración del sitio",
		"error.queue_unavailable":      "cola de fondo no disponible",
		"error.track_too_many":         "demasiados intentos de seguimiento, intente más tarde",
	},
}
