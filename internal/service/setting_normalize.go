package service

import (
	"strings"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/models"
)

// normalizeSettingValueByKey 按设置键执行归一化，避免非法值入库。
func normalizeSettingValueByKey(key string, value map[string]interface{}) models.JSON {
	switch key {
	case constants.SettingKeyOrderConfig:
		return normalizeOrderSetting(value)
	case constants.SettingKeySiteConfig:
		return normalizeSiteSetting(value)
	default:
		return models.JSON(value)
	}
}

// normalizeOrderSetting 归一化订单设置。
func normalizeOrderSetting(value map[string]interface{}) models.JSON {
	normalized := make(models.JSON, len(value)+2)
	for key, raw := range value {
		normalized[key] = raw
	}

	claimTimeout := 30
	if raw, ok := value[constants.SettingFieldClaimTimeoutMinutes]; ok {
		if parsed, err := parseSettingInt(raw); err == nil && parsed > 0 {
			claimTimeout = parsed
		}
	}
	// 同城即时配送，认领超时不超过一天
	if claimTimeout > 1440 {
		claimTimeout = 1440
	}
	normalized[constants.SettingFieldClaimTimeoutMinutes] = claimTimeout

	if raw, ok := value[constants.SettingFieldServedBoroughs]; ok {
		boroughs := parseSettingStringList(raw)
		valid := make([]string, 0, len(boroughs))
		for _, borough := range boroughs {
			if constants.IsKnownBorough(borough) {
				valid = append(valid, borough)
			}
		}
		normalized[constants.SettingFieldServedBoroughs] = valid
	}

	if raw, ok := value[constants.SettingFieldAllowGuest]; ok {
		normalized[constants.SettingFieldAllowGuest] = parseSettingBool(raw)
	}

	return normalized
}

// normalizeSiteSetting 归一化站点配置结构。
func normalizeSiteSetting(value map[string]interface{}) models.JSON {
	normalized := make(models.JSON, len(value)+3)
	for key, raw := range value {
		normalized[key] = raw
	}

	normalized["brand"] = normalizeSiteBrand(value["brand"])
	normalized["contact"] = normalizeSiteContact(value["contact"])

	if raw, ok := value["languages"]; ok {
		normalized["languages"] = normalizeSiteLanguages(raw)
	}

	return normalized
}

func normalizeSiteBrand(raw interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"site_name": "",
	}
	brandMap, ok := raw.(map[string]interface{})
	if !ok {
		return result
	}
	result["site_name"] = normalizeSettingText(brandMap["site_name"])
	return result
}

func normalizeSiteContact(raw interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"phone": "",
		"email": "",
	}
	contactMap, ok := raw.(map[string]interface{})
	if !ok {
		return result
	}
	result["phone"] = normalizeSettingText(contactMap["phone"])
	result["email"] = normalizeSettingText(contactMap["email"])
	return result
}

func normalizeSiteLanguages(raw interface{}) []string {
	list := parseSettingStringList(raw)
	result := make([]string, 0, len(list))
	for _, lang := range list {
		for _, supported := range constants.SupportedLocales {
			if strings.EqualFold(lang, supported) {
				result = append(result, supported)
				break
			}
		}
	}
	if len(result) == 0 {
		return append([]string(nil), constants.SupportedLocales...)
	}
	return result
}

func normalizeSettingText(raw interface{}) string {
	text, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

func parseSettingBool(raw interface{}) bool {
	switch value := raw.(type) {
	case bool:
		return value
	case int:
		return value != 0
	case int64:
		return value != 0
	case float64:
		return value != 0
	case string:
		normalized := strings.ToLower(strings.TrimSpace(value))
		return normalized == "1" || normalized == "true" || normalized == "yes" || normalized == "on"
	default:
		return false
	}
}
