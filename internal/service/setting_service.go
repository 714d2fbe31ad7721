package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/repository"
)

// SettingService 设置业务服务
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// GetConfig 获取站点配置（合并默认值）
func (s *SettingService) GetConfig(defaults map[string]interface{}) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	for k, v := range defaults {
		data[k] = v
	}

	setting, err := s.repo.GetByKey(constants.SettingKeySiteConfig)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return data, nil
	}

	for k, v := range setting.ValueJSON {
		data[k] = v
	}
	return data, nil
}

// GetByKey 获取设置
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// Update 设置值
func (s *SettingService) Update(key string, value map[string]interface{}) (models.JSON, error) {
	normalized := normalizeSettingValueByKey(key, value)

	setting, err := s.repo.Upsert(key, normalized)
	if err != nil {
		return nil, err
	}
	return setting.ValueJSON, nil
}

// GetOrderClaimTimeoutMinutes 获取订单认领超时分钟配置
func (s *SettingService) GetOrderClaimTimeoutMinutes(defaultValue int) (int, error) {
	if s == nil {
		return defaultValue, nil
	}
	value, err := s.GetByKey(constants.SettingKeyOrderConfig)
	if err != nil {
		return defaultValue, err
	}
	if value == nil {
		return defaultValue, nil
	}
	raw, ok := value[constants.SettingFieldClaimTimeoutMinutes]
	if !ok {
		return defaultValue, nil
	}
	minutes, err := parseSettingInt(raw)
	if err != nil {
		return defaultValue, err
	}
	if minutes <= 0 {
		return defaultValue, nil
	}
	return minutes, nil
}

// GetServedBoroughs 获取配送辖区配置（未配置时返回空表示用默认辖区）
func (s *SettingService) GetServedBoroughs() ([]string, error) {
	if s == nil {
		return nil, nil
	}
	value, err := s.GetByKey(constants.SettingKeyOrderConfig)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	raw, ok := value[constants.SettingFieldServedBoroughs]
	if !ok {
		return nil, nil
	}
	return parseSettingStringList(raw), nil
}

// GetAllowGuest 获取游客下单开关（后台设置优先于配置）
func (s *SettingService) GetAllowGuest(defaultValue bool) bool {
	if s == nil {
		return defaultValue
	}
	value, err := s.GetByKey(constants.SettingKeyOrderConfig)
	if err != nil || value == nil {
		return defaultValue
	}
	raw, ok := value[constants.SettingFieldAllowGuest]
	if !ok {
		return defaultValue
	}
	return parseSettingBool(raw)
}

// GetPricingRules 读取计价规则覆盖项，返回是否命中设置
func (s *SettingService) GetPricingRules(defaults PricingRules) (PricingRules, bool) {
	if s == nil {
		return defaults, false
	}
	value, err := s.GetByKey(constants.SettingKeyPricingConfig)
	if err != nil || value == nil {
		return defaults, false
	}

	rules := defaults
	if v, ok := parseSettingDecimal(value["free_everything_threshold"]); ok {
		rules.FreeEverythingThreshold = v
	}
	if v, ok := parseSettingDecimal(value["free_standard_threshold"]); ok {
		rules.FreeStandardThreshold = v
	}
	if v, ok := parseSettingDecimal(value["base_fee"]); ok {
		rules.BaseFee = v
	}
	if v, ok := parseSettingDecimal(value["express_multiplier"]); ok && v.IsPositive() {
		rules.ExpressMultiplier = v
	}
	if v, ok := parseSettingDecimal(value["demand_tight_multiplier"]); ok && v.IsPositive() {
		rules.DemandTightMultiplier = v
	}
	if v, ok := parseSettingDecimal(value["demand_busy_multiplier"]); ok && v.IsPositive() {
		rules.DemandBusyMultiplier = v
	}
	if raw, ok := value["borough_surcharges"].(map[string]interface{}); ok {
		surcharges := make(map[string]decimal.Decimal, len(raw))
		for borough, amount := range raw {
			if v, ok := parseSettingDecimal(amount); ok {
				surcharges[strings.ToLower(strings.TrimSpace(borough))] = v
			}
		}
		if len(surcharges) > 0 {
			rules.BoroughSurcharges = surcharges
		}
	}
	return rules, true
}

// GetQuotaRules 读取限购规则覆盖项（启动时解析一次）
func (s *SettingService) GetQuotaRules(defaults QuotaRules) (QuotaRules, bool) {
	if s == nil {
		return defaults, false
	}
	value, err := s.GetByKey(constants.SettingKeyQuotaConfig)
	if err != nil || value == nil {
		return defaults, false
	}

	rules := defaults
	if v, ok := parseSettingDecimal(value["flower_ceiling_grams"]); ok && v.IsPositive() {
		rules.FlowerCeilingGrams = v
	}
	if v, ok := parseSettingDecimal(value["concentrate_ceiling_grams"]); ok && v.IsPositive() {
		rules.ConcentrateCeilingGrams = v
	}
	return rules, true
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}

func parseSettingDecimal(value interface{}) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		if parsed, err := decimal.NewFromString(v.String()); err == nil {
			return parsed, true
		}
		return decimal.Decimal{}, false
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return decimal.Decimal{}, false
		}
		if parsed, err := decimal.NewFromString(trimmed); err == nil {
			return parsed, true
		}
		return decimal.Decimal{}, false
	default:
		return decimal.Decimal{}, false
	}
}

func parseSettingStringList(value interface{}) []string {
	var list []string
	switch v := value.(type) {
	case []string:
		list = v
	case []interface{}:
		for _, item := range v {
			if text, ok := item.(string); ok {
				list = append(list, text)
			}
		}
	default:
		return nil
	}

	result := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, item := range list {
		normalized := strings.ToLower(strings.TrimSpace(item))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}
