package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/models"
)

// PricingRules 配送费计价规则（辖区常量，默认值可被配置覆盖）
type PricingRules struct {
	FreeEverythingThreshold decimal.Decimal            // 小计达到该值全部免配送费
	FreeStandardThreshold   decimal.Decimal            // 小计达到该值且非加急免配送费
	BaseFee                 decimal.Decimal            // 基础配送费
	BoroughSurcharges       map[string]decimal.Decimal // 配送区附加费
	ExpressMultiplier       decimal.Decimal            // 加急倍率
	DemandTightMultiplier   decimal.Decimal            // 运力紧张倍率（在线骑手 < TightCouriers）
	DemandBusyMultiplier    decimal.Decimal            // 运力偏紧倍率（在线骑手 < BusyCouriers）
	TightCouriers           int64
	BusyCouriers            int64
}

// DefaultPricingRules 返回默认计价规则
func DefaultPricingRules() PricingRules {
	return PricingRules{
		FreeEverythingThreshold: decimal.NewFromInt(500),
		FreeStandardThreshold:   decimal.NewFromInt(100),
		BaseFee:                 decimal.NewFromInt(5),
		BoroughSurcharges: map[string]decimal.Decimal{
			constants.BoroughManhattan: decimal.NewFromInt(5),
			constants.BoroughQueens:    decimal.NewFromInt(2),
		},
		ExpressMultiplier:     decimal.NewFromFloat(1.3),
		DemandTightMultiplier: decimal.NewFromInt(2),
		DemandBusyMultiplier:  decimal.NewFromFloat(1.5),
		TightCouriers:         3,
		BusyCouriers:          5,
	}
}

// DeliveryFee 计算配送费（纯函数）
// 规则按序生效：全免门槛 → 非加急免配门槛 → 基础费 + 区域附加，
// 再乘加急倍率与运力倍率，最后四舍五入到整元。
// 同一计算同时用于下单前展示与下单时服务端复核，客户端上送的费用一律不可信。
func DeliveryFee(rules PricingRules, subtotal decimal.Decimal, borough, speedTier string, onlineCourierCount int64) models.Money {
	if subtotal.GreaterThanOrEqual(rules.FreeEverythingThreshold) {
		return models.Money{}
	}
	express := strings.EqualFold(strings.TrimSpace(speedTier), constants.SpeedTierExpress)
	if !express && subtotal.GreaterThanOrEqual(rules.FreeStandardThreshold) {
		return models.Money{}
	}

	fee := rules.BaseFee
	if surcharge, ok := rules.BoroughSurcharges[strings.ToLower(strings.TrimSpace(borough))]; ok {
		fee = fee.Add(surcharge)
	}
	if express {
		fee = fee.Mul(rules.ExpressMultiplier)
	}
	fee = fee.Mul(demandMultiplier(rules, onlineCourierCount))

	// 四舍五入到最近的货币单位
	return models.NewMoneyFromDecimal(fee.Round(0))
}

func demandMultiplier(rules PricingRules, onlineCourierCount int64) decimal.Decimal {
	switch {
	case onlineCourierCount < rules.TightCouriers:
		return rules.DemandTightMultiplier
	case onlineCourierCount < rules.BusyCouriers:
		return rules.DemandBusyMultiplier
	default:
		return decimal.NewFromInt(1)
	}
}
