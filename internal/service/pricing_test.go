package service

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDeliveryFeeFreeStandardThreshold(t *testing.T) {
	rules := DefaultPricingRules()
	fee := DeliveryFee(rules, decimal.NewFromInt(100), "brooklyn", "standard", 10)
	if !fee.Decimal.IsZero() {
		t.Fatalf("expected free delivery at standard threshold, got %s", fee.String())
	}
}

func TestDeliveryFeeFreeEverythingThresholdCoversExpress(t *testing.T) {
	rules := DefaultPricingRules()
	fee := DeliveryFee(rules, decimal.NewFromInt(600), "manhattan", "express", 1)
	if !fee.Decimal.IsZero() {
		t.Fatalf("expected free delivery above everything threshold, got %s", fee.String())
	}
}

func TestDeliveryFeeBoroughSurcharge(t *testing.T) {
	rules := DefaultPricingRules()
	fee := DeliveryFee(rules, decimal.NewFromInt(50), "manhattan", "standard", 10)
	if !fee.Decimal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected 10 for manhattan standard, got %s", fee.String())
	}
}

func TestDeliveryFeeExpressUnderTightSupply(t *testing.T) {
	rules := DefaultPricingRules()
	// (5 * 1.3) * 2 = 13
	fee := DeliveryFee(rules, decimal.NewFromInt(50), "brooklyn", "express", 2)
	if !fee.Decimal.Equal(decimal.NewFromInt(13)) {
		t.Fatalf("expected 13 for express under tight supply, got %s", fee.String())
	}
}

func TestDeliveryFeeBusySupplyRoundsToWholeUnit(t *testing.T) {
	rules := DefaultPricingRules()
	// (5 + 2) * 1.5 = 10.5，四舍五入到 11
	fee := DeliveryFee(rules, decimal.NewFromInt(50), "queens", "standard", 4)
	if !fee.Decimal.Equal(decimal.NewFromInt(11)) {
		t.Fatalf("expected 11 for queens under busy supply, got %s", fee.String())
	}
}

func TestDeliveryFeeDeterministic(t *testing.T) {
	rules := DefaultPricingRules()
	first := DeliveryFee(rules, decimal.RequireFromString("87.30"), "Queens", "EXPRESS", 3)
	second := DeliveryFee(rules, decimal.RequireFromString("87.30"), "queens", "express", 3)
	if !first.Decimal.Equal(second.Decimal) {
		t.Fatalf("same input should produce same fee: %s vs %s", first.String(), second.String())
	}
}
