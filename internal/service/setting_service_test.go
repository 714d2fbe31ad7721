package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/repository"
)

func setupSettingServiceTest(t *testing.T, name string) *SettingService {
	t.Helper()
	dsn := fmt.Sprintf("file:setting_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewSettingService(repository.NewSettingRepository(db))
}

func TestSettingUpdateOrderConfigNormalizes(t *testing.T) {
	svc := setupSettingServiceTest(t, "order")

	value, err := svc.Update(constants.SettingKeyOrderConfig, map[string]interface{}{
		constants.SettingFieldClaimTimeoutMinutes: "2000",
		constants.SettingFieldServedBoroughs:      []interface{}{"Brooklyn", "gotham", " QUEENS ", "brooklyn"},
		constants.SettingFieldAllowGuest:          "yes",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	minutes, err := svc.GetOrderClaimTimeoutMinutes(30)
	if err != nil {
		t.Fatalf("read timeout failed: %v", err)
	}
	if minutes != 1440 {
		t.Fatalf("claim timeout should cap at 1440, got %d", minutes)
	}

	boroughs, err := svc.GetServedBoroughs()
	if err != nil {
		t.Fatalf("read boroughs failed: %v", err)
	}
	if len(boroughs) != 2 || boroughs[0] != constants.BoroughBrooklyn || boroughs[1] != constants.BoroughQueens {
		t.Fatalf("unknown boroughs should be dropped and dupes collapsed, got %v", boroughs)
	}

	if !svc.GetAllowGuest(false) {
		t.Fatalf("allow_guest \"yes\" should parse as true, value: %v", value)
	}
}

func TestSettingClaimTimeoutFallsBackOnMissing(t *testing.T) {
	svc := setupSettingServiceTest(t, "timeout_default")

	minutes, err := svc.GetOrderClaimTimeoutMinutes(45)
	if err != nil {
		t.Fatalf("read timeout failed: %v", err)
	}
	if minutes != 45 {
		t.Fatalf("missing setting should fall back to default, got %d", minutes)
	}

	var nilService *SettingService
	minutes, err = nilService.GetOrderClaimTimeoutMinutes(45)
	if err != nil || minutes != 45 {
		t.Fatalf("nil service should fall back to default, got %d %v", minutes, err)
	}
}

func TestSettingSiteConfigShape(t *testing.T) {
	svc := setupSettingServiceTest(t, "site")

	value, err := svc.Update(constants.SettingKeySiteConfig, map[string]interface{}{
		"brand":     map[string]interface{}{"site_name": "  Leafline  "},
		"languages": []interface{}{"EN-us", "fr-FR"},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	brand, ok := value["brand"].(map[string]interface{})
	if !ok || brand["site_name"] != "Leafline" {
		t.Fatalf("brand should be trimmed, got %v", value["brand"])
	}
	contact, ok := value["contact"].(map[string]interface{})
	if !ok || contact["phone"] != "" || contact["email"] != "" {
		t.Fatalf("missing contact should normalize to empty fields, got %v", value["contact"])
	}
	languages, ok := value["languages"].([]string)
	if !ok || len(languages) != 1 || languages[0] != constants.LocaleEnUS {
		t.Fatalf("unsupported locales should be dropped, got %v", value["languages"])
	}
}

func TestSettingPricingRulesOverride(t *testing.T) {
	svc := setupSettingServiceTest(t, "pricing")

	defaults := DefaultPricingRules()
	rules, hit := svc.GetPricingRules(defaults)
	if hit {
		t.Fatalf("no stored pricing config should report a miss")
	}
	if !rules.BaseFee.Equal(defaults.BaseFee) {
		t.Fatalf("miss should return defaults unchanged")
	}

	if _, err := svc.Update(constants.SettingKeyPricingConfig, map[string]interface{}{
		"base_fee":           "8",
		"express_multiplier": "0",
		"borough_surcharges": map[string]interface{}{" Bronx ": "3.5"},
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	rules, hit = svc.GetPricingRules(defaults)
	if !hit {
		t.Fatalf("stored pricing config should report a hit")
	}
	if !rules.BaseFee.Equal(decimal.RequireFromString("8")) {
		t.Fatalf("base fee override not applied: %s", rules.BaseFee)
	}
	if !rules.ExpressMultiplier.Equal(defaults.ExpressMultiplier) {
		t.Fatalf("non-positive multiplier must keep the default, got %s", rules.ExpressMultiplier)
	}
	if !rules.BoroughSurcharges[constants.BoroughBronx].Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("surcharge key should normalize to lowercase, got %v", rules.BoroughSurcharges)
	}
}

func TestSettingQuotaRulesOverride(t *testing.T) {
	svc := setupSettingServiceTest(t, "quota")

	defaults := DefaultQuotaRules()
	if _, err := svc.Update(constants.SettingKeyQuotaConfig, map[string]interface{}{
		"flower_ceiling_grams":      "56.7",
		"concentrate_ceiling_grams": "-1",
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	rules, hit := svc.GetQuotaRules(defaults)
	if !hit {
		t.Fatalf("stored quota config should report a hit")
	}
	if !rules.FlowerCeilingGrams.Equal(decimal.RequireFromString("56.7")) {
		t.Fatalf("flower ceiling override not applied: %s", rules.FlowerCeilingGrams)
	}
	if !rules.ConcentrateCeilingGrams.Equal(defaults.ConcentrateCeilingGrams) {
		t.Fatalf("non-positive ceiling must keep the default, got %s", rules.ConcentrateCeilingGrams)
	}
}

func TestParseSettingBool(t *testing.T) {
	cases := []struct {
		raw  interface{}
		want bool
	}{
		{true, true},
		{false, false},
		{1, true},
		{0, false},
		{float64(1), true},
		{" TRUE ", true},
		{"on", true},
		{"no", false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := parseSettingBool(tc.raw); got != tc.want {
			t.Fatalf("parseSettingBool(%v): want %v got %v", tc.raw, tc.want, got)
		}
	}
}

func TestParseSettingStringList(t *testing.T) {
	got := parseSettingStringList([]interface{}{" A ", "b", "a", "", 3})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected list: %v", got)
	}
	if parseSettingStringList("not a list") != nil {
		t.Fatalf("scalar input should return nil")
	}
}
