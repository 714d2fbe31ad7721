package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leafline-next/internal/models"
	"github.com/leafline-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupQuotaServiceTest(t *testing.T, name string) (*QuotaService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:quota_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.QuotaLedgerEntry{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewQuotaService(repository.NewQuotaLedgerRepository(db), DefaultQuotaRules()), db
}

func reserveQuota(t *testing.T, svc *QuotaService, db *gorm.DB, customerID uint, ledgerDate string, flower, concentrate decimal.Decimal) error {
	t.Helper()
	return db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.ReserveInTx(tx, customerID, ledgerDate, flower, concentrate)
		return err
	})
}

func TestQuotaReserveAccumulates(t *testing.T) {
	svc, db := setupQuotaServiceTest(t, "accumulate")
	day := LedgerDate(time.Now())

	if err := reserveQuota(t, svc, db, 7, day, decimal.NewFromInt(30), decimal.Zero); err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}
	if err := reserveQuota(t, svc, db, 7, day, decimal.NewFromInt(40), decimal.NewFromInt(2)); err != nil {
		t.Fatalf("second reserve failed: %v", err)
	}

	remaining, err := svc.Remaining(7, day)
	if err != nil {
		t.Fatalf("remaining failed: %v", err)
	}
	if !remaining.FlowerGrams.Decimal.Equal(decimal.RequireFromString("15.05")) {
		t.Fatalf("expected 15.05g flower remaining, got %s", remaining.FlowerGrams.String())
	}
	if !remaining.ConcentrateGrams.Decimal.Equal(decimal.NewFromInt(22)) {
		t.Fatalf("expected 22g concentrate remaining, got %s", remaining.ConcentrateGrams.String())
	}
}

func TestQuotaReserveOverCeiling(t *testing.T) {
	svc, db := setupQuotaServiceTest(t, "ceiling")
	day := LedgerDate(time.Now())

	if err := reserveQuota(t, svc, db, 9, day, decimal.NewFromInt(60), decimal.Zero); err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}

	err := reserveQuota(t, svc, db, 9, day, decimal.NewFromInt(30), decimal.Zero)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got: %v", err)
	}
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected QuotaExceededError, got: %v", err)
	}
	if !quotaErr.RemainingFlowerGrams.Decimal.Equal(decimal.RequireFromString("25.05")) {
		t.Fatalf("expected 25.05g remaining in error, got %s", quotaErr.RemainingFlowerGrams.String())
	}

	// 超限不落任何状态
	remaining, err := svc.Remaining(9, day)
	if err != nil {
		t.Fatalf("remaining failed: %v", err)
	}
	if !remaining.FlowerGrams.Decimal.Equal(decimal.RequireFromString("25.05")) {
		t.Fatalf("failed reserve should not change ledger, got %s", remaining.FlowerGrams.String())
	}
}

func TestQuotaRemainingWithoutLedger(t *testing.T) {
	svc, _ := setupQuotaServiceTest(t, "empty")
	day := LedgerDate(time.Now())

	remaining, err := svc.Remaining(42, day)
	if err != nil {
		t.Fatalf("remaining failed: %v", err)
	}
	if !remaining.FlowerGrams.Decimal.Equal(DefaultQuotaRules().FlowerCeilingGrams) {
		t.Fatalf("expected full flower ceiling, got %s", remaining.FlowerGrams.String())
	}
	if remaining.LedgerDate != day {
		t.Fatalf("expected ledger date %s, got %s", day, remaining.LedgerDate)
	}
}

func TestQuotaFinalizeStampsLedger(t *testing.T) {
	svc, db := setupQuotaServiceTest(t, "finalize")
	day := LedgerDate(time.Now())

	if err := reserveQuota(t, svc, db, 11, day, decimal.NewFromInt(10), decimal.Zero); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := svc.Finalize(11, day); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	var entry models.QuotaLedgerEntry
	if err := db.Where("customer_id = ? AND ledger_date = ?", 11, day).First(&entry).Error; err != nil {
		t.Fatalf("load ledger failed: %v", err)
	}
	if entry.FinalizedAt == nil {
		t.Fatalf("expected finalized_at to be set")
	}
}
