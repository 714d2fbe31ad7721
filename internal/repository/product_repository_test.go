package repository

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/models"
)

func setupProductRepositoryTest(t *testing.T, name string) (*GormProductRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:product_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	// sqlite 单写者：收紧连接池让并发预占在池上排队而不是报 busy
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return NewProductRepository(db), db
}

func createStockProduct(t *testing.T, db *gorm.DB, slug string, stock int) *models.Product {
	t.Helper()
	product := models.Product{
		Slug:        slug,
		Name:        slug,
		Category:    constants.CategoryAccessory,
		PriceAmount: models.NewMoneyFromString("10"),
		Stock:       stock,
		IsActive:    true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return &product
}

func TestReserveStockConcurrentExactWinners(t *testing.T) {
	repo, db := setupProductRepositoryTest(t, "concurrent")
	product := createStockProduct(t, db, "contended-pipe", 3)

	const attempts = 8
	var wins, losses int64
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			affected, err := repo.ReserveStock(product.ID, 1)
			if err != nil {
				t.Errorf("reserve failed: %v", err)
				return
			}
			if affected == 1 {
				atomic.AddInt64(&wins, 1)
			} else {
				atomic.AddInt64(&losses, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 3 || losses != attempts-3 {
		t.Fatalf("stock 3 under %d attempts: want 3 wins %d losses, got %d/%d",
			attempts, attempts-3, wins, losses)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 0 {
		t.Fatalf("stock should be exactly exhausted, got %d", reloaded.Stock)
	}
}

func TestReserveStockNeverGoesNegative(t *testing.T) {
	repo, db := setupProductRepositoryTest(t, "floor")
	product := createStockProduct(t, db, "floor-pipe", 2)

	affected, err := repo.ReserveStock(product.ID, 3)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("over-reserve should touch no rows, got %d", affected)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 2 {
		t.Fatalf("failed reserve must not change stock, got %d", reloaded.Stock)
	}
}

func TestReleaseStockRestores(t *testing.T) {
	repo, db := setupProductRepositoryTest(t, "release")
	product := createStockProduct(t, db, "release-pipe", 5)

	if _, err := repo.ReserveStock(product.ID, 4); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if _, err := repo.ReleaseStock(product.ID, 4); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 5 {
		t.Fatalf("release should restore stock, got %d", reloaded.Stock)
	}
}
