package main

import (
	"fmt"

	"github.com/leafline-next/internal/config"
	"github.com/leafline-next/internal/constants"
	"github.com/leafline-next/internal/logger"
	"github.com/leafline-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加商户
	merchant := models.Merchant{
		Name:     "Leafline Williamsburg",
		Borough:  constants.BoroughBrooklyn,
		Lat:      40.7081,
		Lng:      -73.9571,
		IsActive: true,
	}
	var existingMerchant models.Merchant
	if err := models.DB.Where("name = ?", merchant.Name).First(&existingMerchant).Error; err != nil {
		if err := models.DB.Create(&merchant).Error; err != nil {
			stdLog.Fatalf("Failed to create merchant: %v", err)
		}
		stdLog.Printf("Created merchant: %s (id=%d)", merchant.Name, merchant.ID)
	} else {
		merchant = existingMerchant
		stdLog.Printf("Merchant already exists: %s (id=%d)", merchant.Name, merchant.ID)
	}

	// 添加商品
	products := []models.Product{
		{
			MerchantID:      merchant.ID,
			Slug:            "sunset-sherbet-eighth",
			Name:            "Sunset Sherbet 3.5g",
			Description:     "Indica-leaning hybrid flower, 3.5g jar.",
			Category:        constants.CategoryFlower,
			PriceAmount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(45)),
			UnitWeightGrams: models.NewGramsFromString("3.5"),
			Stock:           40,
			Images: models.StringArray([]string{
				"https://cdn.leafline.example/products/sunset-sherbet.jpg",
			}),
			Tags:      models.StringArray([]string{"hybrid", "indoor"}),
			IsActive:  true,
			SortOrder: 300,
		},
		{
			MerchantID:      merchant.ID,
			Slug:            "gorilla-glue-quarter",
			Name:            "Gorilla Glue 7g",
			Description:     "Heavy hitter hybrid flower, 7g jar.",
			Category:        constants.CategoryFlower,
			PriceAmount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(80)),
			UnitWeightGrams: models.NewGramsFromString("7"),
			Stock:           25,
			Images: models.StringArray([]string{
				"https://cdn.leafline.example/products/gorilla-glue.jpg",
			}),
			Tags:      models.StringArray([]string{"hybrid", "potent"}),
			IsActive:  true,
			SortOrder: 290,
		},
		{
			MerchantID:      merchant.ID,
			Slug:            "lemon-haze-cart",
			Name:            "Lemon Haze Vape Cart 1g",
			Description:     "Sativa live resin cartridge, 1g.",
			Category:        constants.CategoryConcentrate,
			PriceAmount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(55)),
			UnitWeightGrams: models.NewGramsFromString("1"),
			Stock:           60,
			Images: models.StringArray([]string{
				"https://cdn.leafline.example/products/lemon-haze-cart.jpg",
			}),
			Tags:      models.StringArray([]string{"sativa", "live-resin"}),
			IsActive:  true,
			SortOrder: 280,
		},
		{
			MerchantID:      merchant.ID,
			Slug:            "wedding-cake-badder",
			Name:            "Wedding Cake Badder 2g",
			Description:     "Premium badder concentrate, 2g jar.",
			Category:        constants.CategoryConcentrate,
			PriceAmount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(90)),
			UnitWeightGrams: models.NewGramsFromString("2"),
			Stock:           15,
			Images: models.StringArray([]string{
				"https://cdn.leafline.example/products/wedding-cake-badder.jpg",
			}),
			Tags:      models.StringArray([]string{"indica", "badder"}),
			IsActive:  true,
			SortOrder: 270,
		},
		{
			MerchantID:  merchant.ID,
			Slug:        "glass-spoon-pipe",
			Name:        "Glass Spoon Pipe",
			Description: "Borosilicate glass hand pipe.",
			Category:    constants.CategoryAccessory,
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(18)),
			Stock:       100,
			Images: models.StringArray([]string{
				"https://cdn.leafline.example/products/glass-spoon-pipe.jpg",
			}),
			Tags:      models.StringArray([]string{"glass", "accessory"}),
			IsActive:  true,
			SortOrder: 200,
		},
		{
			MerchantID:  merchant.ID,
			Slug:        "rolling-papers-king",
			Name:        "King Size Rolling Papers",
			Description: "Unbleached king size papers, 32 leaves.",
			Category:    constants.CategoryAccessory,
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(4)),
			Stock:       500,
			Images: models.StringArray([]string{
				"https://cdn.leafline.example/products/rolling-papers.jpg",
			}),
			Tags:      models.StringArray([]string{"papers", "accessory"}),
			IsActive:  true,
			SortOrder: 190,
		},
	}

	for _, prod := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", prod.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", prod.Slug)
			}
		} else {
			existing.MerchantID = prod.MerchantID
			existing.Name = prod.Name
			existing.Description = prod.Description
			existing.Category = prod.Category
			existing.PriceAmount = prod.PriceAmount
			existing.UnitWeightGrams = prod.UnitWeightGrams
			existing.Stock = prod.Stock
			existing.Images = prod.Images
			existing.Tags = prod.Tags
			existing.IsActive = prod.IsActive
			existing.SortOrder = prod.SortOrder
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Updated product: %s", prod.Slug)
			}
		}
	}

	// 添加骑手
	couriers := []models.Courier{
		{Name: "Marco Reyes", Phone: "+1-718-555-0101", VehicleType: constants.CourierVehicleBike, IsActive: true},
		{Name: "Dana Whitfield", Phone: "+1-917-555-0144", VehicleType: constants.CourierVehicleScooter, IsActive: true},
		{Name: "Theo Lam", Phone: "+1-646-555-0188", VehicleType: constants.CourierVehicleCar, IsActive: true},
	}
	for _, courier := range couriers {
		var existing models.Courier
		if err := models.DB.Where("name = ?", courier.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&courier).Error; err != nil {
				stdLog.Printf("Failed to create courier %s: %v", courier.Name, err)
			} else {
				stdLog.Printf("Created courier: %s", courier.Name)
			}
		} else {
			stdLog.Printf("Courier already exists: %s", courier.Name)
		}
	}

	// 添加测试用户（已核验，Token 由外部账号体系签发）
	testUser := models.User{
		Email:       "demo@leafline.example",
		DisplayName: "Demo Shopper",
		Locale:      constants.LocaleEnUS,
		Status:      constants.UserStatusActive,
		IsVerified:  true,
	}
	var existingUser models.User
	if err := models.DB.Where("email = ?", testUser.Email).First(&existingUser).Error; err != nil {
		if err := models.DB.Create(&testUser).Error; err != nil {
			stdLog.Printf("Failed to create test user: %v", err)
		} else {
			stdLog.Printf("Created test user: %s", testUser.Email)
		}
	} else {
		stdLog.Printf("Test user already exists: %s", testUser.Email)
	}

	// 更新网站配置
	configData := map[string]interface{}{
		"site_name": "Leafline",
		constants.SettingFieldServedBoroughs: constants.DefaultServedBoroughs,
		"contact": map[string]string{
			"email": "support@leafline.example",
		},
	}

	var setting models.Setting
	if err := models.DB.Where("key = ?", constants.SettingKeySiteConfig).First(&setting).Error; err != nil {
		setting = models.Setting{
			Key:       constants.SettingKeySiteConfig,
			ValueJSON: models.JSON(configData),
		}
		if err := models.DB.Create(&setting).Error; err != nil {
			stdLog.Printf("Failed to create setting: %v", err)
		} else {
			stdLog.Println("Created site config")
		}
	} else {
		setting.ValueJSON = models.JSON(configData)
		if err := models.DB.Save(&setting).Error; err != nil {
			stdLog.Printf("Failed to update setting: %v", err)
		} else {
			stdLog.Println("Updated site config")
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 1 Merchant (Leafline Williamsburg)")
	fmt.Println("- 6 Products (2 flower, 2 concentrate, 2 accessory)")
	fmt.Println("- 3 Couriers")
	fmt.Println("- 1 Verified test user")
	fmt.Println("- Site configuration")
}
