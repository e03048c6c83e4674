package main

import (
	"os"

	"github.com/Nathan2412/project-api/internal/config"
	"github.com/Nathan2412/project-api/internal/domain/model"
	"github.com/Nathan2412/project-api/internal/infra/db"
	"github.com/Nathan2412/project-api/internal/usecase"
	"github.com/Nathan2412/project-api/internal/util"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// デモ用の商品と管理者ユーザーを投入する。
// 商品が既にあればスキップするので何度でも実行できる。
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := util.InitLogger(cfg.GoEnv); err != nil {
		panic(err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer func() { _ = db.Close(gormDB) }()

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	var count int64
	if err := gormDB.Model(&model.Product{}).Count(&count).Error; err != nil {
		logger.Fatal("count failed", zap.Error(err))
	}
	if count > 0 {
		logger.Info("products already present, skipping seed", zap.Int64("count", count))
		return
	}

	products := []model.Product{
		{Name: "Smartphone X", Description: `5G, OLED 6.1"`, Price: mustDecimal("699.99"), Stock: 25},
		{Name: "Laptop Pro", Description: "16GB RAM, 512GB SSD", Price: mustDecimal("1299.00"), Stock: 12},
		{Name: "Wireless Earbuds", Description: "ANC, Bluetooth 5.3", Price: mustDecimal("149.90"), Stock: 100},
		{Name: "Gaming Mouse", Description: "RGB, 16000 DPI", Price: mustDecimal("59.50"), Stock: 60},
		{Name: "USB-C Charger 65W", Description: "GaN fast charging", Price: mustDecimal("39.99"), Stock: 80},
	}

	if err := gormDB.Create(&products).Error; err != nil {
		logger.Fatal("seed products failed", zap.Error(err))
	}

	//管理者（ADMIN_EMAIL/ADMIN_PASSWORDがあるときだけ）
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword != "" {
		hasher := usecase.NewBcryptPasswordHasher(12)
		hash, err := hasher.Hash(adminPassword)
		if err != nil {
			logger.Fatal("hash failed", zap.Error(err))
		}

		admin := model.User{
			Email:        adminEmail,
			PasswordHash: hash,
			Name:         "admin",
			Role:         model.RoleAdmin,
		}
		if err := gormDB.Create(&admin).Error; err != nil {
			logger.Warn("admin create failed (maybe exists)", zap.Error(err))
		}
	}

	logger.Info("seed complete", zap.Int("products", len(products)))
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
