package db

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/wastebill/wastebill-backend/config"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/billing"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"github.com/wastebill/wastebill-backend/pkg/util"
	"gorm.io/gorm"
)

// DefaultPrices is the price table installed on an empty database (baht per kg).
var DefaultPrices = map[model.AddressType]map[billing.WasteType]string{
	model.AddressHousehold: {
		billing.WasteGeneral:    "2.00",
		billing.WasteHazardous:  "10.00",
		billing.WasteRecyclable: "-1.00",
		billing.WasteOrganic:    "1.00",
	},
	model.AddressEstablishment: {
		billing.WasteGeneral:    "4.00",
		billing.WasteHazardous:  "15.00",
		billing.WasteRecyclable: "-1.00",
		billing.WasteOrganic:    "2.00",
	},
}

// Migrate runs database migrations on the global connection
func Migrate(bootstrap *config.BootstrapConfig) error {
	logger.Info("Running database migrations...")

	models := model.All()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := Seed(DB, bootstrap); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed installs the default price table and the bootstrap super admin.
// Existing rows are left untouched.
func Seed(db *gorm.DB, bootstrap *config.BootstrapConfig) error {
	logger.Info("Seeding initial data...")

	if err := seedPriceTable(db); err != nil {
		logger.Error("Failed to seed price table", err)
		return err
	}
	if bootstrap != nil {
		if err := seedBootstrapAdmin(db, bootstrap); err != nil {
			logger.Error("Failed to seed bootstrap admin", err)
			return err
		}
	}

	logger.Info("Initial data seeded successfully")
	return nil
}

func seedPriceTable(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.WastePrice{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Price table already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	rows := make([]model.WastePrice, 0, 8)
	for _, addrType := range model.AddressTypes {
		for _, wasteType := range billing.WasteTypes {
			rows = append(rows, model.WastePrice{
				AddressType: addrType,
				WasteType:   wasteType,
				PricePerKg:  decimal.RequireFromString(DefaultPrices[addrType][wasteType]),
			})
		}
	}
	if err := db.Create(&rows).Error; err != nil {
		return err
	}

	logger.Info("Price table seeded", map[string]interface{}{
		"rows": len(rows),
	})
	return nil
}

func seedBootstrapAdmin(db *gorm.DB, cfg *config.BootstrapConfig) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		logger.Warn("BOOTSTRAP_ADMIN_PASSWORD not set, skipping super admin creation")
		return nil
	}

	var existing model.AdminAccount
	err := db.Where("username = ?", cfg.AdminUsername).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := util.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := model.AdminAccount{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		FullName:     "Super Admin",
		Role:         model.AdminRoleSuperAdmin,
		Active:       true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Info("Bootstrap super admin created", map[string]interface{}{
		"username": admin.Username,
	})
	return nil
}
