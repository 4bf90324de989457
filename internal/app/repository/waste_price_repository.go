package repository

import (
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WastePriceRepository interface {
	WithTx(tx *gorm.DB) WastePriceRepository
	FindAll() ([]model.WastePrice, error)
	FindByAddressType(addressType model.AddressType) ([]model.WastePrice, error)
	Upsert(rows []model.WastePrice) error
}

type wastePriceRepository struct {
	db *gorm.DB
}

func NewWastePriceRepository(db *gorm.DB) WastePriceRepository {
	return &wastePriceRepository{db: db}
}

func (r *wastePriceRepository) WithTx(tx *gorm.DB) WastePriceRepository {
	return &wastePriceRepository{db: tx}
}

func (r *wastePriceRepository) FindAll() ([]model.WastePrice, error) {
	var rows []model.WastePrice
	if err := r.db.Order("address_type ASC, waste_type ASC").Find(&rows).Error; err != nil {
		logger.Error("Failed to load price table", err)
		return nil, err
	}
	return rows, nil
}

func (r *wastePriceRepository) FindByAddressType(addressType model.AddressType) ([]model.WastePrice, error) {
	var rows []model.WastePrice
	if err := r.db.Where("address_type = ?", addressType).Find(&rows).Error; err != nil {
		logger.Error("Failed to load prices for address type", err, map[string]interface{}{
			"address_type": addressType,
		})
		return nil, err
	}
	return rows, nil
}

// Upsert inserts or overwrites rows keyed by (address_type, waste_type)
func (r *wastePriceRepository) Upsert(rows []model.WastePrice) error {
	if len(rows) == 0 {
		return nil
	}

	logger.Debug("Upserting price rows", map[string]interface{}{
		"rows": len(rows),
	})

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address_type"}, {Name: "waste_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"price_per_kg", "updated_by", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		logger.Error("Failed to upsert price rows", err)
		return err
	}
	return nil
}
