package model

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wastebill/wastebill-backend/internal/billing"
)

// WastePrice is one row of the price table: price per kilogram for an
// address class and waste type. Recyclable prices may be negative.
type WastePrice struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	AddressType AddressType       `gorm:"type:varchar(20);not null;uniqueIndex:idx_waste_prices_class_type" json:"address_type"`
	WasteType   billing.WasteType `gorm:"type:varchar(20);not null;uniqueIndex:idx_waste_prices_class_type" json:"waste_type"`
	PricePerKg  decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"price_per_kg"`
	UpdatedBy   *uint             `json:"updated_by,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (WastePrice) TableName() string {
	return "waste_prices"
}

// PriceMap collapses rows of one address class into calculator prices
func PriceMap(rows []WastePrice) billing.Prices {
	prices := make(billing.Prices, len(rows))
	for _, r := range rows {
		prices[r.WasteType] = r.PricePerKg
	}
	return prices
}
