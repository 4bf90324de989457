package model

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wastebill/wastebill-backend/internal/billing"
)

// WasteRecord is one weighing of one waste type. Rows are never edited;
// BillID is stamped once when the weight is billed.
type WasteRecord struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	AddressID    uint              `gorm:"not null;index" json:"address_id"`
	WasteType    billing.WasteType `gorm:"type:varchar(20);not null;index" json:"waste_type"`
	WeightKg     decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"weight_kg"`
	RecordedDate time.Time         `gorm:"not null;index" json:"recorded_date"`
	RecordedBy   *uint             `json:"recorded_by,omitempty"`          // admin who scanned/entered
	BillID       *uint             `gorm:"index" json:"bill_id,omitempty"` // nil while unbilled
	CreatedAt    time.Time         `json:"created_at"`

	Address *Address `gorm:"foreignKey:AddressID" json:"address,omitempty"`
}

func (WasteRecord) TableName() string {
	return "waste_records"
}
