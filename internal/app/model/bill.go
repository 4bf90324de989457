package model

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wastebill/wastebill-backend/internal/billing"
)

type BillStatus int  // payment state of a bill
type BillKind string // how the bill was produced

const (
	BillStatusUnpaid  BillStatus = 0 // waiting for payment
	BillStatusPaid    BillStatus = 1 // slip approved
	BillStatusPending BillStatus = 2 // slip uploaded, under review

	BillKindMonthly BillKind = "monthly" // scheduled run, one per address per period
	BillKindManual  BillKind = "manual"  // created by staff at the bin
)

func (s BillStatus) Valid() bool {
	return s == BillStatusUnpaid || s == BillStatusPaid || s == BillStatusPending
}

// Bill is an amount owed by one address. Monthly bills carry a period key
// and at most one exists per address and period.
type Bill struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	AddressID     uint            `gorm:"not null;index;uniqueIndex:idx_bills_address_period" json:"address_id"`
	Kind          BillKind        `gorm:"type:varchar(10);not null" json:"kind"`
	PeriodKey     *string         `gorm:"type:varchar(7);uniqueIndex:idx_bills_address_period" json:"period_key,omitempty"`
	PeriodStart   *time.Time      `json:"period_start,omitempty"`
	PeriodEnd     *time.Time      `json:"period_end,omitempty"`
	TotalWeightKg decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_weight_kg"`
	AmountDue     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_due"`
	DueDate       time.Time       `gorm:"not null;index" json:"due_date"`
	Status        BillStatus      `gorm:"not null;default:0;index" json:"status"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedBy     *uint           `json:"created_by,omitempty"` // admin for manual bills
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Address *Address   `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Items   []BillItem `gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Bill) TableName() string {
	return "bills"
}

// BillItem snapshots the weight and price used for one waste type
type BillItem struct {
	ID         uint              `gorm:"primarykey" json:"id"`
	BillID     uint              `gorm:"not null;index" json:"bill_id"`
	WasteType  billing.WasteType `gorm:"type:varchar(20);not null" json:"waste_type"`
	WeightKg   decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"weight_kg"`
	PricePerKg decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"price_per_kg"`
	Amount     decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
}

func (BillItem) TableName() string {
	return "bill_items"
}

// BillItemsFromLines converts calculator lines into rows
func BillItemsFromLines(lines []billing.Line) []BillItem {
	items := make([]BillItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, BillItem{
			WasteType:  l.WasteType,
			WeightKg:   l.WeightKg,
			PricePerKg: l.PricePerKg,
			Amount:     l.Amount,
		})
	}
	return items
}
