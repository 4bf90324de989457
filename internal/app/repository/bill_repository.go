package repository

import (
	"time"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

type BillFilter struct {
	Status    *model.BillStatus
	Kind      model.BillKind
	AddressID *uint
	UserID    *uint // bills of any address owned by the resident
	PeriodKey string
	From      *time.Time // created_at, inclusive
	To        *time.Time // created_at, exclusive
	Page      int
	PageSize  int
}

type BillRepository interface {
	WithTx(tx *gorm.DB) BillRepository
	Create(bill *model.Bill) error
	FindByID(id uint) (*model.Bill, error)
	FindByIDs(ids []uint) ([]model.Bill, error)
	ExistsForPeriod(addressID uint, periodKey string) (bool, error)
	List(filter BillFilter) ([]model.Bill, int64, error)
	FindAll(filter BillFilter) ([]model.Bill, error)
	TransitionStatus(ids []uint, from, to model.BillStatus, paidAt *time.Time) (int64, error)
	UpdateStatus(id uint, status model.BillStatus, paidAt *time.Time) error
	HasPendingSlip(id uint) (bool, error)
	SaveTotals(bill *model.Bill) error
}

type billRepository struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) WithTx(tx *gorm.DB) BillRepository {
	return &billRepository{db: tx}
}

// Create inserts the bill together with its items
func (r *billRepository) Create(bill *model.Bill) error {
	logger.Debug("Creating bill in database", map[string]interface{}{
		"address_id": bill.AddressID,
		"kind":       bill.Kind,
	})

	if err := r.db.Omit("Address").Create(bill).Error; err != nil {
		logger.Error("Failed to create bill in database", err, map[string]interface{}{
			"address_id": bill.AddressID,
			"kind":       bill.Kind,
		})
		return err
	}

	logger.Debug("Bill created in database", map[string]interface{}{
		"bill_id":    bill.ID,
		"address_id": bill.AddressID,
		"amount_due": bill.AmountDue.StringFixed(2),
	})
	return nil
}

func (r *billRepository) FindByID(id uint) (*model.Bill, error) {
	var bill model.Bill
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("bill_items.id ASC")
	}).Preload("Address.User").First(&bill, id).Error
	if err != nil {
		logger.Error("Failed to find bill by ID in database", err, map[string]interface{}{
			"bill_id": id,
		})
		return nil, err
	}
	return &bill, nil
}

// FindByIDs loads bills with their address; missing ids are simply absent
func (r *billRepository) FindByIDs(ids []uint) ([]model.Bill, error) {
	var bills []model.Bill
	if len(ids) == 0 {
		return bills, nil
	}
	if err := r.db.Preload("Address").Where("id IN ?", ids).Order("id ASC").Find(&bills).Error; err != nil {
		logger.Error("Failed to find bills by IDs", err, map[string]interface{}{
			"bill_ids": ids,
		})
		return nil, err
	}
	return bills, nil
}

func (r *billRepository) ExistsForPeriod(addressID uint, periodKey string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Bill{}).
		Where("address_id = ? AND period_key = ?", addressID, periodKey).
		Count(&count).Error
	return count > 0, err
}

func (r *billRepository) filtered(filter BillFilter) *gorm.DB {
	query := r.db.Model(&model.Bill{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.AddressID != nil {
		query = query.Where("address_id = ?", *filter.AddressID)
	}
	if filter.UserID != nil {
		owned := r.db.Model(&model.Address{}).Select("id").Where("user_id = ?", *filter.UserID)
		query = query.Where("address_id IN (?)", owned)
	}
	if filter.PeriodKey != "" {
		query = query.Where("period_key = ?", filter.PeriodKey)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", filter.To.UTC())
	}
	return query
}

func (r *billRepository) List(filter BillFilter) ([]model.Bill, int64, error) {
	query := r.filtered(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count bills", err)
		return nil, 0, err
	}

	var bills []model.Bill
	if err := query.Preload("Items").Preload("Address").
		Scopes(paginate(filter.Page, filter.PageSize)).
		Order("created_at DESC, id DESC").
		Find(&bills).Error; err != nil {
		logger.Error("Failed to list bills", err)
		return nil, 0, err
	}

	logger.Debug("Bills listed", map[string]interface{}{
		"count": len(bills),
		"total": total,
	})
	return bills, total, nil
}

// FindAll returns every matching bill with address and owner, for exports
func (r *billRepository) FindAll(filter BillFilter) ([]model.Bill, error) {
	var bills []model.Bill
	if err := r.filtered(filter).Preload("Address.User").Order("id ASC").Find(&bills).Error; err != nil {
		logger.Error("Failed to load bills", err)
		return nil, err
	}
	return bills, nil
}

// TransitionStatus moves bills that are currently in from to to.
// The returned count lets callers detect bills that changed underneath them.
func (r *billRepository) TransitionStatus(ids []uint, from, to model.BillStatus, paidAt *time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.Model(&model.Bill{}).
		Where("id IN ? AND status = ?", ids, from).
		Updates(map[string]interface{}{
			"status":  to,
			"paid_at": paidAt,
		})
	if res.Error != nil {
		logger.Error("Failed to transition bill status", res.Error, map[string]interface{}{
			"bill_ids": ids,
			"from":     from,
			"to":       to,
		})
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// UpdateStatus sets a status unconditionally (admin override)
func (r *billRepository) UpdateStatus(id uint, status model.BillStatus, paidAt *time.Time) error {
	res := r.db.Model(&model.Bill{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":  status,
		"paid_at": paidAt,
	})
	if res.Error != nil {
		logger.Error("Failed to update bill status", res.Error, map[string]interface{}{
			"bill_id": id,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HasPendingSlip reports whether a slip awaiting review is linked to the bill
func (r *billRepository) HasPendingSlip(id uint) (bool, error) {
	var count int64
	err := r.db.Table("payment_slip_bills").
		Joins("JOIN payment_slips ON payment_slips.id = payment_slip_bills.payment_slip_id").
		Where("payment_slip_bills.bill_id = ? AND payment_slips.status = ?", id, model.SlipStatusPending).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to check pending slips for bill", err, map[string]interface{}{
			"bill_id": id,
		})
		return false, err
	}
	return count > 0, nil
}

// SaveTotals writes the computed weight and amount and inserts bill.Items
func (r *billRepository) SaveTotals(bill *model.Bill) error {
	err := r.db.Model(&model.Bill{}).Where("id = ?", bill.ID).Updates(map[string]interface{}{
		"total_weight_kg": bill.TotalWeightKg,
		"amount_due":      bill.AmountDue,
	}).Error
	if err != nil {
		logger.Error("Failed to save bill totals", err, map[string]interface{}{
			"bill_id": bill.ID,
		})
		return err
	}

	if len(bill.Items) == 0 {
		return nil
	}
	for i := range bill.Items {
		bill.Items[i].BillID = bill.ID
	}
	if err := r.db.Create(&bill.Items).Error; err != nil {
		logger.Error("Failed to create bill items", err, map[string]interface{}{
			"bill_id": bill.ID,
		})
		return err
	}
	return nil
}
