package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/billing"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

type WasteRecordFilter struct {
	AddressID  *uint
	AddressIDs []uint
	WasteType  billing.WasteType
	From       *time.Time // inclusive
	To         *time.Time // exclusive
	Unbilled   bool
	Page       int
	PageSize   int
}

// AddressWeight is the summed weight of one waste type at one address
type AddressWeight struct {
	AddressID uint
	WasteType billing.WasteType
	Total     decimal.Decimal
}

type WasteRecordRepository interface {
	WithTx(tx *gorm.DB) WasteRecordRepository
	CreateBatch(records []model.WasteRecord) error
	List(filter WasteRecordFilter) ([]model.WasteRecord, int64, error)
	FindAll(filter WasteRecordFilter) ([]model.WasteRecord, error)
	UnbilledWeights(addressID uint, from, to *time.Time) (billing.Weights, error)
	StampBill(addressID, billID uint, from, to *time.Time) (int64, error)
	WeightsForBill(billID uint) (billing.Weights, error)
	TotalsByAddress(from, to time.Time) ([]AddressWeight, error)
}

type wasteRecordRepository struct {
	db *gorm.DB
}

func NewWasteRecordRepository(db *gorm.DB) WasteRecordRepository {
	return &wasteRecordRepository{db: db}
}

func (r *wasteRecordRepository) WithTx(tx *gorm.DB) WasteRecordRepository {
	return &wasteRecordRepository{db: tx}
}

func (r *wasteRecordRepository) CreateBatch(records []model.WasteRecord) error {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		records[i].RecordedDate = records[i].RecordedDate.UTC()
	}
	if err := r.db.Omit("Address").Create(&records).Error; err != nil {
		logger.Error("Failed to create waste records", err, map[string]interface{}{
			"address_id": records[0].AddressID,
			"count":      len(records),
		})
		return err
	}

	logger.Debug("Waste records created", map[string]interface{}{
		"address_id": records[0].AddressID,
		"count":      len(records),
	})
	return nil
}

func (r *wasteRecordRepository) applyFilter(query *gorm.DB, filter WasteRecordFilter) *gorm.DB {
	if filter.AddressID != nil {
		query = query.Where("address_id = ?", *filter.AddressID)
	}
	if len(filter.AddressIDs) > 0 {
		query = query.Where("address_id IN ?", filter.AddressIDs)
	}
	if filter.WasteType != "" {
		query = query.Where("waste_type = ?", filter.WasteType)
	}
	// dates are stored in UTC
	if filter.From != nil {
		query = query.Where("recorded_date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("recorded_date < ?", filter.To.UTC())
	}
	if filter.Unbilled {
		query = query.Where("bill_id IS NULL")
	}
	return query
}

func (r *wasteRecordRepository) List(filter WasteRecordFilter) ([]model.WasteRecord, int64, error) {
	query := r.applyFilter(r.db.Model(&model.WasteRecord{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count waste records", err)
		return nil, 0, err
	}

	var records []model.WasteRecord
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).
		Order("recorded_date DESC, id DESC").
		Find(&records).Error; err != nil {
		logger.Error("Failed to list waste records", err)
		return nil, 0, err
	}
	return records, total, nil
}

// FindAll returns every matching record without pagination
func (r *wasteRecordRepository) FindAll(filter WasteRecordFilter) ([]model.WasteRecord, error) {
	var records []model.WasteRecord
	if err := r.applyFilter(r.db.Model(&model.WasteRecord{}), filter).
		Order("recorded_date ASC, id ASC").
		Find(&records).Error; err != nil {
		logger.Error("Failed to load waste records", err)
		return nil, err
	}
	return records, nil
}

// UnbilledWeights sums records not yet attached to a bill, optionally within [from, to)
func (r *wasteRecordRepository) UnbilledWeights(addressID uint, from, to *time.Time) (billing.Weights, error) {
	var rows []AddressWeight
	query := r.applyFilter(r.db.Model(&model.WasteRecord{}), WasteRecordFilter{
		AddressID: &addressID,
		From:      from,
		To:        to,
		Unbilled:  true,
	})
	if err := query.Select("address_id, waste_type, SUM(weight_kg) AS total").
		Group("address_id, waste_type").
		Scan(&rows).Error; err != nil {
		logger.Error("Failed to sum unbilled weights", err, map[string]interface{}{
			"address_id": addressID,
		})
		return nil, err
	}

	weights := make(billing.Weights, len(rows))
	for _, row := range rows {
		weights[row.WasteType] = row.Total.Round(2)
	}
	return weights, nil
}

// StampBill attaches unbilled records to billID. Rows already billed are never touched.
func (r *wasteRecordRepository) StampBill(addressID, billID uint, from, to *time.Time) (int64, error) {
	query := r.applyFilter(r.db.Model(&model.WasteRecord{}), WasteRecordFilter{
		AddressID: &addressID,
		From:      from,
		To:        to,
		Unbilled:  true,
	})
	res := query.Update("bill_id", billID)
	if res.Error != nil {
		logger.Error("Failed to stamp waste records with bill", res.Error, map[string]interface{}{
			"address_id": addressID,
			"bill_id":    billID,
		})
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// WeightsForBill sums the records stamped with billID
func (r *wasteRecordRepository) WeightsForBill(billID uint) (billing.Weights, error) {
	var rows []AddressWeight
	if err := r.db.Model(&model.WasteRecord{}).
		Select("address_id, waste_type, SUM(weight_kg) AS total").
		Where("bill_id = ?", billID).
		Group("address_id, waste_type").
		Scan(&rows).Error; err != nil {
		logger.Error("Failed to sum billed weights", err, map[string]interface{}{
			"bill_id": billID,
		})
		return nil, err
	}

	weights := make(billing.Weights, len(rows))
	for _, row := range rows {
		weights[row.WasteType] = row.Total.Round(2)
	}
	return weights, nil
}

// TotalsByAddress sums weight per address and type recorded in [from, to)
func (r *wasteRecordRepository) TotalsByAddress(from, to time.Time) ([]AddressWeight, error) {
	var rows []AddressWeight
	if err := r.db.Model(&model.WasteRecord{}).
		Select("address_id, waste_type, SUM(weight_kg) AS total").
		Where("recorded_date >= ? AND recorded_date < ?", from.UTC(), to.UTC()).
		Group("address_id, waste_type").
		Order("address_id ASC").
		Scan(&rows).Error; err != nil {
		logger.Error("Failed to sum weights by address", err)
		return nil, err
	}
	for i := range rows {
		rows[i].Total = rows[i].Total.Round(2)
	}
	return rows, nil
}
