package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/billing"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"github.com/wastebill/wastebill-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrNegativeWeight     = errors.New("weight cannot be negative")
	ErrEmptyWeights       = errors.New("no weight recorded")
	ErrInvalidWasteType   = errors.New("invalid waste type")
	ErrAddressNotVerified = errors.New("address is not verified")
	ErrFutureRecordedDate = errors.New("recorded date is in the future")
	ErrInvalidAddressScan = errors.New("invalid address barcode")
)

// ScanResult is what a collector sees after scanning a bin barcode
type ScanResult struct {
	Address  *model.Address  `json:"address"`
	Owner    *model.User     `json:"owner,omitempty"`
	Prices   billing.Prices  `json:"prices"`
	Unbilled billing.Weights `json:"unbilled_weights"`
	Lines    []billing.Line  `json:"lines"`
	Estimate decimal.Decimal `json:"estimate"`
}

// MonthlyStat is one month of a resident's collected waste
type MonthlyStat struct {
	Month   int             `json:"month"`
	Weights billing.Weights `json:"weights"`
	TotalKg decimal.Decimal `json:"total_kg"`
}

type UserStats struct {
	Year    int             `json:"year"`
	Months  []MonthlyStat   `json:"months"`
	Totals  billing.Weights `json:"totals"`
	TotalKg decimal.Decimal `json:"total_kg"`
}

type WasteRecordService interface {
	RecordWaste(actor Actor, addressID uint, weights billing.Weights, recordedDate time.Time) ([]model.WasteRecord, error)
	ScanBarcode(ctx context.Context, code string) (*ScanResult, error)
	ListRecords(filter repository.WasteRecordFilter) (*Page[model.WasteRecord], error)
	GetUserStats(userID uint, year int) (*UserStats, error)
}

type wasteRecordService struct {
	recordRepo  repository.WasteRecordRepository
	addressRepo repository.AddressRepository
	prices      WastePriceService
	audit       AuditService
	loc         *time.Location
}

func NewWasteRecordService(
	recordRepo repository.WasteRecordRepository,
	addressRepo repository.AddressRepository,
	prices WastePriceService,
	audit AuditService,
	loc *time.Location,
) WasteRecordService {
	if loc == nil {
		loc = time.UTC
	}
	return &wasteRecordService{
		recordRepo:  recordRepo,
		addressRepo: addressRepo,
		prices:      prices,
		audit:       audit,
		loc:         loc,
	}
}

// buildRecords validates weights and returns one row per nonzero type
func buildRecords(addressID uint, weights billing.Weights, recordedDate time.Time, recordedBy uint) ([]model.WasteRecord, error) {
	now := time.Now()
	if recordedDate.IsZero() {
		recordedDate = now
	}
	if recordedDate.After(now.Add(time.Minute)) {
		return nil, ErrFutureRecordedDate
	}

	for t := range weights {
		if !t.Valid() {
			return nil, ErrInvalidWasteType
		}
	}

	records := make([]model.WasteRecord, 0, len(weights))
	for _, t := range billing.WasteTypes {
		w, ok := weights[t]
		if !ok {
			continue
		}
		if w.IsNegative() {
			return nil, ErrNegativeWeight
		}
		if w.IsZero() {
			continue
		}
		records = append(records, model.WasteRecord{
			AddressID:    addressID,
			WasteType:    t,
			WeightKg:     w.Round(2),
			RecordedDate: recordedDate,
			RecordedBy:   &recordedBy,
		})
	}
	if len(records) == 0 {
		return nil, ErrEmptyWeights
	}
	return records, nil
}

func (s *wasteRecordService) billableAddress(addressID uint) (*model.Address, error) {
	address, err := s.addressRepo.FindByID(addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	if !address.Verified {
		return nil, ErrAddressNotVerified
	}
	return address, nil
}

func (s *wasteRecordService) RecordWaste(actor Actor, addressID uint, weights billing.Weights, recordedDate time.Time) ([]model.WasteRecord, error) {
	records, err := buildRecords(addressID, weights, recordedDate, actor.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.billableAddress(addressID); err != nil {
		return nil, err
	}

	if err := s.recordRepo.CreateBatch(records); err != nil {
		logger.Error("Failed to store waste records", err, map[string]interface{}{
			"address_id": addressID,
		})
		return nil, err
	}

	details := make(map[string]interface{}, len(records))
	for _, r := range records {
		details[string(r.WasteType)] = r.WeightKg.String()
	}
	s.audit.Record(actor, model.AuditWasteRecorded, "address", addressID, details)

	logger.Info("Waste recorded", map[string]interface{}{
		"address_id":  addressID,
		"records":     len(records),
		"recorded_by": actor.ID,
	})
	return records, nil
}

// ScanBarcode resolves a bin barcode and prices everything not yet billed
func (s *wasteRecordService) ScanBarcode(ctx context.Context, code string) (*ScanResult, error) {
	addressID, err := util.ParseAddressBarcode(code)
	if err != nil {
		return nil, ErrInvalidAddressScan
	}
	address, err := s.addressRepo.FindByID(addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}

	prices, err := s.prices.GetPricesFor(ctx, address.AddressType)
	if err != nil {
		return nil, err
	}
	unbilled, err := s.recordRepo.UnbilledWeights(address.ID, nil, nil)
	if err != nil {
		return nil, err
	}

	return &ScanResult{
		Address:  address,
		Owner:    address.User,
		Prices:   prices,
		Unbilled: unbilled,
		Lines:    billing.Lines(unbilled, prices),
		Estimate: billing.Total(unbilled, prices),
	}, nil
}

func (s *wasteRecordService) ListRecords(filter repository.WasteRecordFilter) (*Page[model.WasteRecord], error) {
	records, total, err := s.recordRepo.List(filter)
	if err != nil {
		return nil, err
	}
	page, size := repository.NormalizePage(filter.Page, filter.PageSize)
	return &Page[model.WasteRecord]{Items: records, Total: total, Page: page, PageSize: size}, nil
}

// GetUserStats sums the resident's weights per calendar month of year in local time
func (s *wasteRecordService) GetUserStats(userID uint, year int) (*UserStats, error) {
	stats := &UserStats{
		Year:    year,
		Months:  make([]MonthlyStat, 12),
		Totals:  billing.Weights{},
		TotalKg: decimal.Zero,
	}
	for i := range stats.Months {
		stats.Months[i] = MonthlyStat{Month: i + 1, Weights: billing.Weights{}, TotalKg: decimal.Zero}
	}

	addresses, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if len(addresses) == 0 {
		return stats, nil
	}
	ids := make([]uint, 0, len(addresses))
	for _, a := range addresses {
		ids = append(ids, a.ID)
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	to := from.AddDate(1, 0, 0)
	records, err := s.recordRepo.FindAll(repository.WasteRecordFilter{
		AddressIDs: ids,
		From:       &from,
		To:         &to,
	})
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		m := &stats.Months[int(r.RecordedDate.In(s.loc).Month())-1]
		m.Weights[r.WasteType] = m.Weights[r.WasteType].Add(r.WeightKg)
		m.TotalKg = m.TotalKg.Add(r.WeightKg)
		stats.Totals[r.WasteType] = stats.Totals[r.WasteType].Add(r.WeightKg)
		stats.TotalKg = stats.TotalKg.Add(r.WeightKg)
	}
	return stats, nil
}
