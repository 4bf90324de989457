package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/billing"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"github.com/wastebill/wastebill-backend/pkg/redis"
	"gorm.io/gorm"
)

const priceCacheTTL = time.Hour

var (
	ErrInvalidPriceRow = errors.New("invalid price row")
	ErrEmptyPriceTable = errors.New("no prices given")
)

// PriceInput is one cell of the price table
type PriceInput struct {
	AddressType model.AddressType
	WasteType   billing.WasteType
	PricePerKg  decimal.Decimal
}

type WastePriceService interface {
	GetPrices() ([]model.WastePrice, error)
	GetPricesFor(ctx context.Context, addressType model.AddressType) (billing.Prices, error)
	UpdatePrices(ctx context.Context, actor Actor, rows []PriceInput) ([]model.WastePrice, error)
}

type wastePriceService struct {
	db        *gorm.DB
	priceRepo repository.WastePriceRepository
	audit     AuditService
}

func NewWastePriceService(db *gorm.DB, priceRepo repository.WastePriceRepository, audit AuditService) WastePriceService {
	return &wastePriceService{
		db:        db,
		priceRepo: priceRepo,
		audit:     audit,
	}
}

func priceCacheKey(addressType model.AddressType) string {
	return fmt.Sprintf("price_table:%s", addressType)
}

func (s *wastePriceService) GetPrices() ([]model.WastePrice, error) {
	return s.priceRepo.FindAll()
}

// GetPricesFor returns the calculator prices of one address class
func (s *wastePriceService) GetPricesFor(ctx context.Context, addressType model.AddressType) (billing.Prices, error) {
	var cached billing.Prices
	if err := redis.GetJSON(ctx, priceCacheKey(addressType), &cached); err == nil {
		return cached, nil
	}

	rows, err := s.priceRepo.FindByAddressType(addressType)
	if err != nil {
		return nil, err
	}
	prices := model.PriceMap(rows)
	_ = redis.SetJSON(ctx, priceCacheKey(addressType), prices, priceCacheTTL)
	return prices, nil
}

func (s *wastePriceService) UpdatePrices(ctx context.Context, actor Actor, rows []PriceInput) ([]model.WastePrice, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyPriceTable
	}

	updates := make([]model.WastePrice, 0, len(rows))
	changed := make(map[model.AddressType]struct{})
	for _, r := range rows {
		if !r.AddressType.Valid() || !r.WasteType.Valid() {
			return nil, fmt.Errorf("%w: %s/%s", ErrInvalidPriceRow, r.AddressType, r.WasteType)
		}
		updates = append(updates, model.WastePrice{
			AddressType: r.AddressType,
			WasteType:   r.WasteType,
			PricePerKg:  billing.RoundMoney(r.PricePerKg),
			UpdatedBy:   &actor.ID,
		})
		changed[r.AddressType] = struct{}{}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.priceRepo.WithTx(tx).Upsert(updates)
	})
	if err != nil {
		logger.Error("Failed to update price table", err, map[string]interface{}{
			"admin_id": actor.ID,
		})
		return nil, err
	}

	keys := make([]string, 0, len(changed))
	for t := range changed {
		keys = append(keys, priceCacheKey(t))
	}
	_ = redis.Delete(ctx, keys...)

	details := make(map[string]interface{}, len(updates))
	for _, u := range updates {
		details[string(u.AddressType)+"."+string(u.WasteType)] = u.PricePerKg.StringFixed(2)
	}
	s.audit.Record(actor, model.AuditPricesUpdated, "waste_price", 0, details)

	logger.Info("Price table updated", map[string]interface{}{
		"admin_id": actor.ID,
		"rows":     len(updates),
	})
	return s.priceRepo.FindAll()
}
