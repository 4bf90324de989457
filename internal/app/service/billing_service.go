package service

import (
	"context"
	"errors"
	"time"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/billing"
	"github.com/wastebill/wastebill-backend/internal/metrics"
	"github.com/wastebill/wastebill-backend/internal/websocket"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrBillNotFound       = errors.New("bill not found")
	ErrBillAlreadyExists  = errors.New("bill already exists for this period")
	ErrInvalidBillStatus  = errors.New("invalid bill status")
	ErrBillAwaitingReview = errors.New("bill is held by a pending payment slip")
	ErrInvalidBillKind    = errors.New("invalid bill kind")
)

// RunSummary reports one monthly billing run
type RunSummary struct {
	Period  string `json:"period"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
}

// GenerateOptions describes which unbilled weights a new bill covers.
// From and To bound recorded_date; nil means unbounded.
type GenerateOptions struct {
	Kind      model.BillKind
	PeriodKey string
	From      *time.Time
	To        *time.Time
}

type BillingService interface {
	GenerateForAddress(ctx context.Context, actor *Actor, addressID uint, opts GenerateOptions) (*model.Bill, error)
	CreateManualBill(ctx context.Context, actor Actor, addressID uint, weights billing.Weights, recordedDate time.Time) (*model.Bill, error)
	GenerateMonthly(ctx context.Context, year int, month time.Month, actor *Actor) (*RunSummary, error)
	ListBills(filter repository.BillFilter) (*Page[model.Bill], error)
	ListUserBills(userID uint, status *model.BillStatus, page, pageSize int) (*Page[model.Bill], error)
	GetBill(id uint) (*model.Bill, error)
	GetUserBill(userID, id uint) (*model.Bill, error)
	UpdateBillStatus(actor Actor, id uint, status model.BillStatus) (*model.Bill, error)
}

type billingService struct {
	db            *gorm.DB
	billRepo      repository.BillRepository
	recordRepo    repository.WasteRecordRepository
	addressRepo   repository.AddressRepository
	prices        WastePriceService
	audit         AuditService
	notifications NotificationService
	events        EventPublisher
	metrics       *metrics.Metrics
	loc           *time.Location
	dueDay        int
}

type BillingServiceDeps struct {
	DB            *gorm.DB
	BillRepo      repository.BillRepository
	RecordRepo    repository.WasteRecordRepository
	AddressRepo   repository.AddressRepository
	Prices        WastePriceService
	Audit         AuditService
	Notifications NotificationService
	Events        EventPublisher
	Metrics       *metrics.Metrics
	Location      *time.Location
	DueDay        int
}

func NewBillingService(deps BillingServiceDeps) BillingService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &billingService{
		db:            deps.DB,
		billRepo:      deps.BillRepo,
		recordRepo:    deps.RecordRepo,
		addressRepo:   deps.AddressRepo,
		prices:        deps.Prices,
		audit:         deps.Audit,
		notifications: deps.Notifications,
		events:        deps.Events,
		metrics:       deps.Metrics,
		loc:           loc,
		dueDay:        deps.DueDay,
	}
}

func (s *billingService) loadAddress(addressID uint) (*model.Address, error) {
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

func (s *billingService) GenerateForAddress(ctx context.Context, actor *Actor, addressID uint, opts GenerateOptions) (*model.Bill, error) {
	if opts.Kind != model.BillKindMonthly && opts.Kind != model.BillKindManual {
		return nil, ErrInvalidBillKind
	}
	address, err := s.loadAddress(addressID)
	if err != nil {
		return nil, err
	}
	bill, err := s.generate(ctx, address, actor, opts, nil)
	if err != nil {
		return nil, err
	}
	s.issued(ctx, address, bill)
	return bill, nil
}

// CreateManualBill records weights weighed at the bin and bills everything
// still unbilled for the address in the same transaction.
func (s *billingService) CreateManualBill(ctx context.Context, actor Actor, addressID uint, weights billing.Weights, recordedDate time.Time) (*model.Bill, error) {
	records, err := buildRecords(addressID, weights, recordedDate, actor.ID)
	if err != nil && !errors.Is(err, ErrEmptyWeights) {
		return nil, err
	}
	address, err := s.loadAddress(addressID)
	if err != nil {
		return nil, err
	}

	bill, err := s.generate(ctx, address, &actor, GenerateOptions{Kind: model.BillKindManual}, records)
	if err != nil {
		return nil, err
	}

	s.audit.Record(actor, model.AuditBillCreated, "bill", bill.ID, map[string]interface{}{
		"address_id": addressID,
		"amount_due": bill.AmountDue.StringFixed(2),
		"weight_kg":  bill.TotalWeightKg.StringFixed(2),
	})
	s.issued(ctx, address, bill)
	return bill, nil
}

// generate creates the bill row first, stamps unbilled records with its id and
// only then sums what was stamped, so a record is billed exactly once.
func (s *billingService) generate(ctx context.Context, address *model.Address, actor *Actor, opts GenerateOptions, records []model.WasteRecord) (*model.Bill, error) {
	prices, err := s.prices.GetPricesFor(ctx, address.AddressType)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	dueFrom := now
	if opts.From != nil {
		dueFrom = *opts.From
	}

	bill := &model.Bill{
		AddressID: address.ID,
		Kind:      opts.Kind,
		DueDate:   billing.DueDate(dueFrom, s.dueDay, s.loc).UTC(),
		Status:    model.BillStatusUnpaid,
	}
	if opts.PeriodKey != "" {
		key := opts.PeriodKey
		bill.PeriodKey = &key
	}
	if opts.From != nil && opts.To != nil {
		start, end := opts.From.UTC(), opts.To.UTC()
		bill.PeriodStart = &start
		bill.PeriodEnd = &end
	}
	if actor != nil {
		bill.CreatedBy = &actor.ID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		recordRepo := s.recordRepo.WithTx(tx)
		billRepo := s.billRepo.WithTx(tx)

		if len(records) > 0 {
			if err := recordRepo.CreateBatch(records); err != nil {
				return err
			}
		}
		if err := billRepo.Create(bill); err != nil {
			if repository.IsDuplicateKey(err) {
				return ErrBillAlreadyExists
			}
			return err
		}
		if _, err := recordRepo.StampBill(address.ID, bill.ID, opts.From, opts.To); err != nil {
			return err
		}
		weights, err := recordRepo.WeightsForBill(bill.ID)
		if err != nil {
			return err
		}

		lines := billing.Lines(weights, prices)
		bill.TotalWeightKg = weights.TotalKg().Round(2)
		bill.AmountDue = billing.SumLines(lines)
		bill.Items = model.BillItemsFromLines(lines)
		return billRepo.SaveTotals(bill)
	})
	if err != nil {
		if !errors.Is(err, ErrBillAlreadyExists) {
			logger.Error("Failed to generate bill", err, map[string]interface{}{
				"address_id": address.ID,
				"kind":       opts.Kind,
				"period":     opts.PeriodKey,
			})
		}
		return nil, err
	}

	bill.Address = address
	s.metrics.BillGenerated(string(opts.Kind))
	logger.Info("Bill generated", map[string]interface{}{
		"bill_id":    bill.ID,
		"address_id": address.ID,
		"kind":       opts.Kind,
		"period":     opts.PeriodKey,
		"amount_due": bill.AmountDue.StringFixed(2),
	})
	return bill, nil
}

func (s *billingService) issued(ctx context.Context, address *model.Address, bill *model.Bill) {
	if address.User == nil {
		return
	}
	s.notifications.Notify(ctx, address.User, billIssuedMessage(bill))
}

// GenerateMonthly bills every verified address for the given month. Addresses
// already billed for the period or without weight in it are skipped, so a run
// can be repeated safely. One address failing never stops the run.
func (s *billingService) GenerateMonthly(ctx context.Context, year int, month time.Month, actor *Actor) (*RunSummary, error) {
	from, to := billing.MonthRange(year, month, s.loc)
	summary := &RunSummary{Period: billing.PeriodKey(year, month)}
	started := time.Now()

	logger.Info("Monthly billing run started", map[string]interface{}{
		"period": summary.Period,
	})

	addresses, err := s.addressRepo.ListVerified()
	if err != nil {
		s.metrics.BillingRun("error")
		logger.Error("Monthly billing run failed to list addresses", err, map[string]interface{}{
			"period": summary.Period,
		})
		return nil, err
	}
	summary.Total = len(addresses)

	for i := range addresses {
		if err := ctx.Err(); err != nil {
			s.metrics.BillingRun("cancelled")
			return summary, err
		}
		address := &addresses[i]

		exists, err := s.billRepo.ExistsForPeriod(address.ID, summary.Period)
		if err != nil {
			logger.Error("Failed to check existing bill", err, map[string]interface{}{
				"address_id": address.ID,
				"period":     summary.Period,
			})
			summary.Failed++
			continue
		}
		if exists {
			summary.Skipped++
			continue
		}
		weights, err := s.recordRepo.UnbilledWeights(address.ID, &from, &to)
		if err != nil {
			logger.Error("Failed to load unbilled weights", err, map[string]interface{}{
				"address_id": address.ID,
				"period":     summary.Period,
			})
			summary.Failed++
			continue
		}
		if weights.IsZero() {
			summary.Skipped++
			continue
		}

		bill, err := s.generate(ctx, address, actor, GenerateOptions{
			Kind:      model.BillKindMonthly,
			PeriodKey: summary.Period,
			From:      &from,
			To:        &to,
		}, nil)
		if err != nil {
			if errors.Is(err, ErrBillAlreadyExists) {
				summary.Skipped++
			} else {
				summary.Failed++
			}
			continue
		}
		summary.Created++
		s.issued(ctx, address, bill)
	}

	result := "success"
	if summary.Failed > 0 {
		result = "partial"
	}
	s.metrics.BillingRun(result)
	publish(s.events, websocket.EventBillingRunFinished, summary)
	if actor != nil {
		s.audit.Record(*actor, model.AuditBillingRun, "bill", 0, map[string]interface{}{
			"period":  summary.Period,
			"created": summary.Created,
			"skipped": summary.Skipped,
			"failed":  summary.Failed,
		})
	}

	logger.Info("Monthly billing run finished", map[string]interface{}{
		"period":   summary.Period,
		"created":  summary.Created,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
		"total":    summary.Total,
		"duration": time.Since(started).String(),
	})
	return summary, nil
}

func (s *billingService) ListBills(filter repository.BillFilter) (*Page[model.Bill], error) {
	bills, total, err := s.billRepo.List(filter)
	if err != nil {
		return nil, err
	}
	page, size := repository.NormalizePage(filter.Page, filter.PageSize)
	return &Page[model.Bill]{Items: bills, Total: total, Page: page, PageSize: size}, nil
}

func (s *billingService) ListUserBills(userID uint, status *model.BillStatus, page, pageSize int) (*Page[model.Bill], error) {
	return s.ListBills(repository.BillFilter{
		UserID:   &userID,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
}

func (s *billingService) GetBill(id uint) (*model.Bill, error) {
	bill, err := s.billRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}
	return bill, nil
}

func (s *billingService) GetUserBill(userID, id uint) (*model.Bill, error) {
	bill, err := s.GetBill(id)
	if err != nil {
		return nil, err
	}
	if bill.Address == nil || bill.Address.UserID != userID {
		return nil, ErrBillNotFound
	}
	return bill, nil
}

// UpdateBillStatus is the admin override for a bill's payment state. Bills
// held by a pending slip are settled through slip review only.
func (s *billingService) UpdateBillStatus(actor Actor, id uint, status model.BillStatus) (*model.Bill, error) {
	if !status.Valid() {
		return nil, ErrInvalidBillStatus
	}
	bill, err := s.GetBill(id)
	if err != nil {
		return nil, err
	}
	from := bill.Status

	var paidAt *time.Time
	if status == model.BillStatusPaid {
		now := time.Now()
		paidAt = &now
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		billRepo := s.billRepo.WithTx(tx)
		held, err := billRepo.HasPendingSlip(id)
		if err != nil {
			return err
		}
		if held {
			return ErrBillAwaitingReview
		}
		return billRepo.UpdateStatus(id, status, paidAt)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}
	bill.Status = status
	bill.PaidAt = paidAt

	s.audit.Record(actor, model.AuditBillStatus, "bill", id, map[string]interface{}{
		"from": from,
		"to":   status,
	})
	logger.Info("Bill status overridden", map[string]interface{}{
		"bill_id":  id,
		"from":     from,
		"to":       status,
		"admin_id": actor.ID,
	})
	return bill, nil
}
