package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/metrics"
	"github.com/wastebill/wastebill-backend/internal/storage"
	"github.com/wastebill/wastebill-backend/internal/websocket"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

const slipFolder = "slips"

var (
	ErrSlipNotFound        = errors.New("payment slip not found")
	ErrNoBillsSelected     = errors.New("no bills selected")
	ErrSlipBillNotPayable  = errors.New("bill is not awaiting payment")
	ErrSlipAlreadyReviewed = errors.New("payment slip already reviewed")
	ErrInvalidSlipDecision = errors.New("invalid slip decision")
	ErrSlipTooLarge        = errors.New("slip image is too large")
	ErrSlipUnsupportedType = errors.New("slip image type not supported")
	ErrSlipBillsChanged    = errors.New("linked bills are no longer awaiting review")
)

// SlipUpload is a resident's payment proof for one or more bills
type SlipUpload struct {
	File        io.Reader
	Size        int64
	ContentType string
	Note        string
	BillIDs     []uint
}

type PaymentSlipService interface {
	Upload(ctx context.Context, userID uint, upload SlipUpload) (*model.PaymentSlip, error)
	Review(ctx context.Context, actor Actor, slipID uint, decision model.SlipStatus, note string) (*model.PaymentSlip, error)
	GetSlip(id uint) (*model.PaymentSlip, error)
	ListMySlips(userID uint, page, pageSize int) (*Page[model.PaymentSlip], error)
	ListSlips(filter repository.PaymentSlipFilter) (*Page[model.PaymentSlip], error)
}

type paymentSlipService struct {
	db             *gorm.DB
	slipRepo       repository.PaymentSlipRepository
	billRepo       repository.BillRepository
	store          storage.Storage
	audit          AuditService
	notifications  NotificationService
	events         EventPublisher
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

type PaymentSlipServiceDeps struct {
	DB             *gorm.DB
	SlipRepo       repository.PaymentSlipRepository
	BillRepo       repository.BillRepository
	Storage        storage.Storage
	Audit          AuditService
	Notifications  NotificationService
	Events         EventPublisher
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
}

func NewPaymentSlipService(deps PaymentSlipServiceDeps) PaymentSlipService {
	return &paymentSlipService{
		db:             deps.DB,
		slipRepo:       deps.SlipRepo,
		billRepo:       deps.BillRepo,
		store:          deps.Storage,
		audit:          deps.Audit,
		notifications:  deps.Notifications,
		events:         deps.Events,
		metrics:        deps.Metrics,
		maxUploadBytes: deps.MaxUploadBytes,
	}
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Upload stores the slip image, links the bills and moves them to pending review
func (s *paymentSlipService) Upload(ctx context.Context, userID uint, upload SlipUpload) (*model.PaymentSlip, error) {
	billIDs := uniqueIDs(upload.BillIDs)
	if len(billIDs) == 0 {
		return nil, ErrNoBillsSelected
	}
	if err := storage.ValidateFileSize(upload.Size, s.maxUploadBytes); err != nil {
		return nil, ErrSlipTooLarge
	}
	if _, err := storage.ValidateContentType(upload.ContentType, storage.SlipContentTypes); err != nil {
		return nil, ErrSlipUnsupportedType
	}

	bills, err := s.billRepo.FindByIDs(billIDs)
	if err != nil {
		return nil, err
	}
	if len(bills) != len(billIDs) {
		return nil, ErrBillNotFound
	}
	total := decimal.Zero
	for _, b := range bills {
		// other residents' bills are reported as missing
		if b.Address == nil || b.Address.UserID != userID {
			logger.Warn("Slip upload for bill of another resident", map[string]interface{}{
				"user_id": userID,
				"bill_id": b.ID,
			})
			return nil, ErrBillNotFound
		}
		// credits and zero bills have nothing to pay
		if b.Status != model.BillStatusUnpaid || !b.AmountDue.IsPositive() {
			return nil, ErrSlipBillNotPayable
		}
		total = total.Add(b.AmountDue)
	}

	obj, err := s.store.Save(ctx, slipFolder, storage.NormalizeContentType(upload.ContentType), upload.File)
	if err != nil {
		logger.Error("Failed to store slip image", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	slip := &model.PaymentSlip{
		UserID:     userID,
		ImagePath:  obj.Key,
		ImageURL:   obj.URL,
		Status:     model.SlipStatusPending,
		Note:       strings.TrimSpace(upload.Note),
		UploadedAt: time.Now(),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.slipRepo.WithTx(tx).Create(slip, billIDs); err != nil {
			return err
		}
		n, err := s.billRepo.WithTx(tx).TransitionStatus(billIDs, model.BillStatusUnpaid, model.BillStatusPending, nil)
		if err != nil {
			return err
		}
		// another slip claimed one of the bills in the meantime
		if n != int64(len(billIDs)) {
			return ErrSlipBillNotPayable
		}
		return nil
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, obj.Key); delErr != nil {
			logger.Warn("Failed to remove orphaned slip image", map[string]interface{}{
				"key":   obj.Key,
				"error": delErr.Error(),
			})
		}
		return nil, err
	}

	for i := range bills {
		bills[i].Status = model.BillStatusPending
	}
	slip.Bills = bills

	publish(s.events, websocket.EventSlipUploaded, map[string]interface{}{
		"slip_id":  slip.ID,
		"user_id":  userID,
		"bill_ids": billIDs,
		"amount":   total.StringFixed(2),
	})
	logger.Info("Payment slip uploaded", map[string]interface{}{
		"slip_id":  slip.ID,
		"user_id":  userID,
		"bill_ids": billIDs,
	})
	return slip, nil
}

// Review approves or rejects a pending slip. Approval marks the linked bills
// paid; rejection returns them to unpaid.
func (s *paymentSlipService) Review(ctx context.Context, actor Actor, slipID uint, decision model.SlipStatus, note string) (*model.PaymentSlip, error) {
	if !model.CanTransitionSlip(model.SlipStatusPending, decision) {
		return nil, ErrInvalidSlipDecision
	}

	slip, err := s.GetSlip(slipID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransitionSlip(slip.Status, decision) {
		return nil, ErrSlipAlreadyReviewed
	}

	billIDs := make([]uint, 0, len(slip.Bills))
	for _, b := range slip.Bills {
		billIDs = append(billIDs, b.ID)
	}

	now := time.Now()
	note = strings.TrimSpace(note)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		n, err := s.slipRepo.WithTx(tx).Decide(slipID, decision, actor.ID, note, now)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrSlipAlreadyReviewed
		}

		billRepo := s.billRepo.WithTx(tx)
		var moved int64
		if decision == model.SlipStatusApproved {
			moved, err = billRepo.TransitionStatus(billIDs, model.BillStatusPending, model.BillStatusPaid, &now)
		} else {
			moved, err = billRepo.TransitionStatus(billIDs, model.BillStatusPending, model.BillStatusUnpaid, nil)
		}
		if err != nil {
			return err
		}
		// every linked bill must still be waiting on this slip
		if moved != int64(len(billIDs)) {
			return ErrSlipBillsChanged
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlipBillsChanged) {
			logger.Warn("Payment slip bills changed before review", map[string]interface{}{
				"slip_id":  slipID,
				"bill_ids": billIDs,
				"decision": decision,
			})
		} else if !errors.Is(err, ErrSlipAlreadyReviewed) {
			logger.Error("Failed to review payment slip", err, map[string]interface{}{
				"slip_id":  slipID,
				"decision": decision,
			})
		}
		return nil, err
	}

	s.metrics.SlipReviewed(string(decision))

	action := model.AuditSlipApproved
	if decision == model.SlipStatusRejected {
		action = model.AuditSlipRejected
	}
	s.audit.Record(actor, action, "payment_slip", slipID, map[string]interface{}{
		"bill_ids": billIDs,
		"note":     note,
	})

	reviewed, err := s.GetSlip(slipID)
	if err != nil {
		return nil, err
	}
	if decision == model.SlipStatusApproved {
		s.notifications.Notify(ctx, reviewed.User, slipApprovedMessage(reviewed))
	} else {
		s.notifications.Notify(ctx, reviewed.User, slipRejectedMessage(reviewed))
	}

	logger.Info("Payment slip reviewed", map[string]interface{}{
		"slip_id":     slipID,
		"decision":    decision,
		"reviewed_by": actor.ID,
	})
	return reviewed, nil
}

func (s *paymentSlipService) GetSlip(id uint) (*model.PaymentSlip, error) {
	slip, err := s.slipRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlipNotFound
		}
		return nil, err
	}
	return slip, nil
}

func (s *paymentSlipService) ListMySlips(userID uint, page, pageSize int) (*Page[model.PaymentSlip], error) {
	return s.ListSlips(repository.PaymentSlipFilter{UserID: &userID, Page: page, PageSize: pageSize})
}

func (s *paymentSlipService) ListSlips(filter repository.PaymentSlipFilter) (*Page[model.PaymentSlip], error) {
	slips, total, err := s.slipRepo.List(filter)
	if err != nil {
		return nil, err
	}
	page, size := repository.NormalizePage(filter.Page, filter.PageSize)
	return &Page[model.PaymentSlip]{Items: slips, Total: total, Page: page, PageSize: size}, nil
}
