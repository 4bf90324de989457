package repository

import (
	"time"

	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"gorm.io/gorm"
)

type PaymentSlipFilter struct {
	UserID   *uint
	Status   model.SlipStatus
	Page     int
	PageSize int
}

type PaymentSlipRepository interface {
	WithTx(tx *gorm.DB) PaymentSlipRepository
	Create(slip *model.PaymentSlip, billIDs []uint) error
	FindByID(id uint) (*model.PaymentSlip, error)
	List(filter PaymentSlipFilter) ([]model.PaymentSlip, int64, error)
	Decide(id uint, to model.SlipStatus, reviewerID uint, note string, at time.Time) (int64, error)
}

type paymentSlipRepository struct {
	db *gorm.DB
}

func NewPaymentSlipRepository(db *gorm.DB) PaymentSlipRepository {
	return &paymentSlipRepository{db: db}
}

func (r *paymentSlipRepository) WithTx(tx *gorm.DB) PaymentSlipRepository {
	return &paymentSlipRepository{db: tx}
}

// Create inserts the slip and links it to existing bills
func (r *paymentSlipRepository) Create(slip *model.PaymentSlip, billIDs []uint) error {
	slip.Bills = make([]model.Bill, 0, len(billIDs))
	for _, id := range billIDs {
		slip.Bills = append(slip.Bills, model.Bill{ID: id})
	}

	// Bills.* omitted: link rows only, never upsert the bills themselves
	if err := r.db.Omit("User", "Bills.*").Create(slip).Error; err != nil {
		logger.Error("Failed to create payment slip", err, map[string]interface{}{
			"user_id":  slip.UserID,
			"bill_ids": billIDs,
		})
		return err
	}

	logger.Debug("Payment slip created", map[string]interface{}{
		"slip_id":  slip.ID,
		"user_id":  slip.UserID,
		"bill_ids": billIDs,
	})
	return nil
}

func (r *paymentSlipRepository) FindByID(id uint) (*model.PaymentSlip, error) {
	var slip model.PaymentSlip
	if err := r.db.Preload("Bills").Preload("User").First(&slip, id).Error; err != nil {
		logger.Error("Failed to find payment slip", err, map[string]interface{}{
			"slip_id": id,
		})
		return nil, err
	}
	return &slip, nil
}

func (r *paymentSlipRepository) List(filter PaymentSlipFilter) ([]model.PaymentSlip, int64, error) {
	query := r.db.Model(&model.PaymentSlip{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count payment slips", err)
		return nil, 0, err
	}

	var slips []model.PaymentSlip
	if err := query.Preload("Bills").Preload("User").
		Scopes(paginate(filter.Page, filter.PageSize)).
		Order("uploaded_at DESC, id DESC").
		Find(&slips).Error; err != nil {
		logger.Error("Failed to list payment slips", err)
		return nil, 0, err
	}
	return slips, total, nil
}

// Decide records the review outcome only while the slip is still pending.
// Zero rows affected means another reviewer got there first.
func (r *paymentSlipRepository) Decide(id uint, to model.SlipStatus, reviewerID uint, note string, at time.Time) (int64, error) {
	res := r.db.Model(&model.PaymentSlip{}).
		Where("id = ? AND status = ?", id, model.SlipStatusPending).
		Updates(map[string]interface{}{
			"status":      to,
			"review_note": note,
			"reviewed_by": reviewerID,
			"reviewed_at": at,
		})
	if res.Error != nil {
		logger.Error("Failed to record slip decision", res.Error, map[string]interface{}{
			"slip_id": id,
			"status":  to,
		})
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
