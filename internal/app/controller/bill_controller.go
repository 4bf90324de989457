package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	"github.com/wastebill/wastebill-backend/internal/billing"
	apperrors "github.com/wastebill/wastebill-backend/internal/errors"
	"github.com/wastebill/wastebill-backend/internal/middleware"
)

// MonthlyRunner runs the scheduled billing job on demand
type MonthlyRunner interface {
	RunNow(ctx context.Context, actor *service.Actor) (*service.RunSummary, error)
}

type BillController struct {
	billingService service.BillingService
	runner         MonthlyRunner
	loc            *time.Location
}

func NewBillController(billingService service.BillingService, runner MonthlyRunner, loc *time.Location) *BillController {
	return &BillController{
		billingService: billingService,
		runner:         runner,
		loc:            loc,
	}
}

type ManualBillRequest struct {
	AddressID    uint            `json:"address_id" binding:"required"`
	Weights      billing.Weights `json:"weights"`
	RecordedDate string          `json:"recorded_date"`
}

type GenerateBillsRequest struct {
	Period string `json:"period"` // YYYY-MM, previous month when empty
}

type UpdateBillStatusRequest struct {
	Status *int `json:"status" binding:"required"`
}

// ListMyBills GET /api/v1/bills?status=
func (ctrl *BillController) ListMyBills(c *gin.Context) {
	userID, ok := residentID(c)
	if !ok {
		return
	}
	status, err := queryBillStatus(c)
	if err != nil {
		respondServiceError(c, err, "List bills", "bill")
		return
	}
	page, size := pagination(c)

	result, err := ctrl.billingService.ListUserBills(userID, status, page, size)
	if err != nil {
		respondServiceError(c, err, "List bills", "bill")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMyBill GET /api/v1/bills/:id
func (ctrl *BillController) GetMyBill(c *gin.Context) {
	userID, ok := residentID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bill, err := ctrl.billingService.GetUserBill(userID, id)
	if err != nil {
		respondServiceError(c, err, "Get bill", "bill")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bill": bill,
	})
}

// ListBills GET /api/v1/admin/bills?status=&kind=&address_id=&user_id=&period=&from=&to=
func (ctrl *BillController) ListBills(c *gin.Context) {
	status, err := queryBillStatus(c)
	if err != nil {
		respondServiceError(c, err, "List bills", "bill")
		return
	}
	addressID, err := queryUint(c, "address_id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, apperrors.MsgInvalidID)
		return
	}
	userID, err := queryUint(c, "user_id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, apperrors.MsgInvalidID)
		return
	}
	kind := model.BillKind(c.Query("kind"))
	if kind != "" && kind != model.BillKindMonthly && kind != model.BillKindManual {
		respondServiceError(c, service.ErrInvalidBillKind, "List bills", "bill")
		return
	}
	period := c.Query("period")
	if period != "" {
		if _, _, err := billing.ParsePeriodKey(period); err != nil {
			apperrors.BadRequest(c, apperrors.BillInvalidPeriod, apperrors.MsgBillInvalidPeriod)
			return
		}
	}
	from, to, err := dateRange(c, ctrl.loc)
	if err != nil {
		respondInvalidRange(c, err)
		return
	}
	page, size := pagination(c)

	result, err := ctrl.billingService.ListBills(repository.BillFilter{
		Status:    status,
		Kind:      kind,
		AddressID: addressID,
		UserID:    userID,
		PeriodKey: period,
		From:      from,
		To:        to,
		Page:      page,
		PageSize:  size,
	})
	if err != nil {
		respondServiceError(c, err, "List bills", "bill")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBill GET /api/v1/admin/bills/:id
func (ctrl *BillController) GetBill(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bill, err := ctrl.billingService.GetBill(id)
	if err != nil {
		respondServiceError(c, err, "Get bill", "bill")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bill": bill,
	})
}

// CreateManualBill records weights at the bin and bills everything unbilled
// POST /api/v1/admin/bills/manual
func (ctrl *BillController) CreateManualBill(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req ManualBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	recordedDate, err := parseRecordedDate(req.RecordedDate, ctrl.loc)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, apperrors.MsgInvalidInput)
		return
	}

	bill, err := ctrl.billingService.CreateManualBill(c.Request.Context(), actor, req.AddressID, req.Weights, recordedDate)
	if err != nil {
		respondServiceError(c, err, "Create manual bill", "bill")
		return
	}

	log.Info("Manual bill created", map[string]interface{}{
		"bill_id":    bill.ID,
		"address_id": req.AddressID,
		"amount":     bill.AmountDue.String(),
		"admin_id":   actor.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"bill": bill,
	})
}

// GenerateMonthly runs the monthly billing job now
// POST /api/v1/admin/bills/generate
func (ctrl *BillController) GenerateMonthly(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req GenerateBillsRequest
	// body is optional
	_ = c.ShouldBindJSON(&req)

	// the run keeps going if the caller disconnects
	ctx := context.WithoutCancel(c.Request.Context())

	var (
		summary *service.RunSummary
		err     error
	)
	if req.Period == "" {
		summary, err = ctrl.runner.RunNow(ctx, &actor)
	} else {
		year, month, perr := billing.ParsePeriodKey(req.Period)
		if perr != nil {
			apperrors.BadRequest(c, apperrors.BillInvalidPeriod, apperrors.MsgBillInvalidPeriod)
			return
		}
		summary, err = ctrl.billingService.GenerateMonthly(ctx, year, month, &actor)
	}
	if err != nil {
		respondServiceError(c, err, "Monthly billing run", "bill")
		return
	}

	log.Info("Monthly billing run triggered", map[string]interface{}{
		"period":   summary.Period,
		"created":  summary.Created,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
		"admin_id": actor.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
	})
}

// UpdateBillStatus is the admin override of a bill's payment state
// PUT /api/v1/admin/bills/:id/status
func (ctrl *BillController) UpdateBillStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateBillStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bill, err := ctrl.billingService.UpdateBillStatus(actor, id, model.BillStatus(*req.Status))
	if err != nil {
		respondServiceError(c, err, "Update bill status", "bill")
		return
	}

	log.Info("Bill status updated", map[string]interface{}{
		"bill_id":  id,
		"status":   bill.Status,
		"admin_id": actor.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"bill": bill,
	})
}
