package controller

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	apperrors "github.com/wastebill/wastebill-backend/internal/errors"
	"github.com/wastebill/wastebill-backend/internal/middleware"
)

type PaymentSlipController struct {
	slipService    service.PaymentSlipService
	maxUploadBytes int64
}

func NewPaymentSlipController(slipService service.PaymentSlipService, maxUploadBytes int64) *PaymentSlipController {
	return &PaymentSlipController{
		slipService:    slipService,
		maxUploadBytes: maxUploadBytes,
	}
}

type ReviewSlipRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Note     string `json:"note" binding:"max=1000"`
}

// parseBillIDs accepts repeated bill_ids fields and comma separated lists
func parseBillIDs(values []string) ([]uint, error) {
	var ids []uint
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseUint(part, 10, 32)
			if err != nil || n == 0 {
				return nil, service.ErrBillNotFound
			}
			ids = append(ids, uint(n))
		}
	}
	return ids, nil
}

// Upload accepts a slip image for one or more unpaid bills
// POST /api/v1/payment-slips (multipart: image, bill_ids, note)
func (ctrl *PaymentSlipController) Upload(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := residentID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		log.Warn("Slip upload without image", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.SlipImageRequired, apperrors.MsgSlipImageRequired)
		return
	}

	billIDs, err := parseBillIDs(c.PostFormArray("bill_ids"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, apperrors.MsgInvalidID)
		return
	}
	if len(billIDs) == 0 {
		respondServiceError(c, service.ErrNoBillsSelected, "Slip upload", "slip")
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Error("Failed to open uploaded slip", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, apperrors.MsgUploadFailed)
		return
	}
	defer file.Close()

	var reader io.Reader = file
	if ctrl.maxUploadBytes > 0 {
		reader = io.LimitReader(file, ctrl.maxUploadBytes+1)
	}

	slip, err := ctrl.slipService.Upload(c.Request.Context(), userID, service.SlipUpload{
		File:        reader,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Note:        strings.TrimSpace(c.PostForm("note")),
		BillIDs:     billIDs,
	})
	if err != nil {
		respondServiceError(c, err, "Slip upload", "slip")
		return
	}

	log.Info("Payment slip uploaded", map[string]interface{}{
		"slip_id": slip.ID,
		"user_id": userID,
		"bills":   len(billIDs),
	})

	c.JSON(http.StatusCreated, gin.H{
		"slip": slip,
	})
}

// ListMySlips GET /api/v1/payment-slips
func (ctrl *PaymentSlipController) ListMySlips(c *gin.Context) {
	userID, ok := residentID(c)
	if !ok {
		return
	}
	page, size := pagination(c)

	result, err := ctrl.slipService.ListMySlips(userID, page, size)
	if err != nil {
		respondServiceError(c, err, "List slips", "slip")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListSlips GET /api/v1/admin/payment-slips?status=&user_id=
func (ctrl *PaymentSlipController) ListSlips(c *gin.Context) {
	userID, err := queryUint(c, "user_id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, apperrors.MsgInvalidID)
		return
	}
	status := model.SlipStatus(c.Query("status"))
	switch status {
	case "", model.SlipStatusPending, model.SlipStatusApproved, model.SlipStatusRejected:
	default:
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, apperrors.MsgInvalidInput)
		return
	}
	page, size := pagination(c)

	result, err := ctrl.slipService.ListSlips(repository.PaymentSlipFilter{
		UserID:   userID,
		Status:   status,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		respondServiceError(c, err, "List slips", "slip")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSlip GET /api/v1/admin/payment-slips/:id
func (ctrl *PaymentSlipController) GetSlip(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	slip, err := ctrl.slipService.GetSlip(id)
	if err != nil {
		respondServiceError(c, err, "Get slip", "slip")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slip": slip,
	})
}

// Review approves or rejects a pending slip
// PUT /api/v1/admin/payment-slips/:id/review
func (ctrl *PaymentSlipController) Review(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReviewSlipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	slip, err := ctrl.slipService.Review(c.Request.Context(), actor, id, model.SlipStatus(req.Decision), strings.TrimSpace(req.Note))
	if err != nil {
		respondServiceError(c, err, "Slip review", "slip")
		return
	}

	log.Info("Payment slip reviewed", map[string]interface{}{
		"slip_id":  id,
		"decision": req.Decision,
		"admin_id": actor.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"slip": slip,
	})
}
