package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	"github.com/wastebill/wastebill-backend/internal/billing"
	apperrors "github.com/wastebill/wastebill-backend/internal/errors"
	"github.com/wastebill/wastebill-backend/internal/middleware"
)

type WasteController struct {
	recordService service.WasteRecordService
	loc           *time.Location
}

func NewWasteController(recordService service.WasteRecordService, loc *time.Location) *WasteController {
	return &WasteController{
		recordService: recordService,
		loc:           loc,
	}
}

// RecordWasteRequest carries kg per waste type, e.g. {"general": "3.5"}
type RecordWasteRequest struct {
	AddressID    uint            `json:"address_id" binding:"required"`
	Weights      billing.Weights `json:"weights" binding:"required"`
	RecordedDate string          `json:"recorded_date"` // YYYY-MM-DD, today when empty
}

// parseRecordedDate reads an optional local calendar day
func parseRecordedDate(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, raw, loc)
}

// ScanBarcode resolves a bin barcode to its address and running estimate
// GET /api/v1/admin/addresses/scan/:barcode
func (ctrl *WasteController) ScanBarcode(c *gin.Context) {
	result, err := ctrl.recordService.ScanBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondServiceError(c, err, "Scan barcode", "address")
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecordWaste POST /api/v1/admin/waste-records
func (ctrl *WasteController) RecordWaste(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req RecordWasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	recordedDate, err := parseRecordedDate(req.RecordedDate, ctrl.loc)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, apperrors.MsgInvalidInput)
		return
	}

	records, err := ctrl.recordService.RecordWaste(actor, req.AddressID, req.Weights, recordedDate)
	if err != nil {
		respondServiceError(c, err, "Record waste", "address")
		return
	}

	log.Info("Waste recorded", map[string]interface{}{
		"address_id": req.AddressID,
		"records":    len(records),
		"admin_id":   actor.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"records": records,
		"count":   len(records),
	})
}

// ListRecords GET /api/v1/admin/waste-records?address_id=&waste_type=&from=&to=&unbilled=
func (ctrl *WasteController) ListRecords(c *gin.Context) {
	addressID, err := queryUint(c, "address_id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, apperrors.MsgInvalidID)
		return
	}
	wasteType := billing.WasteType(c.Query("waste_type"))
	if wasteType != "" && !wasteType.Valid() {
		apperrors.BadRequest(c, apperrors.WasteInvalidType, apperrors.MsgInvalidWasteType)
		return
	}
	from, to, err := dateRange(c, ctrl.loc)
	if err != nil {
		respondInvalidRange(c, err)
		return
	}
	unbilled, err := queryBool(c, "unbilled")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, apperrors.MsgInvalidInput)
		return
	}
	page, size := pagination(c)

	filter := repository.WasteRecordFilter{
		AddressID: addressID,
		WasteType: wasteType,
		From:      from,
		To:        to,
		Unbilled:  unbilled != nil && *unbilled,
		Page:      page,
		PageSize:  size,
	}

	result, err := ctrl.recordService.ListRecords(filter)
	if err != nil {
		respondServiceError(c, err, "List waste records", "address")
		return
	}

	c.JSON(http.StatusOK, result)
}

// MyStats returns the resident's monthly weights for a year
// GET /api/v1/waste/stats?year=
func (ctrl *WasteController) MyStats(c *gin.Context) {
	userID, ok := residentID(c)
	if !ok {
		return
	}

	year := time.Now().In(ctrl.loc).Year()
	if raw := c.Query("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 2000 || n > 2200 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, apperrors.MsgInvalidInput)
			return
		}
		year = n
	}

	stats, err := ctrl.recordService.GetUserStats(userID, year)
	if err != nil {
		respondServiceError(c, err, "Waste stats", "user")
		return
	}

	c.JSON(http.StatusOK, stats)
}
