package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	apperrors "github.com/wastebill/wastebill-backend/internal/errors"
	"github.com/wastebill/wastebill-backend/internal/middleware"
)

type ReportController struct {
	reportService service.ReportService
	auditService  service.AuditService
	loc           *time.Location
}

func NewReportController(reportService service.ReportService, auditService service.AuditService, loc *time.Location) *ReportController {
	return &ReportController{
		reportService: reportService,
		auditService:  auditService,
		loc:           loc,
	}
}

// reportRange defaults to the current month when bounds are missing
func (ctrl *ReportController) reportRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, to, err := dateRange(c, ctrl.loc)
	if err != nil {
		respondInvalidRange(c, err)
		return time.Time{}, time.Time{}, false
	}

	now := time.Now().In(ctrl.loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, ctrl.loc)
	if from == nil {
		from = &start
	}
	if to == nil {
		end := from.AddDate(0, 1, 0)
		to = &end
	}
	return *from, *to, true
}

func (ctrl *ReportController) sendWorkbook(c *gin.Context, name string, from, to time.Time, data []byte) {
	filename := fmt.Sprintf("%s_%s_%s.xlsx", name, from.Format("20060102"), to.AddDate(0, 0, -1).Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, service.XLSXContentType, data)
}

// FinanceReport downloads billed, paid and outstanding amounts as xlsx
// GET /api/v1/admin/reports/finance?from=&to=
func (ctrl *ReportController) FinanceReport(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	from, to, ok := ctrl.reportRange(c)
	if !ok {
		return
	}

	data, err := ctrl.reportService.FinanceReport(actor, from, to)
	if err != nil {
		log.Error("Failed to build finance report", err, map[string]interface{}{
			"from": from,
			"to":   to,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.ReportFailed, apperrors.MsgReportFailed)
		return
	}

	log.Info("Finance report exported", map[string]interface{}{
		"admin_id": actor.ID,
		"bytes":    len(data),
	})
	ctrl.sendWorkbook(c, "finance", from, to, data)
}

// WasteReport downloads collected kg per address and type as xlsx
// GET /api/v1/admin/reports/waste?from=&to=
func (ctrl *ReportController) WasteReport(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	from, to, ok := ctrl.reportRange(c)
	if !ok {
		return
	}

	data, err := ctrl.reportService.WasteReport(actor, from, to)
	if err != nil {
		log.Error("Failed to build waste report", err, map[string]interface{}{
			"from": from,
			"to":   to,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.ReportFailed, apperrors.MsgReportFailed)
		return
	}

	log.Info("Waste report exported", map[string]interface{}{
		"admin_id": actor.ID,
		"bytes":    len(data),
	})
	ctrl.sendWorkbook(c, "waste", from, to, data)
}

// ListAuditLogs GET /api/v1/admin/audit-logs?admin_id=&action=&entity_type=&entity_id=&from=&to=
func (ctrl *ReportController) ListAuditLogs(c *gin.Context) {
	adminID, err := queryUint(c, "admin_id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, apperrors.MsgInvalidID)
		return
	}
	entityID, err := queryUint(c, "entity_id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, apperrors.MsgInvalidID)
		return
	}
	from, to, err := dateRange(c, ctrl.loc)
	if err != nil {
		respondInvalidRange(c, err)
		return
	}
	page, size := pagination(c)

	result, err := ctrl.auditService.List(repository.AuditFilter{
		AdminID:    adminID,
		ActionType: c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   entityID,
		From:       from,
		To:         to,
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		respondServiceError(c, err, "List audit logs", "audit")
		return
	}

	c.JSON(http.StatusOK, result)
}
