package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	apperrors "github.com/wastebill/wastebill-backend/internal/errors"
	"github.com/wastebill/wastebill-backend/internal/middleware"
)

type IssueController struct {
	issueService service.IssueService
}

func NewIssueController(issueService service.IssueService) *IssueController {
	return &IssueController{
		issueService: issueService,
	}
}

type CreateIssueRequest struct {
	AddressID *uint  `json:"address_id"`
	Title     string `json:"title" binding:"required,max=255"`
	Detail    string `json:"detail" binding:"max=5000"`
}

type IssueNoteRequest struct {
	Note string `json:"note" binding:"max=2000"`
}

// CreateIssue POST /api/v1/issues
func (ctrl *IssueController) CreateIssue(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := residentID(c)
	if !ok {
		return
	}

	var req CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	issue, err := ctrl.issueService.CreateIssue(userID, service.IssueInput{
		AddressID: req.AddressID,
		Title:     strings.TrimSpace(req.Title),
		Detail:    strings.TrimSpace(req.Detail),
	})
	if err != nil {
		respondServiceError(c, err, "Create issue", "issue")
		return
	}

	log.Info("Issue reported", map[string]interface{}{
		"issue_id": issue.ID,
		"user_id":  userID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"issue": issue,
	})
}

// ListMyIssues GET /api/v1/issues
func (ctrl *IssueController) ListMyIssues(c *gin.Context) {
	userID, ok := residentID(c)
	if !ok {
		return
	}
	page, size := pagination(c)

	result, err := ctrl.issueService.ListMyIssues(userID, page, size)
	if err != nil {
		respondServiceError(c, err, "List issues", "issue")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListIssues GET /api/v1/admin/issues?status=&user_id=
func (ctrl *IssueController) ListIssues(c *gin.Context) {
	userID, err := queryUint(c, "user_id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, apperrors.MsgInvalidID)
		return
	}
	status := model.IssueStatus(c.Query("status"))
	switch status {
	case "", model.IssueStatusOpen, model.IssueStatusAcknowledged, model.IssueStatusResolved:
	default:
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, apperrors.MsgInvalidInput)
		return
	}
	page, size := pagination(c)

	result, err := ctrl.issueService.ListIssues(repository.IssueFilter{
		UserID:   userID,
		Status:   status,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		respondServiceError(c, err, "List issues", "issue")
		return
	}

	c.JSON(http.StatusOK, result)
}

// AcknowledgeIssue PUT /api/v1/admin/issues/:id/acknowledge
func (ctrl *IssueController) AcknowledgeIssue(c *gin.Context) {
	ctrl.transition(c, "acknowledge", ctrl.issueService.AcknowledgeIssue)
}

// ResolveIssue PUT /api/v1/admin/issues/:id/resolve
func (ctrl *IssueController) ResolveIssue(c *gin.Context) {
	ctrl.transition(c, "resolve", ctrl.issueService.ResolveIssue)
}

type issueTransition func(ctx context.Context, actor service.Actor, id uint, note string) (*model.IssueReport, error)

func (ctrl *IssueController) transition(c *gin.Context, action string, apply issueTransition) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req IssueNoteRequest
	// note is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	issue, err := apply(c.Request.Context(), actor, id, strings.TrimSpace(req.Note))
	if err != nil {
		respondServiceError(c, err, "Issue "+action, "issue")
		return
	}

	log.Info("Issue updated", map[string]interface{}{
		"issue_id": id,
		"action":   action,
		"status":   issue.Status,
		"admin_id": actor.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"issue": issue,
	})
}
