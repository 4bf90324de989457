package controller

import (
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

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// ListUsers GET /api/v1/admin/users?search=&verify_status=&page=&page_size=
func (ctrl *UserController) ListUsers(c *gin.Context) {
	filter := repository.UserFilter{
		Search: strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("verify_status"); raw != "" {
		n, err := strconv.Atoi(raw)
		status := model.VerifyStatus(n)
		if err != nil || (status != model.VerifyStatusPending && status != model.VerifyStatusVerified) {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, apperrors.MsgInvalidInput)
			return
		}
		filter.VerifyStatus = &status
	}
	filter.Page, filter.PageSize = pagination(c)

	result, err := ctrl.userService.ListUsers(filter)
	if err != nil {
		respondServiceError(c, err, "List users", "user")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser GET /api/v1/admin/users/:id
func (ctrl *UserController) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := ctrl.userService.GetUser(id)
	if err != nil {
		respondServiceError(c, err, "Get user", "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// VerifyUser PUT /api/v1/admin/users/:id/verify
func (ctrl *UserController) VerifyUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := ctrl.userService.VerifyUser(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err, "Verify user", "user")
		return
	}

	log.Info("Resident verified", map[string]interface{}{
		"user_id":  id,
		"admin_id": actor.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// DeleteUser removes a resident with their addresses, records and bills
// DELETE /api/v1/admin/users/:id
func (ctrl *UserController) DeleteUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.userService.DeleteUser(actor, id); err != nil {
		respondServiceError(c, err, "Delete user", "user")
		return
	}

	log.Info("Resident deleted", map[string]interface{}{
		"user_id":  id,
		"admin_id": actor.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "ลบผู้ใช้งานเรียบร้อยแล้ว",
	})
}
