package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	"github.com/wastebill/wastebill-backend/internal/middleware"
)

type AdminController struct {
	adminService service.AdminService
}

func NewAdminController(adminService service.AdminService) *AdminController {
	return &AdminController{
		adminService: adminService,
	}
}

type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateAdminRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"max=255"`
	Role     string `json:"role" binding:"required"`
}

// Login signs a back-office user in with username and password
// POST /api/v1/admin/auth/login
func (ctrl *AdminController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	admin, tokens, err := ctrl.adminService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err, "Admin login", "admin")
		return
	}

	log.Info("Admin logged in", map[string]interface{}{
		"admin_id": admin.ID,
		"role":     admin.Role,
	})

	c.JSON(http.StatusOK, gin.H{
		"admin":       admin,
		"tokens":      tokens,
		"permissions": middleware.PermissionsFor(admin.Role),
	})
}

// Me returns the calling admin account
// GET /api/v1/admin/auth/me
func (ctrl *AdminController) Me(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	admin, err := ctrl.adminService.GetAdmin(actor.ID)
	if err != nil {
		respondServiceError(c, err, "Get admin", "admin")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"admin":       admin,
		"permissions": middleware.PermissionsFor(admin.Role),
	})
}

// Policy returns the whole permission table and what the caller holds
// GET /api/v1/admin/policy
func (ctrl *AdminController) Policy(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"role":        actor.Role,
		"permissions": middleware.PermissionsFor(actor.Role),
		"policy":      middleware.Policy,
	})
}

// ListAdmins GET /api/v1/admin/admins
func (ctrl *AdminController) ListAdmins(c *gin.Context) {
	admins, err := ctrl.adminService.ListAdmins()
	if err != nil {
		respondServiceError(c, err, "List admins", "admin")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"admins": admins,
		"count":  len(admins),
	})
}

// CreateAdmin POST /api/v1/admin/admins
func (ctrl *AdminController) CreateAdmin(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	admin, err := ctrl.adminService.CreateAdmin(actor, service.CreateAdminInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Role:     model.AdminRole(req.Role),
	})
	if err != nil {
		respondServiceError(c, err, "Create admin", "admin")
		return
	}

	log.Info("Admin account created", map[string]interface{}{
		"admin_id":   admin.ID,
		"created_by": actor.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"admin": admin,
	})
}

// DeactivateAdmin DELETE /api/v1/admin/admins/:id
func (ctrl *AdminController) DeactivateAdmin(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.adminService.DeactivateAdmin(actor, id); err != nil {
		respondServiceError(c, err, "Deactivate admin", "admin")
		return
	}

	log.Info("Admin account deactivated", map[string]interface{}{
		"admin_id": id,
		"by":       actor.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "ระงับบัญชีเจ้าหน้าที่เรียบร้อยแล้ว",
	})
}
