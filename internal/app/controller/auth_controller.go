package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	apperrors "github.com/wastebill/wastebill-backend/internal/errors"
	"github.com/wastebill/wastebill-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type LineRegisterRequest struct {
	IDToken  string `json:"id_token" binding:"required"`
	Name     string `json:"name" binding:"required,max=255"`
	IDCardNo string `json:"id_card_no" binding:"required,thidcard"`
	PhoneNo  string `json:"phone_no" binding:"required,thphone"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type LineLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdateMeRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	IDCardNo *string `json:"id_card_no" binding:"omitempty,thidcard"`
	PhoneNo  *string `json:"phone_no" binding:"omitempty,thphone"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

// RegisterWithLine creates a resident from a LIFF ID token
// POST /api/v1/auth/line/register
func (ctrl *AuthController) RegisterWithLine(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LineRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, tokens, err := ctrl.authService.RegisterWithLine(c.Request.Context(), service.RegisterInput{
		IDToken:  req.IDToken,
		Name:     req.Name,
		IDCardNo: req.IDCardNo,
		PhoneNo:  req.PhoneNo,
		Email:    req.Email,
	})
	if err != nil {
		respondServiceError(c, err, "LINE registration", "user")
		return
	}

	log.Info("Resident registered", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// LoginWithLine exchanges a LIFF ID token for API tokens
// POST /api/v1/auth/line/login
func (ctrl *AuthController) LoginWithLine(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LineLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, tokens, err := ctrl.authService.LoginWithLine(c.Request.Context(), req.IDToken)
	if err != nil {
		respondServiceError(c, err, "LINE login", "user")
		return
	}

	log.Info("Resident logged in", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// RefreshToken rotates a token pair. Works for residents and admins.
// POST /api/v1/auth/refresh
func (ctrl *AuthController) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tokens, err := ctrl.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err, "Token refresh", "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tokens": tokens,
	})
}

// Logout revokes the caller's access token and, when sent, the refresh token
// POST /api/v1/auth/logout, POST /api/v1/admin/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req LogoutRequest
	// body is optional
	_ = c.ShouldBindJSON(&req)

	if err := ctrl.authService.Logout(c.Request.Context(), claims, req.RefreshToken); err != nil {
		respondServiceError(c, err, "Logout", "user")
		return
	}

	log.Info("Logged out", map[string]interface{}{
		"subject_id": claims.SubjectID,
		"role":       claims.Role,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "ออกจากระบบเรียบร้อยแล้ว",
	})
}

// GetMe returns the resident with their addresses
// GET /api/v1/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, ok := residentID(c)
	if !ok {
		return
	}

	user, err := ctrl.authService.GetMe(userID)
	if err != nil {
		respondServiceError(c, err, "Get profile", "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// UpdateMe edits the resident's own profile
// PUT /api/v1/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := residentID(c)
	if !ok {
		return
	}

	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := ctrl.authService.UpdateMe(userID, service.ProfileInput{
		Name:     req.Name,
		IDCardNo: req.IDCardNo,
		PhoneNo:  req.PhoneNo,
		Email:    req.Email,
	})
	if err != nil {
		respondServiceError(c, err, "Update profile", "user")
		return
	}

	log.Info("Profile updated", map[string]interface{}{
		"user_id": userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
