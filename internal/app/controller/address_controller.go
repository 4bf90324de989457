package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	apperrors "github.com/wastebill/wastebill-backend/internal/errors"
	"github.com/wastebill/wastebill-backend/internal/middleware"
)

type AddressController struct {
	addressService service.AddressService
}

func NewAddressController(addressService service.AddressService) *AddressController {
	return &AddressController{
		addressService: addressService,
	}
}

type AddressRequest struct {
	HouseNo     string `json:"house_no" binding:"required,max=50"`
	Village     string `json:"village" binding:"max=100"`
	SubDistrict string `json:"sub_district" binding:"required,max=100"`
	District    string `json:"district" binding:"required,max=100"`
	Province    string `json:"province" binding:"required,max=100"`
	PostalCode  string `json:"postal_code" binding:"omitempty,numeric,len=5"`
	AddressType string `json:"address_type" binding:"omitempty,oneof=household establishment"`
}

func (r AddressRequest) input() service.AddressInput {
	return service.AddressInput{
		HouseNo:     strings.TrimSpace(r.HouseNo),
		Village:     strings.TrimSpace(r.Village),
		SubDistrict: strings.TrimSpace(r.SubDistrict),
		District:    strings.TrimSpace(r.District),
		Province:    strings.TrimSpace(r.Province),
		PostalCode:  r.PostalCode,
		AddressType: model.AddressType(r.AddressType),
	}
}

// ListAddresses returns the resident's addresses
// GET /api/v1/addresses
func (ctrl *AddressController) ListAddresses(c *gin.Context) {
	userID, ok := residentID(c)
	if !ok {
		return
	}

	addresses, err := ctrl.addressService.GetUserAddresses(userID)
	if err != nil {
		respondServiceError(c, err, "List addresses", "address")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"addresses": addresses,
		"count":     len(addresses),
	})
}

// CreateAddress POST /api/v1/addresses
func (ctrl *AddressController) CreateAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := residentID(c)
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	address, err := ctrl.addressService.CreateAddress(userID, req.input())
	if err != nil {
		respondServiceError(c, err, "Create address", "address")
		return
	}

	log.Info("Address created", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"address": address,
	})
}

// UpdateAddress PUT /api/v1/addresses/:id
func (ctrl *AddressController) UpdateAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := residentID(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	address, err := ctrl.addressService.UpdateAddress(userID, addressID, req.input())
	if err != nil {
		respondServiceError(c, err, "Update address", "address")
		return
	}

	log.Info("Address updated", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	c.JSON(http.StatusOK, gin.H{
		"address": address,
	})
}

// DeleteAddress DELETE /api/v1/addresses/:id
func (ctrl *AddressController) DeleteAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := residentID(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.addressService.DeleteAddress(userID, addressID); err != nil {
		respondServiceError(c, err, "Delete address", "address")
		return
	}

	log.Info("Address deleted", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "ลบที่อยู่เรียบร้อยแล้ว",
	})
}

// AdminListAddresses filters every address
// GET /api/v1/admin/addresses?user_id=&verified=&address_type=&search=
func (ctrl *AddressController) AdminListAddresses(c *gin.Context) {
	userID, err := queryUint(c, "user_id")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, apperrors.MsgInvalidID)
		return
	}
	verified, err := queryBool(c, "verified")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, apperrors.MsgInvalidInput)
		return
	}
	addrType := model.AddressType(c.Query("address_type"))
	if addrType != "" && !addrType.Valid() {
		apperrors.BadRequest(c, apperrors.PriceInvalidType, apperrors.MsgInvalidAddressType)
		return
	}
	page, size := pagination(c)

	result, err := ctrl.addressService.ListAddresses(repository.AddressFilter{
		UserID:      userID,
		Verified:    verified,
		AddressType: addrType,
		Search:      strings.TrimSpace(c.Query("search")),
		Page:        page,
		PageSize:    size,
	})
	if err != nil {
		respondServiceError(c, err, "List addresses", "address")
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifyAddress PUT /api/v1/admin/addresses/:id/verify
func (ctrl *AddressController) VerifyAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	address, err := ctrl.addressService.VerifyAddress(actor, addressID)
	if err != nil {
		respondServiceError(c, err, "Verify address", "address")
		return
	}

	log.Info("Address verified", map[string]interface{}{
		"address_id": addressID,
		"admin_id":   actor.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"address": address,
	})
}
