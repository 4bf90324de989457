package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wastebill/wastebill-backend/internal/app/model"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	"github.com/wastebill/wastebill-backend/internal/billing"
	"github.com/wastebill/wastebill-backend/internal/middleware"
)

type PriceController struct {
	priceService service.WastePriceService
}

func NewPriceController(priceService service.WastePriceService) *PriceController {
	return &PriceController{
		priceService: priceService,
	}
}

type PriceRow struct {
	AddressType string          `json:"address_type" binding:"required"`
	WasteType   string          `json:"waste_type" binding:"required"`
	PricePerKg  decimal.Decimal `json:"price_per_kg"`
}

type UpdatePricesRequest struct {
	Prices []PriceRow `json:"prices" binding:"required,min=1,dive"`
}

// GetPrices returns the full price table
// GET /api/v1/prices, GET /api/v1/admin/prices
func (ctrl *PriceController) GetPrices(c *gin.Context) {
	prices, err := ctrl.priceService.GetPrices()
	if err != nil {
		respondServiceError(c, err, "Get prices", "price")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prices": prices,
	})
}

// UpdatePrices upserts price rows
// PUT /api/v1/admin/prices
func (ctrl *PriceController) UpdatePrices(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req UpdatePricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rows := make([]service.PriceInput, 0, len(req.Prices))
	for _, p := range req.Prices {
		rows = append(rows, service.PriceInput{
			AddressType: model.AddressType(p.AddressType),
			WasteType:   billing.WasteType(p.WasteType),
			PricePerKg:  p.PricePerKg,
		})
	}

	prices, err := ctrl.priceService.UpdatePrices(c.Request.Context(), actor, rows)
	if err != nil {
		respondServiceError(c, err, "Update prices", "price")
		return
	}

	log.Info("Price table updated", map[string]interface{}{
		"rows":     len(rows),
		"admin_id": actor.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"prices": prices,
	})
}
