package handler

import (
	"net/http"
	"strconv"

	"tillpos/internal/dto"
	"tillpos/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ ledger service.InventoryLedger }

func NewInventoryHandler(ledger service.InventoryLedger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// AdjustStock godoc
// @Summary Manual stock correction (supervisor)
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param body body dto.AdjustStockRequest true "Signed delta with notes"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/inventory/{id}/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.ledger.ManualAdjust(c.Request.Context(), id, req.Delta, req.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StockAlerts godoc
// @Summary Products at or below their minimum stock
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.StockAlertResponse
// @Router /v1/inventory/alerts [get]
func (h *InventoryHandler) StockAlerts(c *gin.Context) {
	resp, err := h.ledger.StockAlerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements godoc
// @Summary Recent stock movements, newest first
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {array} dto.StockMovementResponse
// @Router /v1/inventory/movements [get]
func (h *InventoryHandler) Movements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	resp, err := h.ledger.RecentMovements(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
