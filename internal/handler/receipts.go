package handler

import (
	"net/http"

	"tillpos/internal/service"

	"github.com/gin-gonic/gin"
)

type ReceiptHandler struct{ svc service.ReceiptService }

func NewReceiptHandler(svc service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{svc: svc}
}

// Get godoc
// @Summary Receipt status for a transaction
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/receipts/{id} [get]
func (h *ReceiptHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetByTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Download godoc
// @Summary Stream the rendered PDF
// @Tags receipts
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {file} binary
// @Failure 409 {object} apierror.APIError
// @Router /v1/receipts/{id}/pdf [get]
func (h *ReceiptHandler) Download(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	path, err := h.svc.DownloadPath(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, "receipt.pdf")
}

// Retry godoc
// @Summary Re-enqueue a stuck receipt (supervisor)
// @Tags receipts
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 202
// @Failure 409 {object} apierror.APIError
// @Router /v1/receipts/{id}/retry [post]
func (h *ReceiptHandler) Retry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Retry(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
