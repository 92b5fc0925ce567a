package handler

import (
	"net/http"

	"playpos/internal/apierror"
	"playpos/internal/dto"
	"playpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SaleHandler struct{ svc service.SaleService }

func NewSaleHandler(svc service.SaleService) *SaleHandler { return &SaleHandler{svc: svc} }

// CreatePending godoc
// @Summary Open a pending sale (time tab) bound to an NFC card
// @Tags sales
// @Accept json
// @Produce json
// @Param body body dto.CreatePendingSaleRequest true "Cart and card"
// @Success 201 {object} dto.SaleResponse
// @Failure 409 {object} apierror.APIError "Card in use or insufficient stock"
// @Router /v1/sales/pending [post]
func (h *SaleHandler) CreatePending(c *gin.Context) {
	var req dto.CreatePendingSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreatePendingSale(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Finalize godoc
// @Summary Finalize the pending sale on a card, billing excess time
// @Tags sales
// @Accept json
// @Produce json
// @Param body body dto.FinalizeSaleRequest true "Card id"
// @Success 200 {object} dto.SaleResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/finalize [post]
func (h *SaleHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.FinalizeSale(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateFinalized godoc
// @Summary Immediate checkout: create a finalized sale in one step
// @Tags sales
// @Accept json
// @Produce json
// @Param body body dto.CreateFinalizedSaleRequest true "Cart"
// @Success 201 {object} dto.SaleResponse
// @Failure 409 {object} apierror.APIError "Insufficient stock"
// @Router /v1/sales [post]
func (h *SaleHandler) CreateFinalized(c *gin.Context) {
	var req dto.CreateFinalizedSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateFinalizedSale(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cancel godoc
// @Summary Cancel the pending sale on a card and restore stock
// @Tags sales
// @Accept json
// @Produce json
// @Param body body dto.CancelSaleRequest true "Card id"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/cancel [post]
func (h *SaleHandler) Cancel(c *gin.Context) {
	var req dto.CancelSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.CancelPendingSale(c.Request.Context(), req.CardID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SaleHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	resp, err := h.svc.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary List sales filtered by date and state
// @Tags sales
// @Produce json
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Param state query string false "pending | finalized | all"
// @Success 200 {object} dto.SaleListResponse
// @Router /v1/sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid query: "+err.Error()))
		return
	}
	resp, err := h.svc.ListSales(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
