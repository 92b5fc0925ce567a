package handler

import (
	"net/http"

	"playpos/internal/dto"
	"playpos/internal/service"

	"github.com/gin-gonic/gin"
)

type ReturnHandler struct{ svc service.ReturnService }

func NewReturnHandler(svc service.ReturnService) *ReturnHandler { return &ReturnHandler{svc: svc} }

// Partial godoc
// @Summary Return part of a finalized sale
// @Tags returns
// @Accept json
// @Produce json
// @Param body body dto.ReturnPartialRequest true "Lines and quantities to return"
// @Success 200 {object} dto.ReturnResponse
// @Failure 409 {object} apierror.APIError "Sale is pending"
// @Failure 422 {object} apierror.APIError "Quantity exceeds line"
// @Router /v1/returns/partial [post]
func (h *ReturnHandler) Partial(c *gin.Context) {
	var req dto.ReturnPartialRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ReturnPartial(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Full godoc
// @Summary Return a finalized sale in full and delete it
// @Tags returns
// @Accept json
// @Produce json
// @Param body body dto.ReturnFullRequest true "Sale id"
// @Success 200 {object} dto.ReturnResponse
// @Failure 409 {object} apierror.APIError "Sale is pending"
// @Router /v1/returns/full [post]
func (h *ReturnHandler) Full(c *gin.Context) {
	var req dto.ReturnFullRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ReturnFull(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
