package handler

import (
	"net/http"

	"playpos/internal/dto"
	"playpos/internal/service"

	"github.com/gin-gonic/gin"
)

type TimeEntryHandler struct{ svc service.TimeEntryService }

func NewTimeEntryHandler(svc service.TimeEntryService) *TimeEntryHandler {
	return &TimeEntryHandler{svc: svc}
}

// Start godoc
// @Summary Start a timed admission for a card
// @Tags time-entries
// @Accept json
// @Produce json
// @Param body body dto.StartTimeEntryRequest true "Card id"
// @Success 201 {object} dto.TimeEntryResponse
// @Failure 409 {object} apierror.APIError "Card already in use"
// @Router /v1/time-entries/start [post]
func (h *TimeEntryHandler) Start(c *gin.Context) {
	var req dto.StartTimeEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Start(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Finalize godoc
// @Summary Close a timed admission, billing elapsed minutes
// @Tags time-entries
// @Accept json
// @Produce json
// @Param body body dto.FinalizeTimeEntryRequest true "Card id, payment and discount"
// @Success 200 {object} dto.FinalizeTimeEntryResponse
// @Failure 404 {object} apierror.APIError "No active entry for card"
// @Router /v1/time-entries/finalize [post]
func (h *TimeEntryHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeTimeEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Finalize(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary List time entries for a day
// @Tags time-entries
// @Produce json
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {array} dto.TimeEntryResponse
// @Router /v1/time-entries [get]
func (h *TimeEntryHandler) List(c *gin.Context) {
	resp, err := h.svc.ListByDate(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
