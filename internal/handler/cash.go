package handler

import (
	"net/http"

	"playpos/internal/apierror"
	"playpos/internal/dto"
	"playpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CashHandler struct{ svc service.CashService }

func NewCashHandler(svc service.CashService) *CashHandler { return &CashHandler{svc: svc} }

// Open godoc
// @Summary Open a cash-drawer session
// @Tags cash
// @Accept json
// @Produce json
// @Param body body dto.OpenSessionRequest true "Opening float"
// @Success 201 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError "A session is already open"
// @Router /v1/cash/open [post]
func (h *CashHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.OpenSession(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Movement godoc
// @Summary Record a deposit or withdrawal against the open session
// @Tags cash
// @Accept json
// @Produce json
// @Param body body dto.MovementRequest true "Movement"
// @Success 201 {object} dto.MovementResponse
// @Failure 409 {object} apierror.APIError "No open session"
// @Router /v1/cash/movements [post]
func (h *CashHandler) Movement(c *gin.Context) {
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordMovement(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Summary godoc
// @Summary Reconciliation summary of the open session
// @Tags cash
// @Produce json
// @Success 200 {object} dto.SessionSummaryResponse
// @Failure 409 {object} apierror.APIError "No open session"
// @Router /v1/cash/summary [get]
func (h *CashHandler) Summary(c *gin.Context) {
	resp, err := h.svc.ComputeSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary Close the open session, snapshotting totals and variance
// @Tags cash
// @Accept json
// @Produce json
// @Param body body dto.CloseSessionRequest true "Counted cash and closing user"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError "No open session"
// @Router /v1/cash/close [post]
func (h *CashHandler) Close(c *gin.Context) {
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CloseSession(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary List past sessions, optionally bounded by date
// @Tags cash
// @Produce json
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {array} dto.SessionResponse
// @Router /v1/cash/history [get]
func (h *CashHandler) History(c *gin.Context) {
	var filter dto.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid query: "+err.Error()))
		return
	}
	resp, err := h.svc.GetHistory(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CashHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	resp, err := h.svc.GetSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
