package handler

import (
	"net/http"

	"playpos/internal/apierror"
	"playpos/internal/dto"
	"playpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CatalogHandler struct{ svc service.CatalogService }

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ── Products ─────────────────────────────────────────────────────────────────

// CreateProduct godoc
// @Summary Create a product
// @Tags catalog
// @Accept json
// @Produce json
// @Param body body dto.ProductRequest true "Product data"
// @Success 201 {object} dto.ProductResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/catalog/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.ProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListProducts godoc
// @Summary List products
// @Tags catalog
// @Produce json
// @Param name query string false "Name filter (substring)"
// @Param active query string false "true | false | all"
// @Success 200 {array} dto.ProductResponse
// @Router /v1/catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid query: "+err.Error()))
		return
	}
	products, total, err := h.svc.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products, "total": total, "page": filter.Page, "limit": filter.Limit})
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	resp, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.ProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) DeactivateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	if err := h.svc.DeactivateProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustStock godoc
// @Summary Apply a manual stock correction
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path string true "Product id"
// @Param body body dto.AdjustStockRequest true "Adjustment"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/catalog/products/{id}/stock [post]
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.AdjustStock(c.Request.Context(), id, req.Delta, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Combos ───────────────────────────────────────────────────────────────────

// CreateCombo godoc
// @Summary Create a combo
// @Tags catalog
// @Accept json
// @Produce json
// @Param body body dto.ComboRequest true "Combo data"
// @Success 201 {object} dto.ComboResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/catalog/combos [post]
func (h *CatalogHandler) CreateCombo(c *gin.Context) {
	var req dto.ComboRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateCombo(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogHandler) ListCombos(c *gin.Context) {
	combos, err := h.svc.ListCombos(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, combos)
}

func (h *CatalogHandler) GetCombo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	resp, err := h.svc.GetCombo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) DeactivateCombo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	if err := h.svc.DeactivateCombo(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Time tiers ───────────────────────────────────────────────────────────────

// CreateTier godoc
// @Summary Create a time tier
// @Tags catalog
// @Accept json
// @Produce json
// @Param body body dto.TimeTierRequest true "Tier data"
// @Success 201 {object} dto.TimeTierResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/catalog/tiers [post]
func (h *CatalogHandler) CreateTier(c *gin.Context) {
	var req dto.TimeTierRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateTier(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogHandler) ListTiers(c *gin.Context) {
	tiers, err := h.svc.ListTiers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tiers)
}

func (h *CatalogHandler) UpdateTier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.TimeTierRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateTier(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) DeactivateTier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	if err := h.svc.DeactivateTier(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
