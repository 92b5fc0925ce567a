package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"playpos/internal/apierror"
	"playpos/internal/dto"
	"playpos/internal/pricing"
	"playpos/internal/repository"
	"playpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const priceCacheTTL = 4 * time.Hour

// PriceCheckHandler serves the public price check endpoints used by the
// self-service kiosk display. Read-only, no side effects.
type PriceCheckHandler struct {
	repo    repository.ProductRepository
	catalog service.CatalogService
	rdb     *redis.Client
}

func NewPriceCheckHandler(repo repository.ProductRepository, catalog service.CatalogService, rdb *redis.Client) *PriceCheckHandler {
	return &PriceCheckHandler{repo: repo, catalog: catalog, rdb: rdb}
}

// GetPrice godoc
// @Summary Price check by product id
// @Tags price
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} dto.PriceCheckResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/prices/{id} [get]
func (h *PriceCheckHandler) GetPrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	ctx := c.Request.Context()
	cacheKey := "price:" + id.String()

	// 1. Try Redis cache
	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.PriceCheckResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	// 2. Cache miss — query DB
	product, err := h.repo.FindByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Product not found"))
		return
	}

	resp := dto.PriceCheckResponse{
		Name:           product.Name,
		UnitPrice:      product.UnitPrice,
		StockAvailable: product.Stock,
	}

	// 3. Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, priceCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}

// GetTimePrice godoc
// @Summary Preview the charge for a span of minutes
// @Tags price
// @Produce json
// @Param minutes query int true "Minutes to price"
// @Success 200 {object} dto.TimePriceResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/time-price [get]
func (h *PriceCheckHandler) GetTimePrice(c *gin.Context) {
	minutes, err := strconv.Atoi(c.Query("minutes"))
	if err != nil || minutes <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("minutes must be a positive integer"))
		return
	}

	tiers, err := h.catalog.GetActiveTimeTiers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	charge, err := pricing.ChargeForMinutes(minutes, tiers)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TimePriceResponse{Minutes: minutes, Charge: charge})
}
