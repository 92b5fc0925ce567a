package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"playpos/internal/dto"
	"playpos/internal/model"
	"playpos/internal/poserr"
	"playpos/internal/pricing"
	"playpos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	tiersCacheKey = "catalog:tiers"
	tiersCacheTTL = 5 * time.Minute
)

// CatalogService manages the read-mostly definitions: products, combos and
// the time-tier pricing table.
type CatalogService interface {
	// GetActiveTimeTiers returns the pricing table ordered by position.
	// Served from Redis when possible; invalidated on every tier write.
	GetActiveTimeTiers(ctx context.Context) ([]model.TimeTier, error)

	CreateProduct(ctx context.Context, req dto.ProductRequest) (*dto.ProductResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, int64, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req dto.ProductRequest) (*dto.ProductResponse, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) error
	// AdjustStock applies a manual stock correction and journals it.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int, reason string) error

	CreateCombo(ctx context.Context, req dto.ComboRequest) (*dto.ComboResponse, error)
	GetCombo(ctx context.Context, id uuid.UUID) (*dto.ComboResponse, error)
	ListCombos(ctx context.Context) ([]dto.ComboResponse, error)
	DeactivateCombo(ctx context.Context, id uuid.UUID) error

	CreateTier(ctx context.Context, req dto.TimeTierRequest) (*dto.TimeTierResponse, error)
	ListTiers(ctx context.Context) ([]dto.TimeTierResponse, error)
	UpdateTier(ctx context.Context, id uuid.UUID, req dto.TimeTierRequest) (*dto.TimeTierResponse, error)
	DeactivateTier(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	productRepo  repository.ProductRepository
	comboRepo    repository.ComboRepository
	tierRepo     repository.TimeTierRepository
	stockMovRepo repository.StockMovementRepository
	rdb          *redis.Client // nil in unit tests — cache is skipped
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	comboRepo repository.ComboRepository,
	tierRepo repository.TimeTierRepository,
	stockMovRepo repository.StockMovementRepository,
	rdb *redis.Client,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		comboRepo:    comboRepo,
		tierRepo:     tierRepo,
		stockMovRepo: stockMovRepo,
		rdb:          rdb,
	}
}

// ── Time tiers ───────────────────────────────────────────────────────────────

func (s *catalogService) GetActiveTimeTiers(ctx context.Context) ([]model.TimeTier, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, tiersCacheKey).Bytes(); err == nil {
			var tiers []model.TimeTier
			if json.Unmarshal(cached, &tiers) == nil {
				return tiers, nil
			}
		}
	}

	tiers, err := s.tierRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := pricing.ValidateTiers(tiers); err != nil {
		// An unusable table is a configuration problem, not a lookup failure.
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(tiers); err == nil {
			if err := s.rdb.Set(ctx, tiersCacheKey, data, tiersCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("catalog: failed to cache tier table")
			}
		}
	}
	return tiers, nil
}

func (s *catalogService) invalidateTierCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, tiersCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("catalog: failed to invalidate tier cache")
	}
}

func (s *catalogService) CreateTier(ctx context.Context, req dto.TimeTierRequest) (*dto.TimeTierResponse, error) {
	tier := &model.TimeTier{
		Name:     req.Name,
		Minutes:  req.Minutes,
		Price:    req.Price,
		Position: req.Position,
		Active:   true,
	}
	if err := s.tierRepo.Create(ctx, tier); err != nil {
		return nil, err
	}
	s.invalidateTierCache(ctx)
	return tierToResponse(tier), nil
}

func (s *catalogService) ListTiers(ctx context.Context) ([]dto.TimeTierResponse, error) {
	tiers, err := s.tierRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TimeTierResponse, 0, len(tiers))
	for i := range tiers {
		out = append(out, *tierToResponse(&tiers[i]))
	}
	return out, nil
}

func (s *catalogService) UpdateTier(ctx context.Context, id uuid.UUID, req dto.TimeTierRequest) (*dto.TimeTierResponse, error) {
	tier, err := s.tierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, &poserr.NotFoundError{Entity: "time tier", Ref: id.String()}
	}
	tier.Name = req.Name
	tier.Minutes = req.Minutes
	tier.Price = req.Price
	tier.Position = req.Position
	if err := s.tierRepo.Update(ctx, tier); err != nil {
		return nil, err
	}
	s.invalidateTierCache(ctx)
	return tierToResponse(tier), nil
}

func (s *catalogService) DeactivateTier(ctx context.Context, id uuid.UUID) error {
	if err := s.tierRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidateTierCache(ctx)
	return nil
}

// ── Products ─────────────────────────────────────────────────────────────────

func (s *catalogService) CreateProduct(ctx context.Context, req dto.ProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Stock:     req.Stock,
		Active:    true,
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, &poserr.NotFoundError{Entity: "product", Ref: id.String()}
	}
	return productToResponse(p), nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, int64, error) {
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, *productToResponse(&products[i]))
	}
	return out, total, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req dto.ProductRequest) (*dto.ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, &poserr.NotFoundError{Entity: "product", Ref: id.String()}
	}
	p.Name = req.Name
	p.UnitPrice = req.UnitPrice
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *catalogService) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.SoftDelete(ctx, id)
}

func (s *catalogService) AdjustStock(ctx context.Context, id uuid.UUID, delta int, reason string) error {
	if delta == 0 {
		return nil
	}
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return &poserr.NotFoundError{Entity: "product", Ref: id.String()}
	}
	if delta < 0 && p.Stock+delta < 0 {
		return &poserr.InsufficientStockError{Deficits: []poserr.StockDeficit{{
			ProductID: p.ID.String(), Name: p.Name, Available: p.Stock, Required: -delta,
		}}}
	}

	return runTx(ctx, s.productRepo.DB(), func(tx *gorm.DB) error {
		if delta > 0 {
			if err := s.productRepo.IncrementStockTx(tx, id, delta); err != nil {
				return err
			}
		} else {
			if err := s.productRepo.DecrementStockTx(tx, id, -delta); err != nil {
				return err
			}
		}
		return s.stockMovRepo.CreateTx(tx, &model.StockMovement{
			ProductID:   id,
			Kind:        "adjustment",
			Quantity:    delta,
			StockBefore: p.Stock,
			StockAfter:  p.Stock + delta,
			Reason:      reason,
		})
	})
}

// ── Combos ───────────────────────────────────────────────────────────────────

func (s *catalogService) CreateCombo(ctx context.Context, req dto.ComboRequest) (*dto.ComboResponse, error) {
	combo := &model.Combo{
		Name:   req.Name,
		Price:  req.Price,
		Active: true,
	}
	if req.TimeTierID != nil {
		tid, err := uuid.Parse(*req.TimeTierID)
		if err != nil {
			return nil, fmt.Errorf("time_tier_id: %w", err)
		}
		if _, err := s.tierRepo.FindByID(ctx, tid); err != nil {
			return nil, &poserr.NotFoundError{Entity: "time tier", Ref: *req.TimeTierID}
		}
		combo.TimeTierID = &tid
	}
	for _, line := range req.Lines {
		pid, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product_id: %w", err)
		}
		if _, err := s.productRepo.FindByID(ctx, pid); err != nil {
			return nil, &poserr.NotFoundError{Entity: "product", Ref: line.ProductID}
		}
		combo.Lines = append(combo.Lines, model.ComboLine{ProductID: pid, Quantity: line.Quantity})
	}
	if len(combo.Lines) == 0 && combo.TimeTierID == nil {
		return nil, &poserr.ConfigurationError{Msg: "combo needs at least one product line or a time tier"}
	}

	if err := s.comboRepo.Create(ctx, combo); err != nil {
		return nil, err
	}
	// Reload with products and tier for the availability computation.
	return s.GetCombo(ctx, combo.ID)
}

func (s *catalogService) GetCombo(ctx context.Context, id uuid.UUID) (*dto.ComboResponse, error) {
	combo, err := s.comboRepo.FindByID(ctx, id)
	if err != nil {
		return nil, &poserr.NotFoundError{Entity: "combo", Ref: id.String()}
	}
	return comboToResponse(combo), nil
}

func (s *catalogService) ListCombos(ctx context.Context) ([]dto.ComboResponse, error) {
	combos, err := s.comboRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ComboResponse, 0, len(combos))
	for i := range combos {
		out = append(out, *comboToResponse(&combos[i]))
	}
	return out, nil
}

func (s *catalogService) DeactivateCombo(ctx context.Context, id uuid.UUID) error {
	return s.comboRepo.SoftDelete(ctx, id)
}

// ── Mappers ──────────────────────────────────────────────────────────────────

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Stock:     p.Stock,
		Active:    p.Active,
	}
}

func tierToResponse(t *model.TimeTier) *dto.TimeTierResponse {
	return &dto.TimeTierResponse{
		ID:       t.ID.String(),
		Name:     t.Name,
		Minutes:  t.Minutes,
		Price:    t.Price,
		Position: t.Position,
		Active:   t.Active,
	}
}

func comboToResponse(c *model.Combo) *dto.ComboResponse {
	lines := make([]dto.ComboLineResponse, 0, len(c.Lines))
	for _, l := range c.Lines {
		name := ""
		if l.Product != nil {
			name = l.Product.Name
		}
		lines = append(lines, dto.ComboLineResponse{
			ProductID: l.ProductID.String(),
			Product:   name,
			Quantity:  l.Quantity,
		})
	}
	resp := &dto.ComboResponse{
		ID:             c.ID.String(),
		Name:           c.Name,
		Price:          c.Price,
		AvailableStock: c.AvailableStock(),
		Lines:          lines,
		Active:         c.Active,
	}
	if c.TimeTierID != nil {
		tid := c.TimeTierID.String()
		resp.TimeTierID = &tid
	}
	if c.TimeTier != nil {
		resp.IncludedMinutes = c.TimeTier.Minutes
	}
	return resp
}
