package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playpos/internal/dto"
	"playpos/internal/model"
	"playpos/internal/poserr"
	"playpos/internal/pricing"
	"playpos/internal/repository"
	"playpos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleService owns the sale lifecycle: Pending → Finalized for card-bound
// time tabs, direct Finalized for walk-up checkouts, and cancellation of
// pending tabs with full stock restore. Every operation runs in a single
// transaction — stock, sale and journal rows commit together or not at all.
type SaleService interface {
	CreatePendingSale(ctx context.Context, req dto.CreatePendingSaleRequest) (*dto.SaleResponse, error)
	FinalizeSale(ctx context.Context, req dto.FinalizeSaleRequest) (*dto.SaleResponse, error)
	CreateFinalizedSale(ctx context.Context, req dto.CreateFinalizedSaleRequest) (*dto.SaleResponse, error)
	CancelPendingSale(ctx context.Context, cardID string) error
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo          repository.SaleRepository
	productRepo   repository.ProductRepository
	comboRepo     repository.ComboRepository
	timeEntryRepo repository.TimeEntryRepository
	stockMovRepo  repository.StockMovementRepository
	catalog       CatalogService
	dispatcher    *worker.Dispatcher
	lostCardFee   decimal.Decimal
	now           func() time.Time
}

func NewSaleService(
	repo repository.SaleRepository,
	productRepo repository.ProductRepository,
	comboRepo repository.ComboRepository,
	timeEntryRepo repository.TimeEntryRepository,
	stockMovRepo repository.StockMovementRepository,
	catalog CatalogService,
	dispatcher *worker.Dispatcher,
	lostCardFee decimal.Decimal,
) SaleService {
	return &saleService{
		repo:          repo,
		productRepo:   productRepo,
		comboRepo:     comboRepo,
		timeEntryRepo: timeEntryRepo,
		stockMovRepo:  stockMovRepo,
		catalog:       catalog,
		dispatcher:    dispatcher,
		lostCardFee:   lostCardFee,
		now:           time.Now,
	}
}

// resolvedLine is a cart line with catalog data frozen at sale time.
type resolvedLine struct {
	kind      string
	productID *uuid.UUID
	comboID   *uuid.UUID
	name      string
	quantity  int
	unitPrice decimal.Decimal
	subtotal  decimal.Decimal
}

// stockDemand aggregates how many units of one product the whole cart needs,
// across direct product lines and combo constituents.
type stockDemand struct {
	product  *model.Product
	required int
}

// resolveCart prices every cart line, aggregates the stock demand per
// product, and sums the included minutes granted by time-bearing combos
// (tier minutes × line quantity). Stock validation is all-or-nothing: every
// deficient product is enumerated before anything is committed.
func (s *saleService) resolveCart(ctx context.Context, lines []dto.CartLineRequest) ([]resolvedLine, []*stockDemand, int, error) {
	resolved := make([]resolvedLine, 0, len(lines))
	demandIndex := make(map[uuid.UUID]*stockDemand)
	var demands []*stockDemand
	includedMinutes := 0

	addDemand := func(p *model.Product, qty int) {
		d, ok := demandIndex[p.ID]
		if !ok {
			d = &stockDemand{product: p}
			demandIndex[p.ID] = d
			demands = append(demands, d)
		}
		d.required += qty
	}

	for _, line := range lines {
		switch line.Kind {
		case model.LineProduct:
			if line.ProductID == nil {
				return nil, nil, 0, fmt.Errorf("product line missing product_id")
			}
			pid, err := uuid.Parse(*line.ProductID)
			if err != nil {
				return nil, nil, 0, fmt.Errorf("product_id: %w", err)
			}
			p, err := s.productRepo.FindByID(ctx, pid)
			if err != nil {
				return nil, nil, 0, &poserr.NotFoundError{Entity: "product", Ref: *line.ProductID}
			}
			if !p.Active {
				return nil, nil, 0, &poserr.InvalidStateError{Entity: "product " + p.Name, State: "inactive", Op: "sell"}
			}
			addDemand(p, line.Quantity)
			subtotal := p.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			resolved = append(resolved, resolvedLine{
				kind:      model.LineProduct,
				productID: &p.ID,
				name:      p.Name,
				quantity:  line.Quantity,
				unitPrice: p.UnitPrice,
				subtotal:  subtotal,
			})

		case model.LineCombo:
			if line.ComboID == nil {
				return nil, nil, 0, fmt.Errorf("combo line missing combo_id")
			}
			cid, err := uuid.Parse(*line.ComboID)
			if err != nil {
				return nil, nil, 0, fmt.Errorf("combo_id: %w", err)
			}
			combo, err := s.comboRepo.FindByID(ctx, cid)
			if err != nil {
				return nil, nil, 0, &poserr.NotFoundError{Entity: "combo", Ref: *line.ComboID}
			}
			if !combo.Active {
				return nil, nil, 0, &poserr.InvalidStateError{Entity: "combo " + combo.Name, State: "inactive", Op: "sell"}
			}
			if len(combo.Lines) == 0 && combo.TimeTierID == nil {
				return nil, nil, 0, &poserr.InvalidStateError{Entity: "combo " + combo.Name, State: "empty", Op: "sell"}
			}
			for _, cl := range combo.Lines {
				if cl.Product == nil {
					return nil, nil, 0, &poserr.NotFoundError{Entity: "product", Ref: cl.ProductID.String()}
				}
				addDemand(cl.Product, cl.Quantity*line.Quantity)
			}
			if combo.TimeTier != nil {
				includedMinutes += combo.TimeTier.Minutes * line.Quantity
			}
			subtotal := combo.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			resolved = append(resolved, resolvedLine{
				kind:      model.LineCombo,
				comboID:   &combo.ID,
				name:      combo.Name,
				quantity:  line.Quantity,
				unitPrice: combo.Price,
				subtotal:  subtotal,
			})

		case model.LineLostCardFee:
			fee := s.lostCardFee
			if line.FeeAmount != nil {
				fee = *line.FeeAmount
			}
			if !fee.IsPositive() {
				return nil, nil, 0, &poserr.ConfigurationError{Msg: "lost-card fee must be positive"}
			}
			subtotal := fee.Mul(decimal.NewFromInt(int64(line.Quantity)))
			resolved = append(resolved, resolvedLine{
				kind:      model.LineLostCardFee,
				name:      "Lost card fee",
				quantity:  line.Quantity,
				unitPrice: fee,
				subtotal:  subtotal,
			})

		default:
			return nil, nil, 0, fmt.Errorf("unknown cart line kind %q", line.Kind)
		}
	}

	// All-or-nothing stock check: collect EVERY deficit, not just the first.
	var deficits []poserr.StockDeficit
	for _, d := range demands {
		if d.product.Stock < d.required {
			deficits = append(deficits, poserr.StockDeficit{
				ProductID: d.product.ID.String(),
				Name:      d.product.Name,
				Available: d.product.Stock,
				Required:  d.required,
			})
		}
	}
	if len(deficits) > 0 {
		return nil, nil, 0, &poserr.InsufficientStockError{Deficits: deficits}
	}

	return resolved, demands, includedMinutes, nil
}

// assertCardFree guards the mutual exclusion between pending sales and
// active time entries on one card.
func (s *saleService) assertCardFree(ctx context.Context, cardID string) error {
	pending, err := s.repo.FindPendingByCard(ctx, cardID)
	if err != nil {
		return err
	}
	if pending != nil {
		return &poserr.CardInUseError{CardID: cardID, Reason: "a pending sale is open on this card"}
	}
	entry, err := s.timeEntryRepo.FindActiveByCard(ctx, cardID)
	if err != nil {
		return err
	}
	if entry != nil {
		return &poserr.CardInUseError{CardID: cardID, Reason: "an active time entry exists for this card"}
	}
	return nil
}

// ── CreatePendingSale ────────────────────────────────────────────────────────

func (s *saleService) CreatePendingSale(ctx context.Context, req dto.CreatePendingSaleRequest) (*dto.SaleResponse, error) {
	if err := s.assertCardFree(ctx, req.CardID); err != nil {
		return nil, err
	}

	resolved, demands, includedMinutes, err := s.resolveCart(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cardID := req.CardID
	sale := &model.Sale{
		State:         model.SalePending,
		PaymentMethod: req.PaymentMethod,
		CardID:        &cardID,
		EntryAt:       &now,
		CustomerName:  req.CustomerName,
	}
	if includedMinutes > 0 {
		sale.IncludedMinutes = &includedMinutes
	}
	buildSaleLines(sale, resolved)

	if err := checkTotal(sale); err != nil {
		return nil, err
	}
	if err := s.persistSaleWithStock(ctx, sale, demands); err != nil {
		return nil, err
	}
	return saleToResponse(sale), nil
}

// ── CreateFinalizedSale ──────────────────────────────────────────────────────

func (s *saleService) CreateFinalizedSale(ctx context.Context, req dto.CreateFinalizedSaleRequest) (*dto.SaleResponse, error) {
	resolved, demands, _, err := s.resolveCart(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	sale := &model.Sale{
		State:         model.SaleFinalized,
		PaymentMethod: req.PaymentMethod,
	}
	buildSaleLines(sale, resolved)

	if err := checkTotal(sale); err != nil {
		return nil, err
	}
	if err := s.persistSaleWithStock(ctx, sale, demands); err != nil {
		return nil, err
	}

	s.enqueueReceipt(ctx, sale, req.CustomerEmail)
	return saleToResponse(sale), nil
}

// persistSaleWithStock writes the sale, decrements stock for every demand and
// journals the movements — one transaction, full rollback on any failure.
// Both backstops against concurrent requests surface here as domain errors:
// a losing insert on the pending-card index becomes CardInUseError, and the
// guarded decrement re-checks stock at UPDATE time, so a concurrent sale that
// won the race becomes InsufficientStockError.
func (s *saleService) persistSaleWithStock(ctx context.Context, sale *model.Sale, demands []*stockDemand) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, sale); err != nil {
			if errors.Is(err, repository.ErrPendingCardTaken) && sale.CardID != nil {
				return &poserr.CardInUseError{CardID: *sale.CardID, Reason: "a pending sale is open on this card"}
			}
			return err
		}
		for _, d := range demands {
			before := d.product.Stock
			if p, err := s.productRepo.FindByIDTx(tx, d.product.ID); err == nil {
				before = p.Stock
			}
			if err := s.productRepo.DecrementStockTx(tx, d.product.ID, d.required); err != nil {
				if err == repository.ErrStockConflict {
					return &poserr.InsufficientStockError{Deficits: []poserr.StockDeficit{{
						ProductID: d.product.ID.String(),
						Name:      d.product.Name,
						Available: before,
						Required:  d.required,
					}}}
				}
				return err
			}
			saleRef := sale.ID
			if err := s.stockMovRepo.CreateTx(tx, &model.StockMovement{
				ProductID:   d.product.ID,
				Kind:        "sale",
				Quantity:    -d.required,
				StockBefore: before,
				StockAfter:  before - d.required,
				Reason:      fmt.Sprintf("sale %s", sale.ID),
				RefID:       &saleRef,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// ── FinalizeSale ─────────────────────────────────────────────────────────────

// FinalizeSale closes the pending tab on cardID. Minutes beyond the combo's
// included allotment are billed through the pricing engine at the last-tier
// marginal rate (see pricing.ExcessCharge) and appended as a time_charge line.
func (s *saleService) FinalizeSale(ctx context.Context, req dto.FinalizeSaleRequest) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindPendingByCard(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, &poserr.NotFoundError{Entity: "pending sale", Ref: req.CardID}
	}

	now := s.now()
	included := 0
	if sale.IncludedMinutes != nil {
		included = *sale.IncludedMinutes
	}
	elapsed := 0
	if sale.EntryAt != nil {
		elapsed = pricing.ElapsedMinutes(*sale.EntryAt, now)
	}

	var excessLine *model.SaleLine
	if elapsed > included {
		tiers, err := s.catalog.GetActiveTimeTiers(ctx)
		if err != nil {
			return nil, err
		}
		charge, err := pricing.ExcessCharge(elapsed, included, tiers)
		if err != nil {
			return nil, err
		}
		if charge.IsPositive() {
			excessLine = &model.SaleLine{
				SaleID:    sale.ID,
				Kind:      model.LineTimeCharge,
				Name:      fmt.Sprintf("Excess time (%d min)", elapsed-included),
				Quantity:  1,
				UnitPrice: charge,
				Subtotal:  charge,
			}
			sale.Lines = append(sale.Lines, *excessLine)
			sale.Total = sale.Total.Add(charge)
		}
	}

	if err := checkTotal(sale); err != nil {
		return nil, err
	}

	sale.State = model.SaleFinalized
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if excessLine != nil {
			if err := s.repo.AppendLineTx(tx, excessLine); err != nil {
				return err
			}
		}
		return s.repo.UpdateTx(tx, sale)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.enqueueReceipt(ctx, sale, req.CustomerEmail)
	return saleToResponse(sale), nil
}

// ── CancelPendingSale ────────────────────────────────────────────────────────

// CancelPendingSale deletes the tab and restores every unit of stock the sale
// took out: product lines directly, combo lines through their constituent
// products.
func (s *saleService) CancelPendingSale(ctx context.Context, cardID string) error {
	sale, err := s.repo.FindPendingByCard(ctx, cardID)
	if err != nil {
		return err
	}
	if sale == nil {
		return &poserr.NotFoundError{Entity: "pending sale", Ref: cardID}
	}

	restores, err := s.stockRestores(ctx, sale)
	if err != nil {
		return err
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.applyRestores(tx, sale, restores, "cancel_restore"); err != nil {
			return err
		}
		return s.repo.DeleteTx(tx, sale.ID)
	})
}

// stockRestore is one pending stock increment derived from a sale line.
type stockRestore struct {
	productID uuid.UUID
	qty       int
}

// stockRestores maps sale lines back to the product units they consumed.
func (s *saleService) stockRestores(ctx context.Context, sale *model.Sale) ([]stockRestore, error) {
	return linesToRestores(ctx, s.comboRepo, sale.Lines)
}

func (s *saleService) applyRestores(tx *gorm.DB, sale *model.Sale, restores []stockRestore, kind string) error {
	return applyStockRestores(tx, s.productRepo, s.stockMovRepo, sale, restores, kind)
}

// linesToRestores is shared with the return engine: it resolves product and
// combo lines into per-product restore quantities. Time charges and fees
// have no stock effect.
func linesToRestores(ctx context.Context, comboRepo repository.ComboRepository, lines []model.SaleLine) ([]stockRestore, error) {
	var restores []stockRestore
	for _, line := range lines {
		switch line.Kind {
		case model.LineProduct:
			if line.ProductID != nil {
				restores = append(restores, stockRestore{productID: *line.ProductID, qty: line.Quantity})
			}
		case model.LineCombo:
			if line.ComboID == nil {
				continue
			}
			combo, err := comboRepo.FindByID(ctx, *line.ComboID)
			if err != nil {
				return nil, &poserr.NotFoundError{Entity: "combo", Ref: line.ComboID.String()}
			}
			for _, cl := range combo.Lines {
				restores = append(restores, stockRestore{productID: cl.ProductID, qty: cl.Quantity * line.Quantity})
			}
		}
	}
	return restores, nil
}

// applyStockRestores increments stock and journals one movement per restore.
func applyStockRestores(
	tx *gorm.DB,
	productRepo repository.ProductRepository,
	stockMovRepo repository.StockMovementRepository,
	sale *model.Sale,
	restores []stockRestore,
	kind string,
) error {
	for _, r := range restores {
		before := 0
		if p, err := productRepo.FindByIDTx(tx, r.productID); err == nil {
			before = p.Stock
		}
		if err := productRepo.IncrementStockTx(tx, r.productID, r.qty); err != nil {
			return err
		}
		saleRef := sale.ID
		if err := stockMovRepo.CreateTx(tx, &model.StockMovement{
			ProductID:   r.productID,
			Kind:        kind,
			Quantity:    r.qty,
			StockBefore: before,
			StockAfter:  before + r.qty,
			Reason:      fmt.Sprintf("sale %s", sale.ID),
			RefID:       &saleRef,
		}); err != nil {
			return err
		}
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, &poserr.NotFoundError{Entity: "sale", Ref: id.String()}
	}
	return saleToResponse(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// buildSaleLines attaches the resolved lines and sets the sale total to the
// line sum. Prices were frozen when the cart was resolved.
func buildSaleLines(sale *model.Sale, resolved []resolvedLine) {
	total := decimal.Zero
	for _, r := range resolved {
		sale.Lines = append(sale.Lines, model.SaleLine{
			Kind:      r.kind,
			ProductID: r.productID,
			ComboID:   r.comboID,
			Name:      r.name,
			Quantity:  r.quantity,
			UnitPrice: r.unitPrice,
			Subtotal:  r.subtotal,
		})
		total = total.Add(r.subtotal)
	}
	sale.Total = total
}

// enqueueReceipt hands the finalized sale to the async receipt worker.
// Best-effort: a queue failure never fails the sale.
func (s *saleService) enqueueReceipt(ctx context.Context, sale *model.Sale, customerEmail *string) {
	if s.dispatcher == nil {
		return
	}
	payload := map[string]interface{}{"sale_id": sale.ID.String()}
	if customerEmail != nil && *customerEmail != "" {
		payload["customer_email"] = *customerEmail
	}
	_ = s.dispatcher.EnqueueReceipt(ctx, payload)
}

func saleToResponse(sale *model.Sale) *dto.SaleResponse {
	lines := make([]dto.SaleLineResponse, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		lines = append(lines, dto.SaleLineResponse{
			ID:        l.ID.String(),
			Kind:      l.Kind,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	resp := &dto.SaleResponse{
		ID:              sale.ID.String(),
		State:           sale.State,
		PaymentMethod:   sale.PaymentMethod,
		CardID:          sale.CardID,
		CustomerName:    sale.CustomerName,
		IncludedMinutes: sale.IncludedMinutes,
		Lines:           lines,
		Total:           sale.Total,
		CreatedAt:       sale.CreatedAt.Format(timeFmt),
	}
	if sale.EntryAt != nil {
		t := sale.EntryAt.Format(timeFmt)
		resp.EntryAt = &t
	}
	return resp
}
