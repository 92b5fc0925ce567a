package service

import (
	"context"

	"playpos/internal/dto"
	"playpos/internal/model"
	"playpos/internal/poserr"
	"playpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReturnService reverses finalized sales, partially or in full. Inventory is
// restored for product and combo lines; time charges and fees carry no stock
// effect. When a return empties the sale, the sale row is deleted.
type ReturnService interface {
	ReturnPartial(ctx context.Context, req dto.ReturnPartialRequest) (*dto.ReturnResponse, error)
	ReturnFull(ctx context.Context, req dto.ReturnFullRequest) (*dto.ReturnResponse, error)
}

type returnService struct {
	saleRepo     repository.SaleRepository
	productRepo  repository.ProductRepository
	comboRepo    repository.ComboRepository
	stockMovRepo repository.StockMovementRepository
}

func NewReturnService(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	comboRepo repository.ComboRepository,
	stockMovRepo repository.StockMovementRepository,
) ReturnService {
	return &returnService{
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		comboRepo:    comboRepo,
		stockMovRepo: stockMovRepo,
	}
}

// lineReturn is one validated return instruction against a concrete line.
type lineReturn struct {
	line   *model.SaleLine
	qty    int
	refund decimal.Decimal
	remove bool
}

func (s *returnService) ReturnPartial(ctx context.Context, req dto.ReturnPartialRequest) (*dto.ReturnResponse, error) {
	saleID, err := uuid.Parse(req.SaleID)
	if err != nil {
		return nil, &poserr.NotFoundError{Entity: "sale", Ref: req.SaleID}
	}
	quantities := make(map[uuid.UUID]int, len(req.Lines))
	for _, l := range req.Lines {
		lineID, err := uuid.Parse(l.LineID)
		if err != nil {
			return nil, &poserr.NotFoundError{Entity: "sale line", Ref: l.LineID}
		}
		quantities[lineID] += l.Quantity
	}
	return s.execute(ctx, saleID, quantities, false)
}

func (s *returnService) ReturnFull(ctx context.Context, req dto.ReturnFullRequest) (*dto.ReturnResponse, error) {
	saleID, err := uuid.Parse(req.SaleID)
	if err != nil {
		return nil, &poserr.NotFoundError{Entity: "sale", Ref: req.SaleID}
	}
	return s.execute(ctx, saleID, nil, true)
}

// execute validates the whole return against the sale, then applies it in one
// transaction. Nothing is mutated until every requested line and quantity has
// been checked, so a rejected return leaves the sale untouched.
func (s *returnService) execute(ctx context.Context, saleID uuid.UUID, quantities map[uuid.UUID]int, full bool) (*dto.ReturnResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, &poserr.NotFoundError{Entity: "sale", Ref: saleID.String()}
	}
	if sale.State != model.SaleFinalized {
		return nil, &poserr.InvalidStateError{Entity: "sale", State: sale.State, Op: "return"}
	}

	returns, err := s.planReturns(sale, quantities, full)
	if err != nil {
		return nil, err
	}

	refund := decimal.Zero
	for _, r := range returns {
		refund = refund.Add(r.refund)
	}

	remaining := len(sale.Lines)
	for _, r := range returns {
		if r.remove {
			remaining--
		}
	}
	deleteSale := full || remaining == 0

	txErr := runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
		for _, r := range returns {
			restores, err := lineRestores(ctx, s.comboRepo, r.line, r.qty)
			if err != nil {
				return err
			}
			if err := applyStockRestores(tx, s.productRepo, s.stockMovRepo, sale, restores, "return_restore"); err != nil {
				return err
			}
			if deleteSale {
				continue
			}
			if r.remove {
				if err := s.saleRepo.DeleteLineTx(tx, r.line.ID); err != nil {
					return err
				}
			} else {
				r.line.Quantity -= r.qty
				r.line.Subtotal = r.line.Subtotal.Sub(r.refund)
				if err := s.saleRepo.UpdateLineTx(tx, r.line); err != nil {
					return err
				}
			}
		}
		if deleteSale {
			return s.saleRepo.DeleteTx(tx, sale.ID)
		}
		sale.Total = sale.Total.Sub(refund)
		return s.saleRepo.UpdateTx(tx, sale)
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := &dto.ReturnResponse{
		SaleID:      sale.ID.String(),
		Refund:      refund,
		SaleDeleted: deleteSale,
	}
	if !deleteSale {
		pruned := sale.Lines[:0]
		for i := range sale.Lines {
			if !returnedFully(returns, sale.Lines[i].ID) {
				pruned = append(pruned, sale.Lines[i])
			}
		}
		sale.Lines = pruned
		resp.Sale = saleToResponse(sale)
	}
	return resp, nil
}

// planReturns resolves requested quantities against the sale's lines.
// Refunds are proportional, subtotal/quantity × qty, except a full-line
// return refunds the stored subtotal exactly so rounding drift cannot
// leave a cent behind.
func (s *returnService) planReturns(sale *model.Sale, quantities map[uuid.UUID]int, full bool) ([]lineReturn, error) {
	var returns []lineReturn

	if full {
		for i := range sale.Lines {
			line := &sale.Lines[i]
			returns = append(returns, lineReturn{
				line:   line,
				qty:    line.Quantity,
				refund: line.Subtotal,
				remove: true,
			})
		}
		return returns, nil
	}

	for lineID, qty := range quantities {
		line := findLine(sale, lineID)
		if line == nil {
			return nil, &poserr.NotFoundError{Entity: "sale line", Ref: lineID.String()}
		}
		if qty < 1 || qty > line.Quantity {
			return nil, &poserr.InvalidQuantityError{
				Ref:       line.Name,
				Requested: qty,
				Available: line.Quantity,
			}
		}
		var refund decimal.Decimal
		remove := qty == line.Quantity
		if remove {
			refund = line.Subtotal
		} else {
			perUnit := line.Subtotal.Div(decimal.NewFromInt(int64(line.Quantity)))
			refund = perUnit.Mul(decimal.NewFromInt(int64(qty))).Round(2)
		}
		returns = append(returns, lineReturn{line: line, qty: qty, refund: refund, remove: remove})
	}
	return returns, nil
}

// lineRestores maps one returned line back to product stock increments.
func lineRestores(ctx context.Context, comboRepo repository.ComboRepository, line *model.SaleLine, qty int) ([]stockRestore, error) {
	scaled := *line
	scaled.Quantity = qty
	return linesToRestores(ctx, comboRepo, []model.SaleLine{scaled})
}

func findLine(sale *model.Sale, lineID uuid.UUID) *model.SaleLine {
	for i := range sale.Lines {
		if sale.Lines[i].ID == lineID {
			return &sale.Lines[i]
		}
	}
	return nil
}

func returnedFully(returns []lineReturn, lineID uuid.UUID) bool {
	for _, r := range returns {
		if r.remove && r.line.ID == lineID {
			return true
		}
	}
	return false
}
