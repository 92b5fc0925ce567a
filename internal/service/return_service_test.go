package service

import (
	"context"
	"testing"

	"playpos/internal/dto"
	"playpos/internal/model"
	"playpos/internal/poserr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// finalizeCart rings up a finalized walk-up sale for the given lines.
func finalizeCart(t *testing.T, env *testEnv, lines ...dto.CartLineRequest) *dto.SaleResponse {
	t.Helper()
	resp, err := env.saleSvc.CreateFinalizedSale(context.Background(), dto.CreateFinalizedSaleRequest{
		PaymentMethod: model.PaymentCash,
		Lines:         lines,
	})
	require.NoError(t, err)
	return resp
}

func TestReturnPartialRefundAndRestore(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 20)
	juice := env.products.add("Juice", 15, 10)
	ctx := context.Background()

	sale := finalizeCart(t, env,
		productLine(water.ID.String(), 4),
		productLine(juice.ID.String(), 2),
	)
	require.Equal(t, 16, water.Stock)

	resp, err := env.returnSvc.ReturnPartial(ctx, dto.ReturnPartialRequest{
		SaleID: sale.ID,
		Lines:  []dto.ReturnLineRequest{{LineID: sale.Lines[0].ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "20.00", resp.Refund.StringFixed(2))
	assert.False(t, resp.SaleDeleted)
	require.NotNil(t, resp.Sale)
	assert.Equal(t, "50.00", resp.Sale.Total.StringFixed(2)) // 70 − 20
	assert.Equal(t, 18, water.Stock)

	require.Len(t, resp.Sale.Lines, 2)
	assert.Equal(t, 2, resp.Sale.Lines[0].Quantity)
	assert.Equal(t, "20.00", resp.Sale.Lines[0].Subtotal.StringFixed(2))

	// Restore is journaled against the sale.
	movs, _ := env.stockMovs.ListByProduct(ctx, water.ID, 0)
	require.Len(t, movs, 2)
	assert.Equal(t, "return_restore", movs[1].Kind)
	assert.Equal(t, 2, movs[1].Quantity)
}

func TestReturnPartialFullLineRemovesLine(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 20)
	juice := env.products.add("Juice", 15, 10)
	ctx := context.Background()

	sale := finalizeCart(t, env,
		productLine(water.ID.String(), 4),
		productLine(juice.ID.String(), 2),
	)

	resp, err := env.returnSvc.ReturnPartial(ctx, dto.ReturnPartialRequest{
		SaleID: sale.ID,
		Lines:  []dto.ReturnLineRequest{{LineID: sale.Lines[1].ID, Quantity: 2}},
	})
	require.NoError(t, err)

	// A full-line return refunds the stored subtotal exactly.
	assert.Equal(t, "30.00", resp.Refund.StringFixed(2))
	assert.False(t, resp.SaleDeleted)
	require.NotNil(t, resp.Sale)
	require.Len(t, resp.Sale.Lines, 1)
	assert.Equal(t, "Water", resp.Sale.Lines[0].Name)
	assert.Equal(t, 10, juice.Stock)
}

func TestReturnPartialEmptyingSaleDeletesIt(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 20)
	ctx := context.Background()

	sale := finalizeCart(t, env, productLine(water.ID.String(), 3))

	resp, err := env.returnSvc.ReturnPartial(ctx, dto.ReturnPartialRequest{
		SaleID: sale.ID,
		Lines:  []dto.ReturnLineRequest{{LineID: sale.Lines[0].ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.True(t, resp.SaleDeleted)
	assert.Nil(t, resp.Sale)
	assert.Equal(t, 20, water.Stock)

	_, err = env.saleSvc.GetSale(ctx, mustUUID(t, sale.ID))
	var nf *poserr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestReturnPartialOverReturnRejected(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 20)
	ctx := context.Background()

	sale := finalizeCart(t, env, productLine(water.ID.String(), 2))

	_, err := env.returnSvc.ReturnPartial(ctx, dto.ReturnPartialRequest{
		SaleID: sale.ID,
		Lines:  []dto.ReturnLineRequest{{LineID: sale.Lines[0].ID, Quantity: 3}},
	})
	var qtyErr *poserr.InvalidQuantityError
	require.ErrorAs(t, err, &qtyErr)
	assert.Equal(t, 3, qtyErr.Requested)
	assert.Equal(t, 2, qtyErr.Available)

	// Rejected return leaves everything untouched.
	assert.Equal(t, 18, water.Stock)
	kept, err := env.saleSvc.GetSale(ctx, mustUUID(t, sale.ID))
	require.NoError(t, err)
	assert.Equal(t, "20.00", kept.Total.StringFixed(2))
}

func TestReturnOfPendingSaleRejected(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 20)
	ctx := context.Background()

	pending, err := env.saleSvc.CreatePendingSale(ctx, pendingSaleReq("card-1", productLine(water.ID.String(), 1)))
	require.NoError(t, err)

	_, err = env.returnSvc.ReturnFull(ctx, dto.ReturnFullRequest{SaleID: pending.ID})
	var stateErr *poserr.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, model.SalePending, stateErr.State)
}

func TestReturnFullRestoresComboConstituents(t *testing.T) {
	env := newTestEnv()
	tiers := env.seedTiers()
	juice := env.products.add("Juice", 15, 10)
	combo := env.seedCombo("Hour + juice", 60, juice, 2, tiers[0])
	ctx := context.Background()

	sale := finalizeCart(t, env, comboLine(combo.ID.String(), 1))
	require.Equal(t, 8, juice.Stock)

	resp, err := env.returnSvc.ReturnFull(ctx, dto.ReturnFullRequest{SaleID: sale.ID})
	require.NoError(t, err)
	assert.True(t, resp.SaleDeleted)
	assert.Equal(t, "60.00", resp.Refund.StringFixed(2))
	assert.Equal(t, 10, juice.Stock)
}

func TestReturnUnknownSale(t *testing.T) {
	env := newTestEnv()
	_, err := env.returnSvc.ReturnFull(context.Background(),
		dto.ReturnFullRequest{SaleID: "0b9f8f3e-1f2d-4d27-9c36-abc123abc123"})
	var nf *poserr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
