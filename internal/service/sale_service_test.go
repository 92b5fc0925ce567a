package service

import (
	"context"
	"testing"
	"time"

	"playpos/internal/dto"
	"playpos/internal/model"
	"playpos/internal/poserr"
	"playpos/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingSaleReq(cardID string, lines ...dto.CartLineRequest) dto.CreatePendingSaleRequest {
	return dto.CreatePendingSaleRequest{
		CardID:        cardID,
		PaymentMethod: model.PaymentCash,
		Lines:         lines,
	}
}

func productLine(id string, qty int) dto.CartLineRequest {
	return dto.CartLineRequest{Kind: model.LineProduct, ProductID: strPtr(id), Quantity: qty}
}

func comboLine(id string, qty int) dto.CartLineRequest {
	return dto.CartLineRequest{Kind: model.LineCombo, ComboID: strPtr(id), Quantity: qty}
}

func TestCreatePendingSaleCardExclusivity(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 20)
	ctx := context.Background()

	_, err := env.saleSvc.CreatePendingSale(ctx, pendingSaleReq("card-1", productLine(water.ID.String(), 1)))
	require.NoError(t, err)

	_, err = env.saleSvc.CreatePendingSale(ctx, pendingSaleReq("card-1", productLine(water.ID.String(), 1)))
	var cardErr *poserr.CardInUseError
	require.ErrorAs(t, err, &cardErr)
	assert.Equal(t, "card-1", cardErr.CardID)

	// A different card is unaffected.
	_, err = env.saleSvc.CreatePendingSale(ctx, pendingSaleReq("card-2", productLine(water.ID.String(), 1)))
	assert.NoError(t, err)
}

func TestCreatePendingSaleRejectsCardWithActiveTimeEntry(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 20)
	ctx := context.Background()

	_, err := env.timeSvc.Start(ctx, dto.StartTimeEntryRequest{CardID: "card-9"})
	require.NoError(t, err)

	_, err = env.saleSvc.CreatePendingSale(ctx, pendingSaleReq("card-9", productLine(water.ID.String(), 1)))
	var cardErr *poserr.CardInUseError
	assert.ErrorAs(t, err, &cardErr)
}

func TestCreateCancelRoundTripConservesStock(t *testing.T) {
	env := newTestEnv()
	tiers := env.seedTiers()
	water := env.products.add("Water", 10, 20)
	juice := env.products.add("Juice", 15, 10)
	combo := env.seedCombo("Hour + juice", 60, juice, 2, tiers[0])
	ctx := context.Background()

	_, err := env.saleSvc.CreatePendingSale(ctx, pendingSaleReq("card-1",
		productLine(water.ID.String(), 3),
		comboLine(combo.ID.String(), 2),
	))
	require.NoError(t, err)
	assert.Equal(t, 17, water.Stock)
	assert.Equal(t, 6, juice.Stock) // 2 per combo × qty 2

	require.NoError(t, env.saleSvc.CancelPendingSale(ctx, "card-1"))
	assert.Equal(t, 20, water.Stock)
	assert.Equal(t, 10, juice.Stock)

	// Both directions were journaled.
	movs, _ := env.stockMovs.ListByProduct(ctx, juice.ID, 0)
	require.Len(t, movs, 2)
	assert.Equal(t, "sale", movs[0].Kind)
	assert.Equal(t, -4, movs[0].Quantity)
	assert.Equal(t, "cancel_restore", movs[1].Kind)
	assert.Equal(t, 4, movs[1].Quantity)
}

func TestCreatePendingSaleEnumeratesAllDeficits(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 2)
	juice := env.products.add("Juice", 15, 1)
	ctx := context.Background()

	_, err := env.saleSvc.CreatePendingSale(ctx, pendingSaleReq("card-1",
		productLine(water.ID.String(), 5),
		productLine(juice.ID.String(), 3),
	))
	var stockErr *poserr.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Deficits, 2)

	// Nothing was committed.
	assert.Equal(t, 2, water.Stock)
	assert.Equal(t, 1, juice.Stock)
	pending, _ := env.sales.FindPendingByCard(ctx, "card-1")
	assert.Nil(t, pending)
}

func TestCreatePendingSaleAggregatesDemandAcrossLines(t *testing.T) {
	env := newTestEnv()
	juice := env.products.add("Juice", 15, 5)
	combo := env.seedCombo("Juice pack", 40, juice, 3, nil)
	ctx := context.Background()

	// 3 direct + 3 via combo = 6 needed, only 5 on hand.
	_, err := env.saleSvc.CreatePendingSale(ctx, pendingSaleReq("card-1",
		productLine(juice.ID.String(), 3),
		comboLine(combo.ID.String(), 1),
	))
	var stockErr *poserr.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Deficits, 1)
	assert.Equal(t, 6, stockErr.Deficits[0].Required)
	assert.Equal(t, 5, stockErr.Deficits[0].Available)
}

func TestFinalizeSaleBillsExcessMinutes(t *testing.T) {
	env := newTestEnv()
	tiers := env.seedTiers()
	juice := env.products.add("Juice", 15, 10)
	combo := env.seedCombo("Hour + juice", 60, juice, 1, tiers[0]) // 60 included minutes
	ctx := context.Background()

	_, err := env.saleSvc.CreatePendingSale(ctx, pendingSaleReq("card-1", comboLine(combo.ID.String(), 1)))
	require.NoError(t, err)

	// 90 elapsed − 60 included = 30 excess minutes at the last-tier marginal
	// rate (85−70)/(120−90) = 0.50/min → 15.00.
	env.advance(90 * time.Minute)
	resp, err := env.saleSvc.FinalizeSale(ctx, dto.FinalizeSaleRequest{CardID: "card-1"})
	require.NoError(t, err)

	assert.Equal(t, model.SaleFinalized, resp.State)
	require.Len(t, resp.Lines, 2)
	assert.Equal(t, model.LineTimeCharge, resp.Lines[1].Kind)
	assert.Equal(t, "15.00", resp.Lines[1].Subtotal.StringFixed(2))
	assert.Equal(t, "75.00", resp.Total.StringFixed(2))

	// The tab is gone: the card can open a new one.
	pending, _ := env.sales.FindPendingByCard(ctx, "card-1")
	assert.Nil(t, pending)
}

func TestFinalizeSaleWithinIncludedMinutesAddsNoCharge(t *testing.T) {
	env := newTestEnv()
	tiers := env.seedTiers()
	juice := env.products.add("Juice", 15, 10)
	combo := env.seedCombo("Hour + juice", 60, juice, 1, tiers[0])
	ctx := context.Background()

	_, err := env.saleSvc.CreatePendingSale(ctx, pendingSaleReq("card-1", comboLine(combo.ID.String(), 1)))
	require.NoError(t, err)

	env.advance(45 * time.Minute)
	resp, err := env.saleSvc.FinalizeSale(ctx, dto.FinalizeSaleRequest{CardID: "card-1"})
	require.NoError(t, err)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "60.00", resp.Total.StringFixed(2))
}

func TestFinalizeSaleUnknownCard(t *testing.T) {
	env := newTestEnv()
	_, err := env.saleSvc.FinalizeSale(context.Background(), dto.FinalizeSaleRequest{CardID: "ghost"})
	var nf *poserr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCreateFinalizedSaleTotalsAndStock(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 20)
	ctx := context.Background()

	resp, err := env.saleSvc.CreateFinalizedSale(ctx, dto.CreateFinalizedSaleRequest{
		PaymentMethod: model.PaymentCard,
		Lines: []dto.CartLineRequest{
			productLine(water.ID.String(), 4),
			{Kind: model.LineLostCardFee, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.SaleFinalized, resp.State)
	assert.Equal(t, 16, water.Stock)

	// 4×10 + configured lost-card fee 500.
	assert.Equal(t, "540.00", resp.Total.StringFixed(2))

	sum := decimalFromInt(0)
	for _, l := range resp.Lines {
		sum = sum.Add(l.Subtotal)
	}
	assert.True(t, resp.Total.Equal(sum), "total must equal line sum")
}

func TestCancelUnknownPendingSale(t *testing.T) {
	env := newTestEnv()
	err := env.saleSvc.CancelPendingSale(context.Background(), "ghost")
	var nf *poserr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCreatePendingSaleRejectsInactiveProduct(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 20)
	water.Active = false

	_, err := env.saleSvc.CreatePendingSale(context.Background(),
		pendingSaleReq("card-1", productLine(water.ID.String(), 1)))
	var stateErr *poserr.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestCreatePendingSaleInsertConflictMapsToCardInUse(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 20)
	ctx := context.Background()

	// The pre-check passes, but the insert loses the race on the
	// pending-card index and comes back as the repository sentinel.
	env.sales.createErr = repository.ErrPendingCardTaken

	_, err := env.saleSvc.CreatePendingSale(ctx, pendingSaleReq("card-1", productLine(water.ID.String(), 2)))
	var cardErr *poserr.CardInUseError
	require.ErrorAs(t, err, &cardErr)
	assert.Equal(t, "card-1", cardErr.CardID)

	// The insert fails before any decrement, nothing is committed.
	assert.Equal(t, 20, water.Stock)
}
