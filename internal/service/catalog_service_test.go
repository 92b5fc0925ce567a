package service

import (
	"context"
	"testing"

	"playpos/internal/dto"
	"playpos/internal/poserr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustStockJournalsBothDirections(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 5)
	ctx := context.Background()

	require.NoError(t, env.catalog.AdjustStock(ctx, water.ID, 7, "delivery"))
	assert.Equal(t, 12, water.Stock)

	require.NoError(t, env.catalog.AdjustStock(ctx, water.ID, -2, "breakage"))
	assert.Equal(t, 10, water.Stock)

	movs, _ := env.stockMovs.ListByProduct(ctx, water.ID, 0)
	require.Len(t, movs, 2)
	assert.Equal(t, "adjustment", movs[0].Kind)
	assert.Equal(t, 7, movs[0].Quantity)
	assert.Equal(t, "delivery", movs[0].Reason)
	assert.Equal(t, -2, movs[1].Quantity)
}

func TestAdjustStockRejectsNegativeResult(t *testing.T) {
	env := newTestEnv()
	water := env.products.add("Water", 10, 3)

	err := env.catalog.AdjustStock(context.Background(), water.ID, -5, "audit")
	var stockErr *poserr.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, water.Stock)
}

func TestGetActiveTimeTiersRejectsUnusableTable(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Empty table.
	_, err := env.catalog.GetActiveTimeTiers(ctx)
	var cfgErr *poserr.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	// Non-increasing price across tiers.
	tiers := env.seedTiers()
	tiers[1].Price = decimalFromInt(40)
	_, err = env.catalog.GetActiveTimeTiers(ctx)
	assert.ErrorAs(t, err, &cfgErr)
}

func TestComboAvailabilityFollowsConstituentStock(t *testing.T) {
	env := newTestEnv()
	juice := env.products.add("Juice", 15, 7)
	combo := env.seedCombo("Juice pack", 40, juice, 2, nil)

	resp, err := env.catalog.GetCombo(context.Background(), combo.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.AvailableStock) // floor(7/2)
}

func TestCreateComboRequiresContent(t *testing.T) {
	env := newTestEnv()
	_, err := env.catalog.CreateCombo(context.Background(), dto.ComboRequest{
		Name:  "Empty",
		Price: decimalFromInt(10),
	})
	var cfgErr *poserr.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
