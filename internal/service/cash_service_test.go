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

// seedFinalizedSale plants a finalized sale dated at the frozen clock so the
// drawer window picks it up.
func (e *testEnv) seedFinalizedSale(paymentMethod string, total int64) {
	_ = e.sales.CreateTx(nil, &model.Sale{
		State:         model.SaleFinalized,
		PaymentMethod: paymentMethod,
		Total:         decimalFromInt(total),
		CreatedAt:     e.now,
	})
}

func openDrawer(t *testing.T, env *testEnv, openingCash int64) *dto.SessionResponse {
	t.Helper()
	resp, err := env.cashSvc.OpenSession(context.Background(), dto.OpenSessionRequest{
		OpeningCash: decimalFromInt(openingCash),
	})
	require.NoError(t, err)
	return resp
}

func TestOpenSessionRejectsSecondOpen(t *testing.T) {
	env := newTestEnv()
	first := openDrawer(t, env, 500)

	_, err := env.cashSvc.OpenSession(context.Background(), dto.OpenSessionRequest{
		OpeningCash: decimalFromInt(100),
	})
	var openErr *poserr.SessionAlreadyOpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, first.ID, openErr.SessionID)
}

func TestMovementWithoutOpenSession(t *testing.T) {
	env := newTestEnv()
	_, err := env.cashSvc.RecordMovement(context.Background(), dto.MovementRequest{
		Kind:   model.MovementDeposit,
		Amount: decimalFromInt(50),
		Memo:   "change fund",
	})
	var noSession *poserr.NoOpenSessionError
	assert.ErrorAs(t, err, &noSession)

	_, err = env.cashSvc.ComputeSummary(context.Background())
	assert.ErrorAs(t, err, &noSession)
}

func TestComputeSummaryPartitionsByPaymentMethod(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	openDrawer(t, env, 500)

	env.seedFinalizedSale(model.PaymentCash, 200)
	env.seedFinalizedSale(model.PaymentCard, 100)

	_, err := env.cashSvc.RecordMovement(ctx, dto.MovementRequest{
		Kind: model.MovementDeposit, Amount: decimalFromInt(50), Memo: "change fund",
	})
	require.NoError(t, err)
	_, err = env.cashSvc.RecordMovement(ctx, dto.MovementRequest{
		Kind: model.MovementWithdrawal, Amount: decimalFromInt(30), Memo: "supplier tip",
	})
	require.NoError(t, err)

	summary, err := env.cashSvc.ComputeSummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, "200.00", summary.CashSalesTotal.StringFixed(2))
	assert.Equal(t, 1, summary.CashSalesCount)
	assert.Equal(t, "100.00", summary.CardSalesTotal.StringFixed(2))
	assert.Equal(t, 1, summary.CardSalesCount)
	assert.Equal(t, "50.00", summary.DepositsTotal.StringFixed(2))
	assert.Equal(t, "30.00", summary.WithdrawalsTotal.StringFixed(2))

	// 500 + 200 + 50 − 30. Card sales never touch the drawer.
	assert.Equal(t, "720.00", summary.ExpectedCash.StringFixed(2))
	assert.Len(t, summary.Movements, 2)
}

func TestCloseSessionSnapshotsAndSeals(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	openDrawer(t, env, 500)

	env.seedFinalizedSale(model.PaymentCash, 200)
	_, err := env.cashSvc.RecordMovement(ctx, dto.MovementRequest{
		Kind: model.MovementDeposit, Amount: decimalFromInt(50), Memo: "change fund",
	})
	require.NoError(t, err)
	_, err = env.cashSvc.RecordMovement(ctx, dto.MovementRequest{
		Kind: model.MovementWithdrawal, Amount: decimalFromInt(30), Memo: "supplier tip",
	})
	require.NoError(t, err)

	env.advance(4 * time.Hour)
	closed, err := env.cashSvc.CloseSession(ctx, dto.CloseSessionRequest{
		CountedCash: decimalFromInt(700),
		User:        "ana",
		Notes:       strPtr("till light"),
	})
	require.NoError(t, err)

	assert.True(t, closed.Closed)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, "720.00", closed.ExpectedCash.StringFixed(2))
	require.NotNil(t, closed.CountedCash)
	assert.Equal(t, "700.00", closed.CountedCash.StringFixed(2))
	assert.Equal(t, "-20.00", closed.Variance.StringFixed(2))
	require.NotNil(t, closed.ClosedBy)
	assert.Equal(t, "ana", *closed.ClosedBy)
	require.NotNil(t, closed.Notes)
	assert.Equal(t, "till light", *closed.Notes)

	// Sealed: no more movements, but a fresh session may open.
	_, err = env.cashSvc.RecordMovement(ctx, dto.MovementRequest{
		Kind: model.MovementDeposit, Amount: decimalFromInt(10), Memo: "too late",
	})
	var noSession *poserr.NoOpenSessionError
	assert.ErrorAs(t, err, &noSession)

	_, err = env.cashSvc.OpenSession(ctx, dto.OpenSessionRequest{OpeningCash: decimalFromInt(700)})
	assert.NoError(t, err)
}

func TestCloseSessionExactCountHasZeroVariance(t *testing.T) {
	env := newTestEnv()
	openDrawer(t, env, 300)

	closed, err := env.cashSvc.CloseSession(context.Background(), dto.CloseSessionRequest{
		CountedCash: decimalFromInt(300),
		User:        "ana",
	})
	require.NoError(t, err)
	assert.True(t, closed.Variance.IsZero())
}

func TestGetHistoryFiltersByDate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	openDrawer(t, env, 100)
	_, err := env.cashSvc.CloseSession(ctx, dto.CloseSessionRequest{
		CountedCash: decimalFromInt(100), User: "ana",
	})
	require.NoError(t, err)

	env.advance(48 * time.Hour)
	openDrawer(t, env, 200)

	all, err := env.cashSvc.GetHistory(ctx, dto.HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Only the later session falls in the window.
	later, err := env.cashSvc.GetHistory(ctx, dto.HistoryFilter{From: "2025-06-17"})
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, "200.00", later[0].OpeningCash.StringFixed(2))
}

func TestOpenSessionInsertConflictMapsToAlreadyOpen(t *testing.T) {
	env := newTestEnv()

	// A concurrent open wins between the pre-check and the write: the
	// single-open index rejects the insert.
	env.cash.createErr = repository.ErrSessionOpenConflict

	_, err := env.cashSvc.OpenSession(context.Background(), dto.OpenSessionRequest{
		OpeningCash: decimalFromInt(500),
	})
	var openErr *poserr.SessionAlreadyOpenError
	require.ErrorAs(t, err, &openErr)
}
