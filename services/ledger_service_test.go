package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taponce/taponce_backend/models"
)

func newLedgerFixture(balance float64) (*LedgerService, *fakeAgentRepo, *fakePayoutRepo, primitive.ObjectID) {
	agents := newFakeAgentRepo()
	payouts := &fakePayoutRepo{}
	ledger := NewLedgerService(agents, payouts, newFakeOverrideRepo())

	agent := &models.Agent{
		ID:               primitive.NewObjectID(),
		FullName:         "Rahul Verma",
		Status:           models.AgentActive,
		TotalEarnings:    balance,
		AvailableBalance: balance,
	}
	agents.put(agent)
	return ledger, agents, payouts, agent.ID
}

func TestRecordPayout(t *testing.T) {
	ledger, agents, payouts, agentID := newLedgerFixture(500)
	ctx := context.Background()

	payout, err := ledger.RecordPayout(ctx, agentID, &models.PayoutRequest{
		Amount:        200,
		PaymentMethod: models.PayoutUpi,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PayoutCompleted, payout.Status)
	assert.Equal(t, 200.0, payout.Amount)
	assert.Len(t, payouts.payouts, 1)

	agent, err := agents.FindByID(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, agent.AvailableBalance)
	assert.Equal(t, 500.0, agent.TotalEarnings)
}

func TestRecordPayoutRefusesOverdraft(t *testing.T) {
	ledger, agents, payouts, agentID := newLedgerFixture(500)
	ctx := context.Background()

	_, err := ledger.RecordPayout(ctx, agentID, &models.PayoutRequest{
		Amount:        500.01,
		PaymentMethod: models.PayoutCash,
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, payouts.payouts)

	agent, err := agents.FindByID(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, agent.AvailableBalance)
}

func TestRecordPayoutDrainsToZero(t *testing.T) {
	ledger, agents, _, agentID := newLedgerFixture(500)
	ctx := context.Background()

	_, err := ledger.RecordPayout(ctx, agentID, &models.PayoutRequest{Amount: 300, PaymentMethod: models.PayoutUpi})
	require.NoError(t, err)
	_, err = ledger.RecordPayout(ctx, agentID, &models.PayoutRequest{Amount: 200, PaymentMethod: models.PayoutBankTransfer})
	require.NoError(t, err)

	agent, err := agents.FindByID(ctx, agentID)
	require.NoError(t, err)
	assert.Zero(t, agent.AvailableBalance)

	// Any further payout, however small, is refused.
	_, err = ledger.RecordPayout(ctx, agentID, &models.PayoutRequest{Amount: 0.01, PaymentMethod: models.PayoutCash})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestRecordPayoutValidation(t *testing.T) {
	ledger, _, _, agentID := newLedgerFixture(500)
	ctx := context.Background()

	_, err := ledger.RecordPayout(ctx, agentID, &models.PayoutRequest{Amount: 0, PaymentMethod: models.PayoutUpi})
	assert.ErrorIs(t, err, ErrInvalidPayoutAmount)

	_, err = ledger.RecordPayout(ctx, agentID, &models.PayoutRequest{Amount: -10, PaymentMethod: models.PayoutUpi})
	assert.ErrorIs(t, err, ErrInvalidPayoutAmount)

	_, err = ledger.RecordPayout(ctx, agentID, &models.PayoutRequest{Amount: 100, PaymentMethod: "cheque"})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	_, err = ledger.RecordPayout(ctx, primitive.NewObjectID(), &models.PayoutRequest{Amount: 100, PaymentMethod: models.PayoutUpi})
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestRecordPayoutRestoresBalanceOnWriteFailure(t *testing.T) {
	ledger, agents, payouts, agentID := newLedgerFixture(500)
	payouts.failInsert = true

	_, err := ledger.RecordPayout(context.Background(), agentID, &models.PayoutRequest{
		Amount:        100,
		PaymentMethod: models.PayoutUpi,
	})
	require.Error(t, err)

	agent, err := agents.FindByID(context.Background(), agentID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, agent.AvailableBalance)
}

func TestConcurrentPayoutsNeverOverdraw(t *testing.T) {
	ledger, agents, _, agentID := newLedgerFixture(500)
	ctx := context.Background()

	// Ten racing payouts of 200 against a balance of 500: exactly two can
	// succeed.
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.RecordPayout(ctx, agentID, &models.PayoutRequest{
				Amount:        200,
				PaymentMethod: models.PayoutUpi,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientBalance)
		}
	}
	assert.Equal(t, 2, succeeded)

	agent, err := agents.FindByID(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, agent.AvailableBalance)
}

func TestRecordOverrideEarningIsIdempotentPerOrder(t *testing.T) {
	ledger, agents, _, _ := newLedgerFixture(0)
	ctx := context.Background()

	parent := &models.Agent{ID: primitive.NewObjectID(), Status: models.AgentActive}
	agents.put(parent)

	earning := &models.OverrideEarning{
		OrderID:       primitive.NewObjectID(),
		ParentAgentID: parent.ID,
		SubAgentID:    primitive.NewObjectID(),
		SalePrice:     1000,
		Amount:        20,
	}

	applied, err := ledger.RecordOverrideEarning(ctx, earning)
	require.NoError(t, err)
	assert.True(t, applied)

	// A retried approval presents the same order again; the credit must not
	// double-apply.
	applied, err = ledger.RecordOverrideEarning(ctx, &models.OverrideEarning{
		OrderID:       earning.OrderID,
		ParentAgentID: parent.ID,
		SubAgentID:    earning.SubAgentID,
		SalePrice:     1000,
		Amount:        20,
	})
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := agents.FindByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.TotalEarnings)
	assert.Equal(t, 20.0, got.AvailableBalance)
}

func TestSnapshot(t *testing.T) {
	ledger, _, _, agentID := newLedgerFixture(500)
	ctx := context.Background()

	_, err := ledger.RecordPayout(ctx, agentID, &models.PayoutRequest{Amount: 150, PaymentMethod: models.PayoutUpi})
	require.NoError(t, err)

	stats, err := ledger.Snapshot(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, stats.TotalEarnings)
	assert.Equal(t, 350.0, stats.AvailableBalance)
	assert.Equal(t, 150.0, stats.AmountReceived)

	_, err = ledger.Snapshot(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrAgentNotFound)
}
