package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taponce/taponce_backend/models"
)

type orderFixture struct {
	svc     *OrderService
	ledger  *LedgerService
	orders  *fakeOrderRepo
	agents  *fakeAgentRepo
	catalog *fakeCatalogRepo
	payouts *fakePayoutRepo

	parent *models.Agent
	agent  *models.Agent
	design *models.CardDesign
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	f := &orderFixture{
		orders:  newFakeOrderRepo(),
		agents:  newFakeAgentRepo(),
		catalog: newFakeCatalogRepo(),
		payouts: &fakePayoutRepo{},
	}
	f.ledger = NewLedgerService(f.agents, f.payouts, newFakeOverrideRepo())
	f.svc = NewOrderService(f.orders, f.agents, f.catalog, f.ledger)

	f.parent = &models.Agent{
		ID:             primitive.NewObjectID(),
		FullName:       "Priya Sharma",
		ReferralCode:   "AGT-PARENT",
		BaseCommission: 100,
		Status:         models.AgentActive,
	}
	f.agents.put(f.parent)

	f.agent = &models.Agent{
		ID:             primitive.NewObjectID(),
		FullName:       "Rahul Verma",
		ReferralCode:   "AGT-RAHUL1",
		BaseCommission: 100,
		ParentAgentID:  &f.parent.ID,
		Status:         models.AgentActive,
	}
	f.agents.put(f.agent)

	f.design = &models.CardDesign{
		ID:      primitive.NewObjectID(),
		Name:    "Matte Black",
		BaseMsp: 600,
		Status:  models.CardDesignActive,
	}
	f.catalog.put(f.design)

	return f
}

func (f *orderFixture) createOrder(t *testing.T, salePrice float64) *models.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), f.agent.ID, &models.CreateOrderRequest{
		CustomerName:  "Anita Desai",
		CustomerPhone: "+919876543210",
		CustomerEmail: "anita@example.com",
		CardDesignID:  f.design.ID.Hex(),
		SalePrice:     salePrice,
		PaymentStatus: models.PaymentAdvancePaid,
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrderSnapshotsMsp(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	first := f.createOrder(t, 699)
	assert.Equal(t, int64(12001), first.OrderNumber)
	assert.Equal(t, models.StatusPendingApproval, first.Status)
	assert.Equal(t, 600.0, first.MspAtOrder)
	assert.False(t, first.IsBelowMsp)
	assert.Zero(t, first.CommissionAmount)

	// An agent-specific MSP override beats the design default.
	f.catalog.setAgentMsp(f.agent.ID, f.design.ID, 550)
	second := f.createOrder(t, 560)
	assert.Equal(t, int64(12002), second.OrderNumber)
	assert.Equal(t, 550.0, second.MspAtOrder)
	assert.False(t, second.IsBelowMsp)

	// Editing the design MSP later must not touch existing orders.
	f.design.BaseMsp = 900
	f.catalog.put(f.design)
	reloaded, err := f.svc.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 600.0, reloaded.MspAtOrder)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, primitive.NewObjectID(), &models.CreateOrderRequest{
		CardDesignID:  f.design.ID.Hex(),
		SalePrice:     700,
		PaymentStatus: models.PaymentPending,
	})
	assert.ErrorIs(t, err, ErrAgentNotFound)

	inactive := &models.Agent{ID: primitive.NewObjectID(), Status: models.AgentInactive}
	f.agents.put(inactive)
	_, err = f.svc.CreateOrder(ctx, inactive.ID, &models.CreateOrderRequest{
		CardDesignID:  f.design.ID.Hex(),
		SalePrice:     700,
		PaymentStatus: models.PaymentPending,
	})
	assert.ErrorIs(t, err, ErrAgentInactive)

	_, err = f.svc.CreateOrder(ctx, f.agent.ID, &models.CreateOrderRequest{
		CardDesignID:  primitive.NewObjectID().Hex(),
		SalePrice:     700,
		PaymentStatus: models.PaymentPending,
	})
	assert.ErrorIs(t, err, ErrDesignNotFound)

	_, err = f.svc.CreateOrder(ctx, f.agent.ID, &models.CreateOrderRequest{
		CardDesignID:  f.design.ID.Hex(),
		SalePrice:     700,
		PaymentStatus: models.PaymentStatus("emi"),
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentStatus)

	f.design.Status = models.CardDesignInactive
	f.catalog.put(f.design)
	_, err = f.svc.CreateOrder(ctx, f.agent.ID, &models.CreateOrderRequest{
		CardDesignID:  f.design.ID.Hex(),
		SalePrice:     700,
		PaymentStatus: models.PaymentPending,
	})
	assert.ErrorIs(t, err, ErrDesignInactive)
}

func TestApproveSnapshotsCommission(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 699)
	approved, err := f.svc.Approve(ctx, order.ID, "rahul-anita", "looks good")
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.InDelta(t, 149.5, approved.CommissionAmount, 1e-9)
	assert.InDelta(t, 699*0.02, approved.OverrideCommission, 1e-9)
	assert.False(t, approved.IsBelowMsp)
	assert.Equal(t, "rahul-anita", approved.PortfolioSlug)

	// Commission is earned at approval: the seller and the parent are both
	// credited immediately.
	seller, err := f.agents.FindByID(ctx, f.agent.ID)
	require.NoError(t, err)
	assert.InDelta(t, 149.5, seller.TotalEarnings, 1e-9)
	assert.InDelta(t, 149.5, seller.AvailableBalance, 1e-9)

	parent, err := f.agents.FindByID(ctx, f.parent.ID)
	require.NoError(t, err)
	assert.InDelta(t, 699*0.02, parent.TotalEarnings, 1e-9)
}

func TestApproveAtMspEarnsBaseOnly(t *testing.T) {
	f := newOrderFixture(t)

	order := f.createOrder(t, 600)
	approved, err := f.svc.Approve(context.Background(), order.ID, "", "")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, approved.CommissionAmount, 1e-9)
}

func TestApproveRetryDoesNotDoubleCredit(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 1000)
	_, err := f.svc.Approve(ctx, order.ID, "", "")
	require.NoError(t, err)

	// A client retry of the same approval is acknowledged without
	// re-applying ledger side effects.
	again, err := f.svc.Approve(ctx, order.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, again.Status)

	seller, err := f.agents.FindByID(ctx, f.agent.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100+(1000-600)*0.5, seller.TotalEarnings, 1e-9)

	parent, err := f.agents.FindByID(ctx, f.parent.ID)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, parent.TotalEarnings, 1e-9)
}

func TestApproveBelowMspRequiresOverride(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 550)
	assert.True(t, order.IsBelowMsp)

	_, err := f.svc.Approve(ctx, order.ID, "", "")
	assert.ErrorIs(t, err, ErrBelowMspApproval)

	unchanged, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, unchanged.Status)

	// The explicit override approves with zero commission and the parent
	// override withheld.
	approved, err := f.svc.ApproveBelowMsp(ctx, order.ID, "customer negotiated hard")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.True(t, approved.IsBelowMsp)
	assert.Zero(t, approved.CommissionAmount)
	assert.Zero(t, approved.OverrideCommission)

	seller, err := f.agents.FindByID(ctx, f.agent.ID)
	require.NoError(t, err)
	assert.Zero(t, seller.TotalEarnings)

	parent, err := f.agents.FindByID(ctx, f.parent.ID)
	require.NoError(t, err)
	assert.Zero(t, parent.TotalEarnings)
}

func TestApproveBelowMspOnNormalOrder(t *testing.T) {
	f := newOrderFixture(t)

	order := f.createOrder(t, 700)
	_, err := f.svc.ApproveBelowMsp(context.Background(), order.ID, "")
	assert.ErrorIs(t, err, ErrOverrideNotRequired)
}

func TestApproveUsesCurrentBaseCommission(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 600)

	// The base commission in force at approval time is what gets
	// snapshotted...
	f.agent.BaseCommission = 150
	f.agents.put(f.agent)
	approved, err := f.svc.Approve(ctx, order.ID, "", "")
	require.NoError(t, err)
	assert.InDelta(t, 150.0, approved.CommissionAmount, 1e-9)

	// ...and later edits never rewrite it.
	f.agent.BaseCommission = 999
	f.agents.put(f.agent)
	reloaded, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.InDelta(t, 150.0, reloaded.CommissionAmount, 1e-9)
}

func TestDirectOrderEarnsNoCommission(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateDirectOrder(ctx, &models.CreateDirectOrderRequest{
		CreateOrderRequest: models.CreateOrderRequest{
			CustomerName:  "Walk In",
			CustomerPhone: "+919812345678",
			CustomerEmail: "walkin@example.com",
			CardDesignID:  f.design.ID.Hex(),
			SalePrice:     800,
			PaymentStatus: models.PaymentPaid,
		},
		ShippingAddress: models.ShippingAddress{
			Flat: "12A", Building: "Sunrise", Street: "MG Road",
			City: "Pune", State: "MH", Pincode: "411001",
		},
	})
	require.NoError(t, err)
	assert.True(t, order.IsDirectSale)
	assert.Nil(t, order.AgentID)
	require.NotNil(t, order.ShippingAddress)

	approved, err := f.svc.Approve(ctx, order.ID, "walkin", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Zero(t, approved.CommissionAmount)
	assert.Zero(t, approved.OverrideCommission)
}

func TestTransitionFullPipeline(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 699)
	_, err := f.svc.Approve(ctx, order.ID, "", "")
	require.NoError(t, err)

	for _, status := range []models.OrderStatus{models.StatusPrinting, models.StatusPrinted, models.StatusReadyToShip} {
		_, err = f.svc.Transition(ctx, order.ID, &models.UpdateOrderStatusRequest{Status: status})
		require.NoError(t, err, "to %s", status)
	}

	// Shipping needs a tracking number.
	_, err = f.svc.Transition(ctx, order.ID, &models.UpdateOrderStatusRequest{Status: models.StatusShipped})
	assert.ErrorIs(t, err, ErrMissingTrackingNumber)

	shipped, err := f.svc.Transition(ctx, order.ID, &models.UpdateOrderStatusRequest{
		Status:         models.StatusShipped,
		TrackingNumber: "AWB123456789",
	})
	require.NoError(t, err)
	require.NotNil(t, shipped.ShippedAt)
	assert.Equal(t, "AWB123456789", shipped.TrackingNumber)

	delivered, err := f.svc.Transition(ctx, order.ID, &models.UpdateOrderStatusRequest{Status: models.StatusDelivered})
	require.NoError(t, err)
	require.NotNil(t, delivered.DeliveredAt)

	seller, err := f.agents.FindByID(ctx, f.agent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seller.TotalSales)

	design, err := f.catalog.FindDesignByID(ctx, f.design.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), design.TotalSales)

	// A repeated delivered request is acknowledged without incrementing the
	// counters again.
	_, err = f.svc.Transition(ctx, order.ID, &models.UpdateOrderStatusRequest{Status: models.StatusDelivered})
	require.NoError(t, err)
	seller, err = f.agents.FindByID(ctx, f.agent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seller.TotalSales)

	paid, err := f.svc.Transition(ctx, order.ID, &models.UpdateOrderStatusRequest{Status: models.StatusPaid})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	// paid is terminal.
	_, err = f.svc.Transition(ctx, order.ID, &models.UpdateOrderStatusRequest{Status: models.StatusDelivered})
	var te *TransitionError
	assert.ErrorAs(t, err, &te)
}

func TestTransitionRejectsSkipping(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 699)
	_, err := f.svc.Transition(ctx, order.ID, &models.UpdateOrderStatusRequest{Status: models.StatusPrinting})
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.StatusPendingApproval, te.From)
	assert.Equal(t, models.StatusPrinting, te.To)

	_, err = f.svc.Transition(ctx, order.ID, &models.UpdateOrderStatusRequest{Status: "express_ship"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRejectAndCancelWindow(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, 699)

	_, err := f.svc.Transition(ctx, order.ID, &models.UpdateOrderStatusRequest{Status: models.StatusRejected})
	assert.ErrorIs(t, err, ErrMissingRejectionReason)

	rejected, err := f.svc.Transition(ctx, order.ID, &models.UpdateOrderStatusRequest{
		Status:          models.StatusRejected,
		RejectionReason: "duplicate order",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "duplicate order", rejected.RejectionReason)

	// Once production has started neither rejection nor cancellation is
	// possible.
	inProduction := f.createOrder(t, 699)
	_, err = f.svc.Approve(ctx, inProduction.ID, "", "")
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, inProduction.ID, &models.UpdateOrderStatusRequest{Status: models.StatusPrinting})
	require.NoError(t, err)

	var te *TransitionError
	_, err = f.svc.Transition(ctx, inProduction.ID, &models.UpdateOrderStatusRequest{
		Status:          models.StatusRejected,
		RejectionReason: "too late",
	})
	assert.ErrorAs(t, err, &te)

	_, err = f.svc.Transition(ctx, inProduction.ID, &models.UpdateOrderStatusRequest{Status: models.StatusCancelled})
	assert.ErrorAs(t, err, &te)
}
