package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taponce/taponce_backend/models"
	"github.com/taponce/taponce_backend/repositories"
)

// In-memory repository fakes mirroring the conditional-update semantics of
// the mongo implementations.

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
	seq    int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (r *fakeOrderRepo) Insert(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) NextOrderNumber(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return repositories.OrderNumberBase + r.seq, nil
}

func (r *fakeOrderRepo) ApplyTransition(_ context.Context, id primitive.ObjectID, from models.OrderStatus, patch repositories.OrderPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = patch.Status
	order.UpdatedAt = time.Now()
	if patch.CommissionAmount != nil {
		order.CommissionAmount = *patch.CommissionAmount
	}
	if patch.OverrideCommission != nil {
		order.OverrideCommission = *patch.OverrideCommission
	}
	if patch.IsBelowMsp != nil {
		order.IsBelowMsp = *patch.IsBelowMsp
	}
	if patch.TrackingNumber != "" {
		order.TrackingNumber = patch.TrackingNumber
	}
	if patch.PortfolioSlug != "" {
		order.PortfolioSlug = patch.PortfolioSlug
	}
	if patch.AdminNotes != "" {
		order.AdminNotes = patch.AdminNotes
	}
	if patch.RejectionReason != "" {
		order.RejectionReason = patch.RejectionReason
	}
	if patch.ApprovedAt != nil {
		order.ApprovedAt = patch.ApprovedAt
	}
	if patch.ShippedAt != nil {
		order.ShippedAt = patch.ShippedAt
	}
	if patch.DeliveredAt != nil {
		order.DeliveredAt = patch.DeliveredAt
	}
	if patch.PaidAt != nil {
		order.PaidAt = patch.PaidAt
	}
	return true, nil
}

type fakeAgentRepo struct {
	mu     sync.Mutex
	agents map[primitive.ObjectID]*models.Agent
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{agents: make(map[primitive.ObjectID]*models.Agent)}
}

func (r *fakeAgentRepo) put(agent *models.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *agent
	r.agents[agent.ID] = &cp
}

func (r *fakeAgentRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *agent
	return &cp, nil
}

func (r *fakeAgentRepo) CreditEarnings(_ context.Context, id primitive.ObjectID, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok {
		return repositories.ErrNotFound
	}
	agent.TotalEarnings += amount
	agent.AvailableBalance += amount
	return nil
}

func (r *fakeAgentRepo) DebitBalance(_ context.Context, id primitive.ObjectID, amount float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok || agent.AvailableBalance < amount {
		return false, nil
	}
	agent.AvailableBalance -= amount
	return true, nil
}

func (r *fakeAgentRepo) CreditBalance(_ context.Context, id primitive.ObjectID, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok {
		return repositories.ErrNotFound
	}
	agent.AvailableBalance += amount
	return nil
}

func (r *fakeAgentRepo) IncTotalSales(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok {
		return repositories.ErrNotFound
	}
	agent.TotalSales++
	return nil
}

type fakeCatalogRepo struct {
	mu      sync.Mutex
	designs map[primitive.ObjectID]*models.CardDesign
	msps    map[[2]primitive.ObjectID]float64
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		designs: make(map[primitive.ObjectID]*models.CardDesign),
		msps:    make(map[[2]primitive.ObjectID]float64),
	}
}

func (r *fakeCatalogRepo) put(design *models.CardDesign) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *design
	r.designs[design.ID] = &cp
}

func (r *fakeCatalogRepo) setAgentMsp(agentID, designID primitive.ObjectID, amount float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msps[[2]primitive.ObjectID{agentID, designID}] = amount
}

func (r *fakeCatalogRepo) FindDesignByID(_ context.Context, id primitive.ObjectID) (*models.CardDesign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	design, ok := r.designs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *design
	return &cp, nil
}

func (r *fakeCatalogRepo) FindAgentMsp(_ context.Context, agentID, cardDesignID primitive.ObjectID) (*models.AgentMsp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	amount, ok := r.msps[[2]primitive.ObjectID{agentID, cardDesignID}]
	if !ok {
		return nil, nil
	}
	return &models.AgentMsp{AgentID: agentID, CardDesignID: cardDesignID, MspAmount: amount}, nil
}

func (r *fakeCatalogRepo) IncDesignSales(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	design, ok := r.designs[id]
	if !ok {
		return repositories.ErrNotFound
	}
	design.TotalSales++
	return nil
}

type fakePayoutRepo struct {
	mu         sync.Mutex
	payouts    []models.Payout
	failInsert bool
}

func (r *fakePayoutRepo) Insert(_ context.Context, payout *models.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInsert {
		return errors.New("insert failed")
	}
	if payout.ID.IsZero() {
		payout.ID = primitive.NewObjectID()
	}
	r.payouts = append(r.payouts, *payout)
	return nil
}

type fakeOverrideRepo struct {
	mu      sync.Mutex
	byOrder map[primitive.ObjectID]models.OverrideEarning
}

func newFakeOverrideRepo() *fakeOverrideRepo {
	return &fakeOverrideRepo{byOrder: make(map[primitive.ObjectID]models.OverrideEarning)}
}

func (r *fakeOverrideRepo) InsertOnce(_ context.Context, earning *models.OverrideEarning) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byOrder[earning.OrderID]; exists {
		return false, nil
	}
	if earning.ID.IsZero() {
		earning.ID = primitive.NewObjectID()
	}
	r.byOrder[earning.OrderID] = *earning
	return true, nil
}
