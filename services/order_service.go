package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taponce/taponce_backend/models"
	"github.com/taponce/taponce_backend/repositories"
	"github.com/taponce/taponce_backend/utils"
)

// ErrInvalidStatus is returned for a transition request naming an unknown
// status.
var ErrInvalidStatus = errors.New("unknown order status")

// ErrInvalidPaymentStatus is returned for an unknown payment status.
var ErrInvalidPaymentStatus = errors.New("invalid payment status")

// OrderService owns the order lifecycle: creation, the fulfillment status
// machine, and the commission snapshots taken at approval.
//
// Commission figures are snapshotted exactly once, by whichever request wins
// the conditional approved transition. They use the MSP captured on the order
// at creation time (mspAtOrder) and the agent's base commission as of the
// approval, and are never recalculated afterwards.
type OrderService struct {
	orders  repositories.OrderRepository
	agents  repositories.AgentRepository
	catalog repositories.CatalogRepository
	ledger  *LedgerService
}

// NewOrderService creates an order service over the given repositories.
func NewOrderService(orders repositories.OrderRepository, agents repositories.AgentRepository, catalog repositories.CatalogRepository, ledger *LedgerService) *OrderService {
	return &OrderService{orders: orders, agents: agents, catalog: catalog, ledger: ledger}
}

// effectiveMsp resolves the minimum selling price that applies to an agent
// for a design: the agent's override when one exists, the design's BaseMsp
// otherwise.
func (s *OrderService) effectiveMsp(ctx context.Context, agentID *primitive.ObjectID, design *models.CardDesign) (float64, error) {
	if agentID != nil {
		override, err := s.catalog.FindAgentMsp(ctx, *agentID, design.ID)
		if err != nil {
			return 0, err
		}
		if override != nil {
			return override.MspAmount, nil
		}
	}
	return design.BaseMsp, nil
}

// CreateOrder creates an agent-attributed order in pending_approval. The MSP
// applicable to the agent is snapshotted onto the order; commission fields
// stay zero until approval.
func (s *OrderService) CreateOrder(ctx context.Context, agentID primitive.ObjectID, req *models.CreateOrderRequest) (*models.Order, error) {
	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	if agent.Status != models.AgentActive {
		return nil, ErrAgentInactive
	}

	order, err := s.buildOrder(ctx, req, agent)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// CreateDirectOrder creates a website order with no agent attribution. Direct
// orders never earn commission and must carry a shipping address.
func (s *OrderService) CreateDirectOrder(ctx context.Context, req *models.CreateDirectOrderRequest) (*models.Order, error) {
	order, err := s.buildOrder(ctx, &req.CreateOrderRequest, nil)
	if err != nil {
		return nil, err
	}
	addr := req.ShippingAddress
	order.IsDirectSale = true
	order.ShippingAddress = &addr
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) buildOrder(ctx context.Context, req *models.CreateOrderRequest, agent *models.Agent) (*models.Order, error) {
	if req.SalePrice <= 0 {
		return nil, utils.ErrInvalidSalePrice
	}
	if !req.PaymentStatus.IsValid() {
		return nil, ErrInvalidPaymentStatus
	}

	designID, err := primitive.ObjectIDFromHex(req.CardDesignID)
	if err != nil {
		return nil, ErrDesignNotFound
	}
	design, err := s.catalog.FindDesignByID(ctx, designID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return nil, ErrDesignNotFound
		}
		return nil, err
	}
	if design.Status != models.CardDesignActive {
		return nil, ErrDesignInactive
	}

	var agentID *primitive.ObjectID
	if agent != nil {
		agentID = &agent.ID
	}
	msp, err := s.effectiveMsp(ctx, agentID, design)
	if err != nil {
		return nil, err
	}

	number, err := s.orders.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		OrderNumber:      number,
		CustomerName:     req.CustomerName,
		CustomerCompany:  req.CustomerCompany,
		CustomerPhone:    req.CustomerPhone,
		CustomerEmail:    req.CustomerEmail,
		CustomerWhatsapp: req.CustomerWhatsapp,
		CardDesign: models.OrderCardDesign{
			ID:         design.ID,
			Name:       design.Name,
			PreviewURL: design.PreviewURL,
		},
		CardDesignID:        design.ID,
		Line1Text:           req.Line1Text,
		Line2Text:           req.Line2Text,
		MspAtOrder:          msp,
		SalePrice:           req.SalePrice,
		Status:              models.StatusPendingApproval,
		PaymentStatus:       req.PaymentStatus,
		IsBelowMsp:          req.SalePrice < msp,
		SpecialInstructions: req.SpecialInstructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if agent != nil {
		order.AgentID = &agent.ID
		order.Agent = &models.OrderAgent{
			ID:           agent.ID,
			FullName:     agent.FullName,
			ReferralCode: agent.ReferralCode,
		}
	}
	return order, nil
}

// GetOrder loads one order.
func (s *OrderService) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if err == repositories.ErrNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// Transition moves an order to the requested status, enforcing the pipeline
// rules. A request whose target equals the current status is acknowledged
// without re-applying side effects, which makes client retries safe. The
// transition either fully applies or not at all.
func (s *OrderService) Transition(ctx context.Context, id primitive.ObjectID, req *models.UpdateOrderStatusRequest) (*models.Order, error) {
	if !req.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == req.Status {
		return order, nil
	}

	switch req.Status {
	case models.StatusApproved:
		return s.approve(ctx, order, false, req.PortfolioSlug, req.AdminNotes)
	case models.StatusRejected:
		if req.RejectionReason == "" {
			return nil, ErrMissingRejectionReason
		}
	case models.StatusShipped:
		if req.TrackingNumber == "" {
			return nil, ErrMissingTrackingNumber
		}
	}

	if !order.Status.CanTransitionTo(req.Status) {
		return nil, &TransitionError{From: order.Status, To: req.Status}
	}

	now := time.Now()
	patch := repositories.OrderPatch{
		Status:          req.Status,
		TrackingNumber:  req.TrackingNumber,
		PortfolioSlug:   req.PortfolioSlug,
		AdminNotes:      req.AdminNotes,
		RejectionReason: req.RejectionReason,
	}
	switch req.Status {
	case models.StatusShipped:
		patch.ShippedAt = &now
	case models.StatusDelivered:
		patch.DeliveredAt = &now
	case models.StatusPaid:
		patch.PaidAt = &now
	}

	applied, err := s.orders.ApplyTransition(ctx, order.ID, order.Status, patch)
	if err != nil {
		return nil, err
	}
	if !applied {
		return s.reloadAfterLostRace(ctx, order.ID, req.Status)
	}

	// Side effects belong to the request that won the conditional update, so
	// retries never double-apply them.
	if req.Status == models.StatusDelivered {
		if order.AgentID != nil {
			if err := s.agents.IncTotalSales(ctx, *order.AgentID); err != nil {
				return nil, err
			}
		}
		if err := s.catalog.IncDesignSales(ctx, order.CardDesignID); err != nil {
			return nil, err
		}
	}

	return s.GetOrder(ctx, order.ID)
}

// Approve performs the ordinary approval. It refuses orders priced below the
// applicable MSP; those need ApproveBelowMsp.
func (s *OrderService) Approve(ctx context.Context, id primitive.ObjectID, portfolioSlug, adminNotes string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.approve(ctx, order, false, portfolioSlug, adminNotes)
}

// ApproveBelowMsp is the explicit admin override for orders priced below the
// MSP. The order is approved with zero selling commission and the parent
// override withheld; the below-MSP flag is recorded on the order.
func (s *OrderService) ApproveBelowMsp(ctx context.Context, id primitive.ObjectID, adminNotes string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.approve(ctx, order, true, "", adminNotes)
}

// approve runs the approved transition: it computes the commission snapshot,
// applies the conditional status update, and credits the ledger only when
// this request actually won the update.
func (s *OrderService) approve(ctx context.Context, order *models.Order, override bool, portfolioSlug, adminNotes string) (*models.Order, error) {
	if order.Status == models.StatusApproved {
		return order, nil
	}
	if order.Status != models.StatusPendingApproval {
		return nil, &TransitionError{From: order.Status, To: models.StatusApproved}
	}

	var (
		commission  float64
		overrideAmt float64
		belowMsp    = order.SalePrice < order.MspAtOrder
		agent       *models.Agent
	)

	if order.AgentID != nil {
		var err error
		agent, err = s.agents.FindByID(ctx, *order.AgentID)
		if err != nil {
			if err == repositories.ErrNotFound {
				return nil, ErrAgentNotFound
			}
			return nil, err
		}

		base := agent.BaseCommission
		if base <= 0 {
			base = utils.DefaultBaseCommission
		}
		breakdown, err := utils.CalculateCommission(order.SalePrice, order.MspAtOrder, base)
		if err != nil {
			return nil, err
		}
		belowMsp = breakdown.IsBelowMsp
		commission = breakdown.TotalCommission

		// Override commission is withheld for below-MSP sales, consistent
		// with the sub-agent's own commission being withheld.
		if agent.ParentAgentID != nil && !belowMsp {
			overrideAmt, err = utils.CalculateOverrideCommission(order.SalePrice)
			if err != nil {
				return nil, err
			}
		}
	}

	if belowMsp && !override {
		return nil, ErrBelowMspApproval
	}
	if !belowMsp && override {
		return nil, ErrOverrideNotRequired
	}

	now := time.Now()
	patch := repositories.OrderPatch{
		Status:             models.StatusApproved,
		CommissionAmount:   &commission,
		OverrideCommission: &overrideAmt,
		IsBelowMsp:         &belowMsp,
		PortfolioSlug:      portfolioSlug,
		AdminNotes:         adminNotes,
		ApprovedAt:         &now,
	}
	applied, err := s.orders.ApplyTransition(ctx, order.ID, models.StatusPendingApproval, patch)
	if err != nil {
		return nil, err
	}
	if !applied {
		return s.reloadAfterLostRace(ctx, order.ID, models.StatusApproved)
	}

	if agent != nil {
		if err := s.ledger.CreditCommission(ctx, agent.ID, commission); err != nil {
			return nil, err
		}
		if overrideAmt > 0 {
			_, err := s.ledger.RecordOverrideEarning(ctx, &models.OverrideEarning{
				OrderID:       order.ID,
				ParentAgentID: *agent.ParentAgentID,
				SubAgentID:    agent.ID,
				SalePrice:     order.SalePrice,
				Amount:        overrideAmt,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return s.GetOrder(ctx, order.ID)
}

// reloadAfterLostRace handles a conditional update that matched nothing: if
// a concurrent request already moved the order to the wanted status, the
// retry is acknowledged; anything else is an illegal transition.
func (s *OrderService) reloadAfterLostRace(ctx context.Context, id primitive.ObjectID, wanted models.OrderStatus) (*models.Order, error) {
	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == wanted {
		return current, nil
	}
	return nil, &TransitionError{From: current.Status, To: wanted}
}
