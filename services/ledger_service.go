package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taponce/taponce_backend/models"
	"github.com/taponce/taponce_backend/repositories"
)

// LedgerService maintains the per-agent money aggregates: totalEarnings,
// availableBalance and the payout stream. Every balance mutation goes through
// a single conditional update at the datastore, which serializes concurrent
// requests for the same agent.
type LedgerService struct {
	agents    repositories.AgentRepository
	payouts   repositories.PayoutRepository
	overrides repositories.OverrideEarningRepository
}

// NewLedgerService creates a ledger service over the given repositories.
func NewLedgerService(agents repositories.AgentRepository, payouts repositories.PayoutRepository, overrides repositories.OverrideEarningRepository) *LedgerService {
	return &LedgerService{agents: agents, payouts: payouts, overrides: overrides}
}

// RecordPayout pays out part of an agent's available balance. The debit is
// conditional on the stored balance covering the amount, so the balance can
// never go negative and two concurrent payouts cannot both succeed past the
// available funds. Nothing is mutated when the payout is refused.
func (s *LedgerService) RecordPayout(ctx context.Context, agentID primitive.ObjectID, req *models.PayoutRequest) (*models.Payout, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidPayoutAmount
	}
	if !req.PaymentMethod.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}

	if _, err := s.agents.FindByID(ctx, agentID); err != nil {
		if err == repositories.ErrNotFound {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}

	ok, err := s.agents.DebitBalance(ctx, agentID, req.Amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientBalance
	}

	payout := &models.Payout{
		AgentID:       agentID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		AdminNotes:    req.AdminNotes,
		Status:        models.PayoutCompleted,
		CreatedAt:     time.Now(),
	}
	if err := s.payouts.Insert(ctx, payout); err != nil {
		// The debit already happened; restore the balance so the refused
		// payout leaves no trace.
		if creditErr := s.agents.CreditBalance(ctx, agentID, req.Amount); creditErr != nil {
			return nil, creditErr
		}
		return nil, err
	}
	return payout, nil
}

// CreditCommission adds an earned commission to an agent's totals. Commission
// is earned at order approval, not at payment.
func (s *LedgerService) CreditCommission(ctx context.Context, agentID primitive.ObjectID, amount float64) error {
	if amount <= 0 {
		return nil
	}
	return s.agents.CreditEarnings(ctx, agentID, amount)
}

// RecordOverrideEarning credits a parent agent's override commission for one
// sub-agent order. It is idempotent per order: the earning document is keyed
// on the order id, and the credit only happens for the insert that actually
// lands. It reports whether this call applied the credit.
func (s *LedgerService) RecordOverrideEarning(ctx context.Context, earning *models.OverrideEarning) (bool, error) {
	if earning.Amount <= 0 {
		return false, nil
	}
	if earning.CreatedAt.IsZero() {
		earning.CreatedAt = time.Now()
	}
	inserted, err := s.overrides.InsertOnce(ctx, earning)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}
	if err := s.agents.CreditEarnings(ctx, earning.ParentAgentID, earning.Amount); err != nil {
		return false, err
	}
	return true, nil
}

// Snapshot returns the read-only ledger view of one agent for the finance and
// dashboard surfaces.
func (s *LedgerService) Snapshot(ctx context.Context, agentID primitive.ObjectID) (*models.AgentStats, error) {
	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return &models.AgentStats{
		TotalSales:       agent.TotalSales,
		TotalEarnings:    agent.TotalEarnings,
		AvailableBalance: agent.AvailableBalance,
		AmountReceived:   agent.TotalEarnings - agent.AvailableBalance,
	}, nil
}
