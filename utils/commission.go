package utils

import (
	"errors"

	"github.com/taponce/taponce_backend/models"
)

// Commission settings. Never hardcode these at call sites.
const (
	// DefaultBaseCommission is the flat amount (₹) an agent earns per sale
	// when no per-agent base commission is configured.
	DefaultBaseCommission = 100.0

	// NegotiationBonusRate is the agent's share of every rupee negotiated
	// above the minimum selling price.
	NegotiationBonusRate = 0.5

	// OverrideCommissionRate is the flat rate credited to a referring parent
	// agent on a sub-agent's sale price.
	OverrideCommissionRate = 0.02
)

var (
	// ErrInvalidSalePrice is returned when a sale price is zero or negative.
	ErrInvalidSalePrice = errors.New("sale price must be greater than zero")

	// ErrInvalidMsp is returned when a minimum selling price is zero or
	// negative.
	ErrInvalidMsp = errors.New("msp must be greater than zero")

	// ErrInvalidBaseCommission is returned when a base commission is zero or
	// negative.
	ErrInvalidBaseCommission = errors.New("base commission must be greater than zero")
)

// CalculateCommission computes the commission owed to the selling agent for a
// single sale.
//
// Sales at or above the MSP earn the base commission plus half of everything
// negotiated above the floor. Sales below the MSP earn nothing until the
// admin approves the order through the explicit below-MSP override; the
// breakdown reports that condition via IsBelowMsp instead of failing.
//
// The function is pure and deterministic and never produces a negative
// commission. Out-of-range inputs are rejected rather than coerced.
func CalculateCommission(salePrice, msp, baseCommission float64) (models.CommissionBreakdown, error) {
	if salePrice <= 0 {
		return models.CommissionBreakdown{}, ErrInvalidSalePrice
	}
	if msp <= 0 {
		return models.CommissionBreakdown{}, ErrInvalidMsp
	}
	if baseCommission <= 0 {
		return models.CommissionBreakdown{}, ErrInvalidBaseCommission
	}

	if salePrice < msp {
		return models.CommissionBreakdown{
			BaseCommission:   baseCommission,
			NegotiationBonus: 0,
			TotalCommission:  0,
			IsBelowMsp:       true,
		}, nil
	}

	bonus := (salePrice - msp) * NegotiationBonusRate
	return models.CommissionBreakdown{
		BaseCommission:   baseCommission,
		NegotiationBonus: bonus,
		TotalCommission:  baseCommission + bonus,
		IsBelowMsp:       false,
	}, nil
}

// CalculateOverrideCommission computes the flat 2% override commission a
// parent agent earns on a sub-agent's sale price. It does not depend on
// whether the sale was below MSP; whether the credit is withheld for
// below-MSP sales is the order pipeline's decision.
func CalculateOverrideCommission(salePrice float64) (float64, error) {
	if salePrice < 0 {
		return 0, ErrInvalidSalePrice
	}
	return salePrice * OverrideCommissionRate, nil
}
