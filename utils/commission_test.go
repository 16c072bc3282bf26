package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateCommission(t *testing.T) {
	tests := []struct {
		name           string
		salePrice      float64
		msp            float64
		baseCommission float64
		wantBonus      float64
		wantTotal      float64
		wantBelowMsp   bool
	}{
		{
			name:           "sale above msp earns base plus half the margin",
			salePrice:      699,
			msp:            600,
			baseCommission: 100,
			wantBonus:      49.5,
			wantTotal:      149.5,
		},
		{
			name:           "sale exactly at msp earns base only",
			salePrice:      600,
			msp:            600,
			baseCommission: 100,
			wantBonus:      0,
			wantTotal:      100,
		},
		{
			name:           "sale below msp earns nothing and is flagged",
			salePrice:      550,
			msp:            600,
			baseCommission: 100,
			wantBonus:      0,
			wantTotal:      0,
			wantBelowMsp:   true,
		},
		{
			name:           "below msp flag ignores the base commission size",
			salePrice:      599,
			msp:            600,
			baseCommission: 5000,
			wantBonus:      0,
			wantTotal:      0,
			wantBelowMsp:   true,
		},
		{
			name:           "custom base commission",
			salePrice:      1000,
			msp:            800,
			baseCommission: 150,
			wantBonus:      100,
			wantTotal:      250,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateCommission(tt.salePrice, tt.msp, tt.baseCommission)
			require.NoError(t, err)
			assert.Equal(t, tt.baseCommission, got.BaseCommission)
			assert.InDelta(t, tt.wantBonus, got.NegotiationBonus, 1e-9)
			assert.InDelta(t, tt.wantTotal, got.TotalCommission, 1e-9)
			assert.Equal(t, tt.wantBelowMsp, got.IsBelowMsp)
			assert.GreaterOrEqual(t, got.TotalCommission, 0.0)
		})
	}
}

func TestCalculateCommissionRejectsBadInput(t *testing.T) {
	_, err := CalculateCommission(0, 600, 100)
	assert.ErrorIs(t, err, ErrInvalidSalePrice)

	_, err = CalculateCommission(-50, 600, 100)
	assert.ErrorIs(t, err, ErrInvalidSalePrice)

	_, err = CalculateCommission(700, 0, 100)
	assert.ErrorIs(t, err, ErrInvalidMsp)

	_, err = CalculateCommission(700, -600, 100)
	assert.ErrorIs(t, err, ErrInvalidMsp)

	_, err = CalculateCommission(700, 600, 0)
	assert.ErrorIs(t, err, ErrInvalidBaseCommission)
}

func TestCalculateOverrideCommission(t *testing.T) {
	got, err := CalculateOverrideCommission(1000)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, got, 1e-9)

	got, err = CalculateOverrideCommission(0)
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = CalculateOverrideCommission(549.5)
	require.NoError(t, err)
	assert.InDelta(t, 10.99, got, 1e-9)

	_, err = CalculateOverrideCommission(-1)
	assert.ErrorIs(t, err, ErrInvalidSalePrice)
}
