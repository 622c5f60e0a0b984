package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchaseRule(t *testing.T) *EarningRule {
	t.Helper()
	return NewEarningRule(
		"Default Purchase Rule",
		PURCHASE,
		decimal.NewFromInt(1),
		UnitTypeDollar,
		decimal.NewFromInt(1),
	)
}

func TestEarningRule_CalculatePoints_Dollar(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		want   int64
	}{
		{name: "exact multiple", amount: 5000, want: 5},
		{name: "below one unit", amount: 999, want: 0},
		{name: "just above one unit", amount: 1001, want: 1},
		{name: "zero amount", amount: 0, want: 0},
		{name: "one unit", amount: 1000, want: 1},
	}
	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rule := purchaseRule(t)
			got := rule.CalculatePoints(decimal.NewFromInt(tt.amount), "")

			assert.Equal(t, tt.want, got.Int64(), "points mismatch")
		})
	}
}

func TestEarningRule_CalculatePoints_Flat(t *testing.T) {
	rule := NewEarningRule(
		"Referral Bonus Rule",
		REFERRAL,
		decimal.NewFromInt(500),
		"ACTION",
		decimal.NewFromInt(1),
	)

	// Flat rules ignore the transaction amount entirely.
	assert.Equal(t, int64(500), rule.CalculatePoints(decimal.Zero, "").Int64())
	assert.Equal(t, int64(500), rule.CalculatePoints(decimal.NewFromInt(123456), "").Int64())
}

func TestEarningRule_CalculatePoints_Multiplier(t *testing.T) {
	rule := NewEarningRule(
		"Double Points Weekend",
		PURCHASE,
		decimal.NewFromInt(1),
		UnitTypeDollar,
		decimal.NewFromInt(2),
	)

	got := rule.CalculatePoints(decimal.NewFromInt(5000), "")
	assert.Equal(t, int64(10), got.Int64())
}

func TestEarningRule_CalculatePoints_MaxPointsCap(t *testing.T) {
	rule := purchaseRule(t)

	limit, err := NewPointsFromInt(10)
	require.NoError(t, err)
	rule.SetMaxPoints(limit)

	// 50000 would award 50 points uncapped.
	got := rule.CalculatePoints(decimal.NewFromInt(50000), "")
	assert.Equal(t, int64(10), got.Int64())

	// Below the cap the award is untouched.
	got = rule.CalculatePoints(decimal.NewFromInt(5000), "")
	assert.Equal(t, int64(5), got.Int64())
}

func TestEarningRule_CalculatePoints_MinAmount(t *testing.T) {
	rule := purchaseRule(t)
	rule.SetMinAmount(decimal.NewFromInt(2000))

	assert.Equal(t, int64(0), rule.CalculatePoints(decimal.NewFromInt(1999), "").Int64())
	assert.Equal(t, int64(2), rule.CalculatePoints(decimal.NewFromInt(2000), "").Int64())
}

func TestEarningRule_CalculatePoints_Inactive(t *testing.T) {
	rule := purchaseRule(t)
	rule.Deactivate()

	assert.False(t, rule.IsApplicable())
	assert.Equal(t, int64(0), rule.CalculatePoints(decimal.NewFromInt(5000), "").Int64())

	rule.Activate()
	assert.True(t, rule.IsApplicable())
	assert.Equal(t, int64(5), rule.CalculatePoints(decimal.NewFromInt(5000), "").Int64())
}

func TestEarningRule_CalculatePoints_Window(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name       string
		start, end *time.Time
		applicable bool
	}{
		{name: "open window", start: nil, end: nil, applicable: true},
		{name: "inside window", start: &recent, end: &future, applicable: true},
		{name: "window not yet open", start: &future, end: nil, applicable: false},
		{name: "window closed", start: &past, end: &recent, applicable: false},
	}
	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rule := purchaseRule(t)
			rule.SetWindow(tt.start, tt.end)

			assert.Equal(t, tt.applicable, rule.IsApplicable())

			want := int64(0)
			if tt.applicable {
				want = 5
			}
			assert.Equal(t, want, rule.CalculatePoints(decimal.NewFromInt(5000), "").Int64())
		})
	}
}

func TestNewEarningRule_NonPositiveMultiplierDefaultsToOne(t *testing.T) {
	rule := NewEarningRule("rule", PURCHASE, decimal.NewFromInt(1), UnitTypeDollar, decimal.Zero)
	assert.True(t, rule.Multiplier().Equal(decimal.NewFromInt(1)))

	rule = NewEarningRule("rule", PURCHASE, decimal.NewFromInt(1), UnitTypeDollar, decimal.NewFromInt(-3))
	assert.True(t, rule.Multiplier().Equal(decimal.NewFromInt(1)))
}

func TestUpdateMultiplier_NonPositiveDefaultsToOne(t *testing.T) {
	rule := purchaseRule(t)

	rule.UpdateMultiplier(decimal.NewFromInt(-2))
	assert.True(t, rule.Multiplier().Equal(decimal.NewFromInt(1)))
	assert.Equal(t, int64(5), rule.CalculatePoints(decimal.NewFromInt(5000), "").Int64(),
		"a bad multiplier must not zero the award")

	rule.UpdateMultiplier(decimal.NewFromInt(3))
	assert.True(t, rule.Multiplier().Equal(decimal.NewFromInt(3)))
	assert.Equal(t, int64(15), rule.CalculatePoints(decimal.NewFromInt(5000), "").Int64())
}

func TestParseEarningType(t *testing.T) {
	for _, valid := range []string{
		"PURCHASE", "REFERRAL", "SIGNUP", "REVIEW", "SOCIAL_SHARE", "BONUS_EVENT", "MANUAL",
	} {
		got, err := ParseEarningType(valid)
		require.NoError(t, err, valid)
		assert.Equal(t, EarningType(valid), got)
	}

	_, err := ParseEarningType("GAMBLING")
	assert.Error(t, err)

	_, err = ParseEarningType("purchase")
	assert.Error(t, err, "earning types are case sensitive")
}
