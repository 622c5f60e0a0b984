package entities

import (
	"fmt"
	"time"

	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EarningType classifies how points were earned.
type EarningType string

const (
	PURCHASE     EarningType = "PURCHASE"
	REFERRAL     EarningType = "REFERRAL"
	SIGNUP       EarningType = "SIGNUP"
	REVIEW       EarningType = "REVIEW"
	SOCIAL_SHARE EarningType = "SOCIAL_SHARE"
	BONUS_EVENT  EarningType = "BONUS_EVENT"
	MANUAL       EarningType = "MANUAL"
)

var earningTypes = map[EarningType]struct{}{
	PURCHASE:     {},
	REFERRAL:     {},
	SIGNUP:       {},
	REVIEW:       {},
	SOCIAL_SHARE: {},
	BONUS_EVENT:  {},
	MANUAL:       {},
}

// ParseEarningType resolves the string representation of an earning type.
func ParseEarningType(s string) (EarningType, error) {
	t := EarningType(s)
	if _, ok := earningTypes[t]; !ok {
		return "", fmt.Errorf("%w: invalid earning type: %q", errs.ErrInvalidRequest, s)
	}
	return t, nil
}

// UnitTypeDollar awards pointsPerUnit per 1000 currency units.
// Any other unit type means a flat award.
const UnitTypeDollar = "DOLLAR"

// currencyUnitsPerPoint is the conversion base for DOLLAR rules:
// 1 pointsPerUnit per 1000 currency units.
var currencyUnitsPerPoint = decimal.NewFromInt(1000)

// EarningRule is a configured policy converting a transaction amount
// into a point award within an applicability window.
//
// The rule is mutated only through Activate, Deactivate and
// UpdateMultiplier; the persistence layer rehydrates stored rules via
// ReconstructEarningRule.
type EarningRule struct {
	id               uuid.UUID
	name             string
	ruleType         EarningType
	pointsPerUnit    decimal.Decimal
	unitType         string
	multiplier       decimal.Decimal
	minAmount        *decimal.Decimal
	maxPoints        *Points
	tierRestrictions map[string]any
	active           bool
	startDate        *time.Time
	endDate          *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// NewEarningRule creates an active rule whose window opens now.
// A non-positive multiplier defaults to 1.
func NewEarningRule(
	name string,
	ruleType EarningType,
	pointsPerUnit decimal.Decimal,
	unitType string,
	multiplier decimal.Decimal,
) *EarningRule {
	if !multiplier.IsPositive() {
		multiplier = decimal.NewFromInt(1)
	}

	now := time.Now()

	return &EarningRule{
		id:            uuid.New(),
		name:          name,
		ruleType:      ruleType,
		pointsPerUnit: pointsPerUnit,
		unitType:      unitType,
		multiplier:    multiplier,
		active:        true,
		startDate:     &now,
		createdAt:     now,
		updatedAt:     now,
	}
}

// ReconstructEarningRule rehydrates a rule from persisted fields.
// It is the only path bypassing NewEarningRule and must stay out of
// ordinary callers' hands.
func ReconstructEarningRule(
	id uuid.UUID,
	name string,
	ruleType EarningType,
	pointsPerUnit decimal.Decimal,
	unitType string,
	multiplier decimal.Decimal,
	minAmount *decimal.Decimal,
	maxPoints *Points,
	tierRestrictions map[string]any,
	active bool,
	startDate, endDate *time.Time,
	createdAt, updatedAt time.Time,
) (*EarningRule, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: earning rule without id", errs.ErrInvalidRequest)
	}
	if _, ok := earningTypes[ruleType]; !ok {
		return nil, fmt.Errorf("%w: invalid earning type: %q", errs.ErrInvalidRequest, ruleType)
	}

	return &EarningRule{
		id:               id,
		name:             name,
		ruleType:         ruleType,
		pointsPerUnit:    pointsPerUnit,
		unitType:         unitType,
		multiplier:       multiplier,
		minAmount:        minAmount,
		maxPoints:        maxPoints,
		tierRestrictions: tierRestrictions,
		active:           active,
		startDate:        startDate,
		endDate:          endDate,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}, nil
}

func (r *EarningRule) ID() uuid.UUID                  { return r.id }
func (r *EarningRule) Name() string                   { return r.name }
func (r *EarningRule) RuleType() EarningType          { return r.ruleType }
func (r *EarningRule) PointsPerUnit() decimal.Decimal { return r.pointsPerUnit }
func (r *EarningRule) UnitType() string               { return r.unitType }
func (r *EarningRule) Multiplier() decimal.Decimal    { return r.multiplier }
func (r *EarningRule) MinAmount() *decimal.Decimal    { return r.minAmount }
func (r *EarningRule) MaxPoints() *Points             { return r.maxPoints }
func (r *EarningRule) TierRestrictions() map[string]any {
	return r.tierRestrictions
}
func (r *EarningRule) Active() bool          { return r.active }
func (r *EarningRule) StartDate() *time.Time { return r.startDate }
func (r *EarningRule) EndDate() *time.Time   { return r.endDate }
func (r *EarningRule) CreatedAt() time.Time  { return r.createdAt }
func (r *EarningRule) UpdatedAt() time.Time  { return r.updatedAt }

// SetMinAmount sets the minimum transaction amount the rule applies to.
func (r *EarningRule) SetMinAmount(min decimal.Decimal) {
	r.minAmount = &min
	r.updatedAt = time.Now()
}

// SetMaxPoints caps the award of a single evaluation.
func (r *EarningRule) SetMaxPoints(max Points) {
	r.maxPoints = &max
	r.updatedAt = time.Now()
}

// SetWindow bounds the applicability window; either bound may be nil.
func (r *EarningRule) SetWindow(start, end *time.Time) {
	r.startDate = start
	r.endDate = end
	r.updatedAt = time.Now()
}

// IsApplicable reports whether the rule is active and the current time
// falls within [startDate, endDate]. Either bound may be open.
func (r *EarningRule) IsApplicable() bool {
	now := time.Now()
	return r.active &&
		(r.startDate == nil || !now.Before(*r.startDate)) &&
		(r.endDate == nil || !now.After(*r.endDate))
}

// CalculatePoints evaluates the rule against a transaction amount.
//
// DOLLAR rules award floor(amount/1000) * pointsPerUnit; the truncating
// division is deliberate. Any other unit type is a flat award of
// pointsPerUnit. The result is scaled by the rule multiplier and capped
// at maxPoints when set.
func (r *EarningRule) CalculatePoints(transactionAmount decimal.Decimal, userTier string) Points {
	if !r.IsApplicable() {
		return ZeroPoints()
	}

	// Minimum amount requirement.
	if r.minAmount != nil && transactionAmount.LessThan(*r.minAmount) {
		return ZeroPoints()
	}

	// Tier restrictions are stored but do not filter yet; the
	// rule-matching contract leaves their semantics undefined.
	_ = userTier

	var basePoints decimal.Decimal
	if r.unitType == UnitTypeDollar {
		basePoints = transactionAmount.
			DivRound(currencyUnitsPerPoint, 16).
			Floor().
			Mul(r.pointsPerUnit)
	} else {
		basePoints = r.pointsPerUnit
	}

	finalPoints := basePoints.Mul(r.multiplier)

	if r.maxPoints != nil && finalPoints.GreaterThan(r.maxPoints.Decimal()) {
		finalPoints = r.maxPoints.Decimal()
	}

	// basePoints and multiplier are non-negative, so the constructor
	// cannot fail here.
	points, _ := NewPoints(finalPoints)
	return points
}

func (r *EarningRule) Activate() {
	r.active = true
	r.updatedAt = time.Now()
}

func (r *EarningRule) Deactivate() {
	r.active = false
	r.updatedAt = time.Now()
}

// UpdateMultiplier replaces the award multiplier. A non-positive
// multiplier defaults to 1, matching NewEarningRule.
func (r *EarningRule) UpdateMultiplier(multiplier decimal.Decimal) {
	if !multiplier.IsPositive() {
		multiplier = decimal.NewFromInt(1)
	}
	r.multiplier = multiplier
	r.updatedAt = time.Now()
}
