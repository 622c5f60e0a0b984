package services

import (
	"context"
	"fmt"

	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/febry-setyawan/loyalty/internal/domain/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fixed referral award per business requirements.
var referralPoints = decimal.NewFromInt(500)

// PointCalculationService evaluates earning rules against transaction
// amounts. Rule evaluation is read-only.
type PointCalculationService struct {
	ruleRepo repositories.EarningRuleRepository
}

func NewPointCalculationService(ruleRepo repositories.EarningRuleRepository) (*PointCalculationService, error) {
	if ruleRepo == nil {
		return nil, fmt.Errorf("nil dependency: earning rule repository")
	}
	return &PointCalculationService{ruleRepo: ruleRepo}, nil
}

// CalculateEarnedPoints sums the awards of every applicable rule of
// the given earning type. Addition is commutative, so rule order does
// not matter.
func (s *PointCalculationService) CalculateEarnedPoints(
	ctx context.Context,
	transactionAmount entities.Money,
	userID uuid.UUID,
	earningType entities.EarningType,
	userTier string,
) (entities.Points, error) {
	rules, err := s.ruleRepo.FindByRuleType(ctx, earningType)
	if err != nil {
		return entities.ZeroPoints(), fmt.Errorf("find rules by type %s: %w", earningType, err)
	}

	total := entities.ZeroPoints()

	for _, rule := range rules {
		if rule.IsApplicable() {
			total = total.Add(rule.CalculatePoints(transactionAmount.Amount(), userTier))
		}
	}

	return total, nil
}

// CalculateBonusPoints scales the aggregate award once. Multipliers of
// one or below leave the base untouched.
func (s *PointCalculationService) CalculateBonusPoints(basePoints entities.Points, multiplier *decimal.Decimal) entities.Points {
	if multiplier == nil || multiplier.LessThanOrEqual(decimal.NewFromInt(1)) {
		return basePoints
	}

	// Multiplier is > 1 here, so Mul cannot fail.
	scaled, _ := basePoints.Mul(*multiplier)
	return scaled
}

// CalculateReferralPoints returns the fixed 500-point referral award.
// The earn flow reaches the same number through the seeded REFERRAL
// rule; the two paths are deliberately independent.
func (s *PointCalculationService) CalculateReferralPoints() entities.Points {
	points, _ := entities.NewPoints(referralPoints)
	return points
}

// IsValidForPointEarning reports whether an amount can earn points.
func (s *PointCalculationService) IsValidForPointEarning(transactionAmount entities.Money) bool {
	return transactionAmount.IsPositive()
}

// ActiveRules returns the currently applicable rules for administration.
func (s *PointCalculationService) ActiveRules(ctx context.Context) ([]*entities.EarningRule, error) {
	return s.ruleRepo.FindActiveRules(ctx)
}
