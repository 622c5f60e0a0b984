package services

import (
	"context"
	"fmt"

	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/febry-setyawan/loyalty/internal/domain/repositories"
	"github.com/febry-setyawan/loyalty/pkg/logger"
	"github.com/shopspring/decimal"
)

// SeedEarningRules loads the default rules into an empty rule store.
// It runs at startup and is idempotent: a rule type already present in
// the store is left alone, so operators can replace the defaults.
//
// Defaults:
//   - purchase: 1 point per 1000 currency units
//   - referral: flat 500 points
func SeedEarningRules(ctx context.Context, repo repositories.EarningRuleRepository, logger logger.Logger) error {
	seeds := []*entities.EarningRule{
		entities.NewEarningRule(
			"Default Purchase Rule",
			entities.PURCHASE,
			decimal.NewFromInt(1),
			entities.UnitTypeDollar,
			decimal.NewFromInt(1),
		),
		entities.NewEarningRule(
			"Referral Bonus Rule",
			entities.REFERRAL,
			decimal.NewFromInt(500),
			"ACTION",
			decimal.NewFromInt(1),
		),
	}

	for _, seed := range seeds {
		existing, err := repo.FindByRuleType(ctx, seed.RuleType())
		if err != nil {
			return fmt.Errorf("seed earning rules: %w", err)
		}
		if len(existing) > 0 {
			continue
		}

		if err = repo.Save(ctx, seed); err != nil {
			return fmt.Errorf("seed earning rules: save %s: %w", seed.Name(), err)
		}

		logger.With(ctx, "rule", seed.Name(), "type", seed.RuleType()).
			Infof("seeded default earning rule")
	}

	return nil
}
