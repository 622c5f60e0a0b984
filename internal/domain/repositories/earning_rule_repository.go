package repositories

import (
	"context"

	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/google/uuid"
)

// EarningRuleRepository is the injected rule store; it is seeded
// explicitly at startup rather than hardcoded in process-wide state.
type EarningRuleRepository interface {
	Save(context.Context, *entities.EarningRule) error
	FindByID(context.Context, uuid.UUID) (*entities.EarningRule, error)
	FindAll(context.Context) ([]*entities.EarningRule, error)
	FindActiveRules(context.Context) ([]*entities.EarningRule, error)
	// FindByRuleType returns rules of the given earning category.
	// No ordering is guaranteed; rule awards are summed, so none is
	// needed.
	FindByRuleType(context.Context, entities.EarningType) ([]*entities.EarningRule, error)
	DeleteByID(context.Context, uuid.UUID) error
}
